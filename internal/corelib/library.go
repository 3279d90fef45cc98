package corelib

import (
	"fmt"
	"strings"
)

// LibrarySet is the ordered list of library names merged into corelib.
// Order determines the order of generated declarations.
type LibrarySet []string

// Validate rejects names that cannot safely identify a single corelib entry.
func (s LibrarySet) Validate() error {
	seen := make(map[string]bool, len(s))
	for _, name := range s {
		switch {
		case strings.TrimSpace(name) == "":
			return &OpError{Op: "validate", Kind: KindInvalid, Err: fmt.Errorf("%w: empty name", ErrInvalidLibrary)}
		case name == "." || name == ".." || strings.ContainsAny(name, `/\`):
			return &OpError{Op: "validate", Kind: KindInvalid, Err: fmt.Errorf("%w: %q", ErrInvalidLibrary, name)}
		case seen[name]:
			return &OpError{Op: "validate", Kind: KindInvalid, Err: fmt.Errorf("%w: duplicate %q", ErrInvalidLibrary, name)}
		}
		seen[name] = true
	}
	return nil
}

// Declaration returns the module declaration statement for a library.
func Declaration(name string) string {
	return "mod " + name + ";"
}
