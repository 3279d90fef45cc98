package corelib

import (
	"fmt"
	"path/filepath"
)

// Layout locates everything a merge reads or writes.
type Layout struct {
	// LibraryDir is the local directory holding the library sources.
	LibraryDir string
	// CorelibDir is the toolchain's corelib source tree.
	CorelibDir string
	// RootModule is the path of the corelib root module file.
	RootModule string
	// Marker separates preserved content from generated declarations.
	Marker string
	// SourceExt is the extension of single-file libraries, e.g. ".cairo".
	SourceExt string
}

// Validate checks that every path and the marker are set.
func (l Layout) Validate() error {
	switch {
	case l.LibraryDir == "":
		return &OpError{Op: "validate", Kind: KindInvalid, Err: fmt.Errorf("library dir is required")}
	case l.CorelibDir == "":
		return &OpError{Op: "validate", Kind: KindInvalid, Err: fmt.Errorf("corelib dir is required")}
	case l.RootModule == "":
		return &OpError{Op: "validate", Kind: KindInvalid, Err: fmt.Errorf("root module is required")}
	case l.Marker == "":
		return &OpError{Op: "validate", Kind: KindInvalid, Err: fmt.Errorf("marker must not be empty")}
	}
	return nil
}

// EntryPaths returns the two corelib paths a library may occupy: the module
// directory and the single source file.
func (l Layout) EntryPaths(name string) (dir, file string) {
	dir = filepath.Join(l.CorelibDir, name)
	file = filepath.Join(l.CorelibDir, name+l.SourceExt)
	return dir, file
}

// SourcePaths returns the local equivalents of EntryPaths.
func (l Layout) SourcePaths(name string) (dir, file string) {
	dir = filepath.Join(l.LibraryDir, name)
	file = filepath.Join(l.LibraryDir, name+l.SourceExt)
	return dir, file
}
