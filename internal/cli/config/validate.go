package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/leapstack-labs/cairokit/internal/cli/output"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	required := []struct{ key, val string }{
		{"library_dir", c.LibraryDir},
		{"workspace_dir", c.WorkspaceDir},
		{"corelib_dir", c.CorelibDir},
		{"root_module", c.RootModule},
		{"output_dir", c.OutputDir},
		{"state_path", c.StatePath},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			errs = append(errs, fmt.Errorf("%s is required", r.key))
		}
	}

	if c.Marker == "" {
		errs = append(errs, fmt.Errorf("marker must not be empty"))
	}
	if err := c.LibrarySet().Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(c.CompileCommand) == 0 {
		errs = append(errs, fmt.Errorf("compile_command is required"))
	}
	if c.CompileTimeout < 0 {
		errs = append(errs, fmt.Errorf("compile_timeout must not be negative"))
	}
	for _, e := range []struct{ key, val string }{
		{"source_ext", c.SourceExt},
		{"artifact_ext", c.ArtifactExt},
	} {
		if !strings.HasPrefix(e.val, ".") {
			errs = append(errs, fmt.Errorf("%s must start with a dot, got %q", e.key, e.val))
		}
	}
	if _, err := output.ParseMode(c.OutputFormat); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// ValidateDirectories checks that the library and corelib directories exist.
func (c *Config) ValidateDirectories() error {
	if _, err := os.Stat(c.LibraryDir); os.IsNotExist(err) {
		return fmt.Errorf("library directory does not exist: %s\nHint: Create the directory or use --library-dir to specify a different path", c.LibraryDir)
	}
	if _, err := os.Stat(c.CorelibDir); os.IsNotExist(err) {
		return fmt.Errorf("corelib directory does not exist: %s\nHint: Check corelib_dir in cairokit.yaml or use --corelib-dir", c.CorelibDir)
	}
	return nil
}
