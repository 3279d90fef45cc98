// Package config loads cairokit's CLI configuration.
//
// Values are layered, lowest to highest precedence: built-in defaults,
// cairokit.yaml, CAIROKIT_* environment variables and explicitly set flags.
// Relative paths are anchored at the project root, which is the directory
// holding the config file, or the working directory when there is none.
package config

import (
	"path/filepath"
	"time"

	"github.com/leapstack-labs/cairokit/internal/corelib"
	"github.com/leapstack-labs/cairokit/internal/toolchain"
)

// Config holds all CLI configuration options.
type Config struct {
	// ProjectRoot is resolved at load time and never read from a source.
	ProjectRoot string `koanf:"-" yaml:"-"`

	LibraryDir   string   `koanf:"library_dir" yaml:"library_dir"`
	WorkspaceDir string   `koanf:"workspace_dir" yaml:"workspace_dir"`
	CorelibDir   string   `koanf:"corelib_dir" yaml:"corelib_dir"`
	RootModule   string   `koanf:"root_module" yaml:"root_module"`
	OutputDir    string   `koanf:"output_dir" yaml:"output_dir"`
	Libraries    []string `koanf:"libraries" yaml:"libraries"`
	Marker       string   `koanf:"marker" yaml:"marker"`
	StrictMarker bool     `koanf:"strict_marker" yaml:"strict_marker"`

	SourceExt      string        `koanf:"source_ext" yaml:"source_ext"`
	ArtifactExt    string        `koanf:"artifact_ext" yaml:"artifact_ext"`
	CompileCommand []string      `koanf:"compile_command" yaml:"compile_command"`
	CompileFlags   []string      `koanf:"compile_flags" yaml:"compile_flags"`
	CompileTimeout time.Duration `koanf:"compile_timeout" yaml:"compile_timeout"`

	StatePath    string `koanf:"state_path" yaml:"state_path"`
	Verbose      bool   `koanf:"verbose" yaml:"verbose,omitempty"`
	OutputFormat string `koanf:"output" yaml:"output,omitempty"`
}

// RootModulePath returns the root module file path. A relative root_module
// is taken relative to the corelib directory.
func (c *Config) RootModulePath() string {
	if filepath.IsAbs(c.RootModule) {
		return c.RootModule
	}
	return filepath.Join(c.CorelibDir, c.RootModule)
}

// LockPath returns the advisory lock file guarding merges.
func (c *Config) LockPath() string {
	return filepath.Join(filepath.Dir(c.StatePath), "merge.lock")
}

// Layout returns the corelib layout described by the config.
func (c *Config) Layout() corelib.Layout {
	return corelib.Layout{
		LibraryDir: c.LibraryDir,
		CorelibDir: c.CorelibDir,
		RootModule: c.RootModulePath(),
		Marker:     c.Marker,
		SourceExt:  c.SourceExt,
	}
}

// LibrarySet returns the configured libraries.
func (c *Config) LibrarySet() corelib.LibrarySet {
	return corelib.LibrarySet(c.Libraries)
}

// Toolchain returns the invoker configuration. Streams and logger are left
// for the caller.
func (c *Config) Toolchain() toolchain.Config {
	return toolchain.Config{
		Command:     append([]string(nil), c.CompileCommand...),
		WorkDir:     c.WorkspaceDir,
		OutputDir:   c.OutputDir,
		SourceExt:   c.SourceExt,
		ArtifactExt: c.ArtifactExt,
		Flags:       append([]string(nil), c.CompileFlags...),
		Timeout:     c.CompileTimeout,
	}
}
