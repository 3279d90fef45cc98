// Package config holds the defaults and project discovery shared by every
// cairokit entry point.
package config

import "time"

// Default configuration values.
const (
	DefaultLibraryDir   = "src/lib"
	DefaultWorkspaceDir = "cairo"
	DefaultCorelibDir   = "cairo/corelib/src"
	DefaultRootModule   = "lib.cairo"
	DefaultOutputDir    = "../out"
	DefaultMarker       = "// TEMPFIX"
	DefaultSourceExt    = ".cairo"
	DefaultArtifactExt  = ".json"
	DefaultStateFile    = ".cairokit/state.db"

	DefaultCompileTimeout time.Duration = 0
)

// DefaultLibraries returns the library set merged when none is configured.
func DefaultLibraries() []string {
	return []string{"oz", "anotherlib"}
}

// DefaultCompileCommand returns the toolchain entry point used to compile a
// single source file. Source, output and flags are appended to it.
func DefaultCompileCommand() []string {
	return []string{"cargo", "run", "--bin", "starknet-compile", "--"}
}

// DefaultCompileFlags returns the flags passed after the source/output pair.
func DefaultCompileFlags() []string {
	return []string{"--replace-ids"}
}
