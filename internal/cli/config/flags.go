package config

import "github.com/spf13/pflag"

// BindFlags registers the global flags understood by LoadConfig.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("project-dir", "", "Project root (default: directory of cairokit.yaml, else CWD)")
	fs.String("library-dir", "", "Path to the local library directory")
	fs.String("workspace-dir", "", "Path to the toolchain workspace")
	fs.String("corelib-dir", "", "Path to the corelib source tree")
	fs.String("state", "", "Path to the history database")
	fs.Bool("strict-marker", false, "Fail when the root module has no marker")
	fs.BoolP("verbose", "v", false, "Verbose output")
	fs.StringP("output", "o", "", "Output format (auto|text|markdown|json)")
}
