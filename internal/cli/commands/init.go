package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/cairokit/internal/cli/output"
	intconfig "github.com/leapstack-labs/cairokit/internal/config"
)

// projectFile is the cairokit.yaml written by init.
type projectFile struct {
	LibraryDir     string   `yaml:"library_dir"`
	WorkspaceDir   string   `yaml:"workspace_dir"`
	CorelibDir     string   `yaml:"corelib_dir"`
	RootModule     string   `yaml:"root_module"`
	OutputDir      string   `yaml:"output_dir"`
	Libraries      []string `yaml:"libraries"`
	Marker         string   `yaml:"marker"`
	StrictMarker   bool     `yaml:"strict_marker"`
	SourceExt      string   `yaml:"source_ext"`
	ArtifactExt    string   `yaml:"artifact_ext"`
	CompileCommand []string `yaml:"compile_command"`
	CompileFlags   []string `yaml:"compile_flags"`
	CompileTimeout string   `yaml:"compile_timeout"`
	StatePath      string   `yaml:"state_path"`
}

func defaultProjectFile() projectFile {
	return projectFile{
		LibraryDir:     intconfig.DefaultLibraryDir,
		WorkspaceDir:   intconfig.DefaultWorkspaceDir,
		CorelibDir:     intconfig.DefaultCorelibDir,
		RootModule:     intconfig.DefaultRootModule,
		OutputDir:      intconfig.DefaultOutputDir,
		Libraries:      intconfig.DefaultLibraries(),
		Marker:         intconfig.DefaultMarker,
		SourceExt:      intconfig.DefaultSourceExt,
		ArtifactExt:    intconfig.DefaultArtifactExt,
		CompileCommand: intconfig.DefaultCompileCommand(),
		CompileFlags:   intconfig.DefaultCompileFlags(),
		CompileTimeout: intconfig.DefaultCompileTimeout.String(),
		StatePath:      intconfig.DefaultStateFile,
	}
}

const projectFileHeader = `# cairokit configuration.
# Paths are relative to this file's directory, except output_dir which the
# compiler resolves from workspace_dir.
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new cairokit project",
		Long: `Initialize a cairokit project with a default configuration.

This creates:
  - cairokit.yaml with every setting at its default
  - the local library directory (src/lib)`,
		Example: `  # Initialize in current directory
  cairokit init

  # Initialize in a new directory
  cairokit init my-project

  # Force overwrite existing config
  cairokit init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			mode := output.ModeAuto
			if f := cmd.Flags().Lookup("output"); f != nil && f.Changed {
				m, err := output.ParseMode(f.Value.String())
				if err != nil {
					return err
				}
				mode = m
			}
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

			return runInit(r, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runInit(r *output.Renderer, dir string, force bool) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, intconfig.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", intconfig.ConfigFileName)
	}

	data, err := marshalProjectFile(defaultProjectFile())
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}

	libDir := filepath.Join(dir, intconfig.DefaultLibraryDir)
	if err := os.MkdirAll(libDir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", libDir, err)
	}

	r.StatusLine(intconfig.ConfigFileName, "success", "")
	r.StatusLine(intconfig.DefaultLibraryDir+"/", "success", "")
	r.Println("")
	r.Success("cairokit project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Put your libraries in " + intconfig.DefaultLibraryDir + "/")
	r.Println("  2. Add the marker line '" + intconfig.DefaultMarker + "' to the corelib root module")
	r.Println("  3. Run 'cairokit doctor' to check the setup")
	r.Println("  4. Run 'cairokit merge' and 'cairokit compile <source>'")

	return nil
}

func marshalProjectFile(pf projectFile) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(projectFileHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(pf); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}
