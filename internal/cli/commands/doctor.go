package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/cairokit/internal/cli/config"
	"github.com/leapstack-labs/cairokit/internal/cli/output"
	"github.com/leapstack-labs/cairokit/internal/corelib"
	"github.com/spf13/cobra"
)

// Check statuses.
const (
	statusPass  = "pass"
	statusWarn  = "warn"
	statusError = "error"
)

// Check groups, in report order.
const (
	groupLayout    = "layout"
	groupLibraries = "libraries"
	groupToolchain = "toolchain"
)

// ErrUnhealthy is returned by doctor when at least one check errors.
var ErrUnhealthy = errors.New("project has errors")

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the project is ready to merge and compile",
		Long: `Inspect the library directory, the corelib tree and the toolchain.

The doctor command checks that:
- the library, workspace and corelib directories exist
- the root module exists and holds the marker line exactly once
- every library exists locally, in corelib and is declared after the marker
- the compile command can be found

It exits non-zero when any check fails.`,
		Example: `  # Run all checks
  cairokit doctor

  # Output as JSON
  cairokit doctor -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd)
		},
	}
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	ConfigFile string          `json:"config_file,omitempty"`
	Checks     []HealthCheck   `json:"checks"`
	Libraries  []LibraryStatus `json:"libraries"`
	Errors     int             `json:"errors"`
	Warnings   int             `json:"warnings"`
}

// HealthCheck represents a single check result.
type HealthCheck struct {
	Name    string   `json:"name"`
	Group   string   `json:"group"`
	Status  string   `json:"status"` // "pass", "warn", "error"
	Details []string `json:"details,omitempty"`
}

// LibraryStatus reports where a library was found.
type LibraryStatus struct {
	Name     string `json:"name"`
	Local    bool   `json:"local"`
	Corelib  bool   `json:"corelib"`
	Declared bool   `json:"declared"`
}

func runDoctor(cmd *cobra.Command) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cc.Renderer

	out := buildDoctorOutput(cc.Cfg, config.GetConfigFileUsed())

	switch r.EffectiveMode() {
	case output.ModeJSON:
		err = r.JSON(out)
	case output.ModeMarkdown:
		renderDoctorMarkdown(r, out)
	default:
		renderDoctorText(r, out)
	}
	if err != nil {
		return err
	}

	if out.Errors > 0 {
		return fmt.Errorf("%w: %d failed check(s)", ErrUnhealthy, out.Errors)
	}
	return nil
}

func buildDoctorOutput(cfg *config.Config, configFile string) *DoctorOutput {
	out := &DoctorOutput{ConfigFile: configFile}
	add := func(group, name, status string, details ...string) {
		out.Checks = append(out.Checks, HealthCheck{Name: name, Group: group, Status: status, Details: details})
		switch status {
		case statusError:
			out.Errors++
		case statusWarn:
			out.Warnings++
		}
	}

	// Layout
	for _, d := range []struct{ name, path string }{
		{"Library directory", cfg.LibraryDir},
		{"Workspace directory", cfg.WorkspaceDir},
		{"Corelib directory", cfg.CorelibDir},
	} {
		if isDir(d.path) {
			add(groupLayout, d.name, statusPass, d.path)
		} else {
			add(groupLayout, d.name, statusError, "missing: "+d.path)
		}
	}

	layout := cfg.Layout()
	content, err := os.ReadFile(layout.RootModule)
	rootReadable := err == nil
	if !rootReadable {
		add(groupLayout, "Root module", statusError, err.Error())
	} else {
		add(groupLayout, "Root module", statusPass, layout.RootModule)
		status, detail := markerCheck(string(content), cfg.Marker, cfg.StrictMarker)
		add(groupLayout, "Marker", status, detail)
	}

	// Libraries
	declared := make(map[string]bool)
	if rootReadable {
		if idx := strings.Index(string(content), cfg.Marker); idx >= 0 {
			for _, line := range strings.Split(string(content)[idx+len(cfg.Marker):], "\n") {
				declared[strings.TrimSpace(line)] = true
			}
		}
	}
	for _, name := range cfg.Libraries {
		localDir, localFile := layout.SourcePaths(name)
		coreDir, coreFile := layout.EntryPaths(name)
		st := LibraryStatus{
			Name:     name,
			Local:    exists(localDir) || exists(localFile),
			Corelib:  exists(coreDir) || exists(coreFile),
			Declared: declared[corelib.Declaration(name)],
		}
		out.Libraries = append(out.Libraries, st)

		switch {
		case !st.Local:
			add(groupLibraries, name, statusError, "no source in "+cfg.LibraryDir)
		case !st.Corelib || !st.Declared:
			add(groupLibraries, name, statusWarn, "not merged yet, run 'cairokit merge'")
		default:
			add(groupLibraries, name, statusPass)
		}
	}

	// Toolchain
	if len(cfg.CompileCommand) == 0 {
		add(groupToolchain, "Compile command", statusError, "compile_command is empty")
	} else if path, err := lookupCompiler(cfg.CompileCommand[0], cfg.WorkspaceDir); err != nil {
		add(groupToolchain, "Compile command", statusError, err.Error())
	} else {
		add(groupToolchain, "Compile command", statusPass, path)
	}

	return out
}

// lookupCompiler resolves the compiler the way the invoker runs it: bare
// names are searched on PATH, relative paths from the workspace directory.
func lookupCompiler(name, workDir string) (string, error) {
	relative := !filepath.IsAbs(name) && strings.ContainsAny(name, "/"+string(filepath.Separator))
	if !relative {
		path, err := exec.LookPath(name)
		if err != nil {
			return "", fmt.Errorf("%s not found on PATH", name)
		}
		return path, nil
	}

	path, err := exec.LookPath(filepath.Join(workDir, name))
	if err != nil {
		return "", fmt.Errorf("%s not found in %s", name, workDir)
	}
	return path, nil
}

// markerCheck returns the marker check status and detail.
func markerCheck(content, marker string, strict bool) (status, detail string) {
	switch n := strings.Count(content, marker); {
	case n == 0 && strict:
		return statusError, fmt.Sprintf("%q not found and strict_marker is set", marker)
	case n == 0:
		return statusWarn, fmt.Sprintf("%q not found, merge will append it", marker)
	case n > 1:
		return statusWarn, fmt.Sprintf("%q appears %d times, only the first is used", marker, n)
	default:
		return statusPass, marker
	}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func libraryRows(libs []LibraryStatus) [][]string {
	rows := make([][]string, 0, len(libs))
	for _, l := range libs {
		rows = append(rows, []string{l.Name, yesNo(l.Local), yesNo(l.Corelib), yesNo(l.Declared)})
	}
	return rows
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("cairokit Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	if out.ConfigFile != "" {
		r.Println(styles.Muted.Render("   Config: " + out.ConfigFile))
	} else {
		r.Println(styles.Muted.Render("   Config: built-in defaults"))
	}
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.String()
		switch check.Status {
		case statusWarn:
			icon = styles.Warning.Render("!")
		case statusError:
			icon = styles.StatusFailed.String()
		}
		r.Println("   " + icon + " " + check.Name)
		for _, detail := range check.Details {
			r.Println(styles.Muted.Render("       " + detail))
		}
	}
	r.Println("")

	if len(out.Libraries) > 0 {
		r.Table([]string{"Library", "Local", "Corelib", "Declared"}, libraryRows(out.Libraries))
		r.Println("")
	}

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	summary := fmt.Sprintf("%d error(s), %d warning(s)", out.Errors, out.Warnings)
	switch {
	case out.Errors > 0:
		r.Println("   " + styles.Error.Render(summary))
	case out.Warnings > 0:
		r.Println("   " + styles.Warning.Render(summary))
	default:
		r.Println("   " + styles.Success.Render("All checks passed"))
	}
	r.Println("")
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) {
	r.Println("# cairokit Health Report")
	r.Println("")
	if out.ConfigFile != "" {
		r.Printf("Config: `%s`\n", out.ConfigFile)
	} else {
		r.Println("Config: built-in defaults")
	}
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("## " + titleCaser.String(currentGroup))
			r.Println("")
		}

		r.Printf("- **[%s]** %s\n", strings.ToUpper(check.Status), check.Name)
		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	if len(out.Libraries) > 0 {
		r.Table([]string{"Library", "Local", "Corelib", "Declared"}, libraryRows(out.Libraries))
		r.Println("")
	}

	r.Println("## Summary")
	r.Println("")
	r.Printf("**%d error(s), %d warning(s)**\n", out.Errors, out.Warnings)
}
