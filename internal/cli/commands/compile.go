package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/cairokit/internal/cli/output"
	"github.com/leapstack-labs/cairokit/internal/state"
	"github.com/leapstack-labs/cairokit/internal/toolchain"
)

// CompileOptions holds options for the compile command.
type CompileOptions struct {
	Merge  bool
	OutDir string
}

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	opts := &CompileOptions{}

	cmd := &cobra.Command{
		Use:   "compile <source>",
		Short: "Compile one source file with the toolchain compiler",
		Long: `Run the toolchain's compile binary from the workspace directory.

The artifact is written to the output directory under the source's base name
with the artifact extension, e.g. token.cairo becomes ../out/token.json.
The source path is passed to the compiler unchanged, so a relative path is
resolved from the workspace directory.

The compiler's output is streamed as it runs and cairokit exits with the
compiler's exit code.`,
		Example: `  # Compile a contract
  cairokit compile ../contracts/token.cairo

  # Merge libraries first, then compile
  cairokit compile --merge ../contracts/token.cairo

  # Write artifacts elsewhere
  cairokit compile --out-dir /tmp/artifacts token.cairo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Merge, "merge", false, "Merge libraries into corelib before compiling")
	cmd.Flags().StringVar(&opts.OutDir, "out-dir", "", "Artifact directory (relative to the workspace)")

	return cmd
}

func runCompile(cmd *cobra.Command, source string, opts *CompileOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cc.Renderer

	// Ctrl-C cancels the context so the child is killed and the run recorded.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.Merge {
		if err := cc.Cfg.ValidateDirectories(); err != nil {
			return err
		}
		merger, err := newMerger(cc, cc.Cfg.LibrarySet())
		if err != nil {
			return err
		}
		if _, err := mergeOnce(ctx, cc, merger); err != nil {
			return err
		}
	}

	tc := cc.Cfg.Toolchain()
	if opts.OutDir != "" {
		tc.OutputDir = opts.OutDir
	}
	tc.Stdin = cmd.InOrStdin()
	tc.Stdout = cmd.OutOrStdout()
	tc.Stderr = cmd.ErrOrStderr()
	tc.Logger = cc.Logger
	// Keep stdout parseable in JSON mode.
	if r.EffectiveMode() == output.ModeJSON {
		tc.Stdout = cmd.ErrOrStderr()
	}

	inv := toolchain.New(tc)
	job := inv.NewJob(source)

	h := beginHistory(cc, state.KindCompile, source)
	res, err := inv.Run(ctx, job)
	var exitCode *int
	if res != nil {
		code := res.ExitCode
		exitCode = &code
	}
	h.finish(job.Output, exitCode, err)
	if err != nil {
		return err
	}

	return renderCompileResult(r, res)
}

func renderCompileResult(r *output.Renderer, res *toolchain.Result) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(res)
	}
	r.Success(fmt.Sprintf("Compiled %s -> %s", res.Job.Source, res.Job.Output))
	return nil
}
