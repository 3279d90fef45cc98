package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/cairokit/internal/cli/output"
	"github.com/leapstack-labs/cairokit/internal/corelib"
	"github.com/leapstack-labs/cairokit/internal/state"
)

// MergeOptions holds options for the merge command.
type MergeOptions struct {
	Watch     bool
	Libraries []string
	Debounce  time.Duration
}

// NewMergeCommand creates the merge command.
func NewMergeCommand() *cobra.Command {
	opts := &MergeOptions{}

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge local libraries into the corelib tree",
		Long: `Copy every configured library from the local library directory into the
toolchain's corelib tree and regenerate the root module declarations.

Stale corelib copies of each library are removed first. Everything in the
root module above the marker line is preserved; everything after it is
replaced with one declaration per library.`,
		Example: `  # Merge the configured libraries
  cairokit merge

  # Merge a different set
  cairokit merge --library oz --library mylib

  # Keep merging as libraries change
  cairokit merge --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMerge(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-merge whenever the library directory changes")
	cmd.Flags().StringSliceVarP(&opts.Libraries, "library", "l", nil, "Library to merge (repeatable, replaces the configured set)")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", corelib.DefaultDebounce, "How long changes must settle before re-merging")

	return cmd
}

func runMerge(cmd *cobra.Command, opts *MergeOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	libs := cc.Cfg.LibrarySet()
	if len(opts.Libraries) > 0 {
		libs = corelib.LibrarySet(opts.Libraries)
	}
	if err := cc.Cfg.ValidateDirectories(); err != nil {
		return err
	}

	merger, err := newMerger(cc, libs)
	if err != nil {
		return err
	}

	if _, err := mergeOnce(cmd.Context(), cc, merger); err != nil {
		if !opts.Watch {
			return err
		}
		cc.Renderer.Error(err.Error())
	}

	if !opts.Watch {
		return nil
	}
	return watchMerges(cmd.Context(), cc, merger, opts.Debounce)
}

func newMerger(cc *CommandContext, libs corelib.LibrarySet) (*corelib.Merger, error) {
	return corelib.NewMerger(cc.Cfg.Layout(), libs, corelib.Options{
		Logger:       cc.Logger,
		LockPath:     cc.Cfg.LockPath(),
		StrictMarker: cc.Cfg.StrictMarker,
	})
}

// mergeOnce runs a merge, records it and renders the result.
func mergeOnce(ctx context.Context, cc *CommandContext, merger *corelib.Merger) (*corelib.MergeResult, error) {
	h := beginHistory(cc, state.KindMerge, joinLibraries(merger.Libraries()))
	res, err := merger.Merge(ctx)
	h.finish(mergeDetail(res), nil, err)
	if err != nil {
		return nil, fmt.Errorf("failed to merge libraries: %w", err)
	}

	if err := renderMergeResult(cc.Renderer, res); err != nil {
		return nil, err
	}
	return res, nil
}

func watchMerges(ctx context.Context, cc *CommandContext, merger *corelib.Merger, debounce time.Duration) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := cc.Renderer
	watcher := corelib.NewWatcher(merger, corelib.WatchOptions{
		Debounce: debounce,
		Logger:   cc.Logger,
		OnMerge: func(res *corelib.MergeResult, err error) {
			h := beginHistory(cc, state.KindMerge, joinLibraries(merger.Libraries()))
			h.finish(mergeDetail(res), nil, err)
			if err != nil {
				r.Error(fmt.Sprintf("failed to merge libraries: %v", err))
				return
			}
			_ = renderMergeResult(r, res)
		},
	})

	if r.EffectiveMode() != output.ModeJSON {
		r.Muted(fmt.Sprintf("Watching %s for changes (Ctrl+C to stop)", merger.Layout().LibraryDir))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		return watcher.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		cc.Logger.Debug("watch stopped")
		return nil
	})
	return g.Wait()
}

func mergeDetail(res *corelib.MergeResult) string {
	if res == nil {
		return ""
	}
	detail := pluralize(len(res.Libraries), "library", "libraries")
	if len(res.Missing) > 0 {
		detail += fmt.Sprintf(", %d missing", len(res.Missing))
	}
	if !res.MarkerFound {
		detail += ", marker appended"
	}
	return detail
}

func renderMergeResult(r *output.Renderer, res *corelib.MergeResult) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(res)
	}

	missing := make(map[string]bool, len(res.Missing))
	for _, name := range res.Missing {
		missing[name] = true
	}
	replaced := make(map[string]bool, len(res.Cleanup))
	for _, c := range res.Cleanup {
		if c.Removed() {
			replaced[c.Library] = true
		}
	}

	r.Header(2, "Merged libraries")
	for _, name := range res.Libraries {
		switch {
		case missing[name]:
			r.StatusLine(name, "warn", "no local source, declaration added anyway")
		case replaced[name]:
			r.StatusLine(name, "success", "replaced")
		default:
			r.StatusLine(name, "success", "new")
		}
	}
	r.Println("")

	if !res.MarkerFound {
		r.Warning("marker not found in root module; generated declarations were appended")
	}
	r.Success(fmt.Sprintf("Updated %s (%s)", res.RootModule, res.Duration.Round(time.Millisecond)))
	return nil
}
