package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/cairokit/internal/cli/output"
	"github.com/leapstack-labs/cairokit/internal/state"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
	Kind  string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent merges and compiles",
		Long: `List merges and compiles recorded in the state database, newest first.

Each entry shows what ran, whether it succeeded, how long it took and, for
compiles, the compiler's exit code.`,
		Example: `  # Show the last 20 runs
  cairokit history

  # Only compiles, as JSON
  cairokit history --kind compile -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of entries (0 for all)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "Only show entries of this kind (merge|compile)")
	_ = cmd.RegisterFlagCompletionFunc("kind", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(state.KindMerge), string(state.KindCompile)}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	kind := state.Kind(opts.Kind)
	switch kind {
	case "", state.KindMerge, state.KindCompile:
	default:
		return fmt.Errorf("unknown kind %q (want merge or compile)", opts.Kind)
	}
	if opts.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}

	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cc.Renderer

	var entries []*state.Entry
	if _, err := os.Stat(cc.Cfg.StatePath); err == nil {
		store := state.NewSQLiteStore(cc.Logger)
		if err := store.Open(cc.Cfg.StatePath); err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		entries, err = store.List(state.ListOptions{Kind: kind, Limit: opts.Limit})
		if err != nil {
			return err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to open history: %w", err)
	}

	if r.EffectiveMode() == output.ModeJSON {
		if entries == nil {
			entries = []*state.Entry{}
		}
		return r.JSON(entries)
	}

	if len(entries) == 0 {
		r.Muted("No history recorded yet")
		return nil
	}

	r.Header(2, "History")
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, historyRow(e))
	}
	r.Table([]string{"ID", "Kind", "Status", "Subject", "Started", "Duration", "Exit"}, rows)
	return nil
}

func historyRow(e *state.Entry) []string {
	id := e.ID
	if len(id) > 8 {
		id = id[:8]
	}
	duration := "-"
	if e.CompletedAt != nil {
		duration = e.Duration().Round(time.Millisecond).String()
	}
	exit := "-"
	if e.ExitCode != nil {
		exit = strconv.Itoa(*e.ExitCode)
	}
	return []string{
		id,
		string(e.Kind),
		string(e.Status),
		e.Subject,
		e.StartedAt.Local().Format(time.DateTime),
		duration,
		exit,
	}
}
