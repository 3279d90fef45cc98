package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/cairokit/internal/cli/config"
	"github.com/leapstack-labs/cairokit/internal/cli/output"
	"github.com/leapstack-labs/cairokit/internal/state"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	logger := config.GetLogger(cmd.Context())
	mode, err := output.ParseMode(cfg.OutputFormat)
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}, nil
}

// getConfig returns the configuration loaded by the root command, loading
// it from the working directory when a command runs on its own.
func getConfig() (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	return config.LoadConfig("", nil)
}

// history records a single merge or compile in the state store. Recording
// is best effort: store failures are logged and never fail the command.
type history struct {
	store  *state.SQLiteStore
	entry  *state.Entry
	logger *slog.Logger
}

func beginHistory(cc *CommandContext, kind state.Kind, subject string) *history {
	h := &history{logger: cc.Logger}

	store := state.NewSQLiteStore(cc.Logger)
	if err := store.Open(cc.Cfg.StatePath); err != nil {
		cc.Logger.Warn("history disabled", slog.String("path", cc.Cfg.StatePath), slog.Any("error", err))
		return h
	}
	entry, err := store.Begin(kind, subject)
	if err != nil {
		cc.Logger.Warn("failed to record history", slog.Any("error", err))
		_ = store.Close()
		return h
	}

	h.store = store
	h.entry = entry
	return h
}

// finish completes the entry from err and closes the store.
func (h *history) finish(detail string, exitCode *int, err error) {
	if h.store == nil {
		return
	}
	defer func() { _ = h.store.Close() }()

	c := state.Completion{Status: state.StatusSuccess, Detail: detail, ExitCode: exitCode}
	if err != nil {
		c.Status = state.StatusFailed
		c.Error = err.Error()
	}
	if cerr := h.store.Complete(h.entry.ID, c); cerr != nil {
		h.logger.Warn("failed to record history", slog.Any("error", cerr))
	}
}

func joinLibraries(libs []string) string {
	return strings.Join(libs, ",")
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
