// Package toolchain launches the compiler toolchain for a single source file.
package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// ErrCompileFailed is matched by every *ExitError.
var ErrCompileFailed = errors.New("compile failed")

// ExitError reports a compiler run that exited non-zero.
type ExitError struct {
	Job  *Job
	Code int
}

func (e *ExitError) Error() string {
	if e.Job == nil {
		return fmt.Sprintf("compile failed: exit status %d", e.Code)
	}
	return fmt.Sprintf("compile %s failed: exit status %d", e.Job.Source, e.Code)
}

func (e *ExitError) Unwrap() error {
	return ErrCompileFailed
}

// Config describes how the toolchain is invoked.
type Config struct {
	// Command is the entry point, e.g. cargo run --bin starknet-compile --.
	// Source, output and Flags are appended to it.
	Command []string
	// WorkDir is the toolchain workspace the compiler runs in.
	WorkDir string
	// OutputDir holds the artifacts. Relative paths are resolved by the
	// compiler against WorkDir.
	OutputDir   string
	SourceExt   string
	ArtifactExt string
	Flags       []string
	// Env is appended to the current environment.
	Env     []string
	Timeout time.Duration

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

// Invoker runs compile jobs.
type Invoker struct {
	cfg    Config
	logger *slog.Logger
}

// Result describes a finished compiler run.
type Result struct {
	Job      *Job          `json:"job"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// New creates an Invoker. Unset streams default to the process's own.
func New(cfg Config) *Invoker {
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Invoker{cfg: cfg, logger: logger}
}

// Args returns the full argument vector for job, program name first.
func (i *Invoker) Args(job *Job) []string {
	args := make([]string, 0, len(i.cfg.Command)+2+len(job.Flags))
	args = append(args, i.cfg.Command...)
	args = append(args, job.Source, job.Output)
	args = append(args, job.Flags...)
	return args
}

// Run executes job and waits for the compiler to exit. The compiler's
// streams are connected straight to the configured writers. A non-zero exit
// returns the Result together with an *ExitError.
func (i *Invoker) Run(ctx context.Context, job *Job) (*Result, error) {
	if len(i.cfg.Command) == 0 {
		return nil, fmt.Errorf("compile command is not configured")
	}

	if i.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.cfg.Timeout)
		defer cancel()
	}

	argv := i.Args(job)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = i.cfg.WorkDir
	cmd.Stdin = i.cfg.Stdin
	cmd.Stdout = i.cfg.Stdout
	cmd.Stderr = i.cfg.Stderr
	if len(i.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), i.cfg.Env...)
	}

	i.logger.Debug("starting compiler",
		slog.String("job", job.ID),
		slog.String("dir", i.cfg.WorkDir),
		slog.Any("args", argv))

	start := time.Now()
	err := cmd.Run()
	res := &Result{Job: job, Duration: time.Since(start)}

	if err == nil {
		i.logger.Info("compiled", slog.String("output", job.Output), slog.Duration("duration", res.Duration))
		return res, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return nil, fmt.Errorf("failed to start compiler: %w", err)
	}

	res.ExitCode = exitErr.ExitCode()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("compile %s interrupted: %w", job.Source, ctxErr)
	}
	return res, &ExitError{Job: job, Code: res.ExitCode}
}
