// Package state records cairokit merges and compiles in a SQLite database
// so past runs can be inspected with `cairokit history`.
package state

import "time"

// Kind identifies what an entry records.
type Kind string

const (
	KindMerge   Kind = "merge"
	KindCompile Kind = "compile"
)

// Status is the lifecycle state of an entry.
type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Entry is one recorded merge or compile.
type Entry struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	Status  Status `json:"status"`
	Subject string `json:"subject"` // libraries for a merge, source path for a compile
	Detail  string `json:"detail,omitempty"`
	// ExitCode is only set for compiles that ran to completion.
	ExitCode    *int       `json:"exit_code,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Duration returns how long the entry ran, or zero while it is running.
func (e *Entry) Duration() time.Duration {
	if e.CompletedAt == nil {
		return 0
	}
	return e.CompletedAt.Sub(e.StartedAt)
}

// Completion carries the outcome passed to Store.Complete.
type Completion struct {
	Status   Status
	Detail   string
	ExitCode *int
	Error    string
}

// ListOptions filters Store.List.
type ListOptions struct {
	Kind  Kind // empty for all kinds
	Limit int  // 0 for no limit
}

// Store persists history entries.
type Store interface {
	Begin(kind Kind, subject string) (*Entry, error)
	Complete(id string, c Completion) error
	Get(id string) (*Entry, error)
	List(opts ListOptions) ([]*Entry, error)
	Close() error
}
