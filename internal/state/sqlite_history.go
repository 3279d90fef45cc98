package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrNotFound is returned when an entry does not exist.
var ErrNotFound = errors.New("history entry not found")

const selectEntry = `SELECT id, kind, status, subject, detail, exit_code, error, started_at, completed_at FROM history`

// Begin records the start of a merge or compile.
func (s *SQLiteStore) Begin(kind Kind, subject string) (*Entry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	e := &Entry{
		ID:        generateID(),
		Kind:      kind,
		Status:    StatusRunning,
		Subject:   subject,
		StartedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	s.logger.Debug("recording history entry",
		slog.String("id", e.ID),
		slog.String("kind", string(kind)),
		slog.String("subject", subject))

	_, err := s.db.Exec(
		`INSERT INTO history (id, kind, status, subject, started_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), string(e.Status), e.Subject, e.StartedAt.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create history entry: %w", err)
	}
	return e, nil
}

// Complete marks an entry finished with the given outcome.
func (s *SQLiteStore) Complete(id string, c Completion) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if c.Status == StatusRunning || c.Status == "" {
		return fmt.Errorf("invalid completion status %q", c.Status)
	}

	var exitCode sql.NullInt64
	if c.ExitCode != nil {
		exitCode = sql.NullInt64{Int64: int64(*c.ExitCode), Valid: true}
	}

	res, err := s.db.Exec(
		`UPDATE history SET status = ?, detail = ?, exit_code = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(c.Status), c.Detail, exitCode, c.Error, time.Now().UTC().UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete history entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to complete history entry: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Get retrieves an entry by ID.
func (s *SQLiteStore) Get(id string) (*Entry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	e, err := scanEntry(s.db.QueryRow(selectEntry+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}
	return e, nil
}

// List returns entries newest first.
func (s *SQLiteStore) List(opts ListOptions) ([]*Entry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	var (
		query strings.Builder
		args  []any
	)
	query.WriteString(selectEntry)
	if opts.Kind != "" {
		query.WriteString(` WHERE kind = ?`)
		args = append(args, string(opts.Kind))
	}
	query.WriteString(` ORDER BY started_at DESC, rowid DESC`)
	if opts.Limit > 0 {
		query.WriteString(` LIMIT ?`)
		args = append(args, opts.Limit)
	}

	rows, err := s.db.Query(query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		e           Entry
		kind        string
		status      string
		exitCode    sql.NullInt64
		startedAt   int64
		completedAt sql.NullInt64
	)
	if err := row.Scan(&e.ID, &kind, &status, &e.Subject, &e.Detail, &exitCode, &e.Error, &startedAt, &completedAt); err != nil {
		return nil, err
	}
	e.Kind = Kind(kind)
	e.Status = Status(status)
	e.StartedAt = time.UnixMilli(startedAt).UTC()
	if exitCode.Valid {
		code := int(exitCode.Int64)
		e.ExitCode = &code
	}
	if completedAt.Valid {
		t := time.UnixMilli(completedAt.Int64).UTC()
		e.CompletedAt = &t
	}
	return &e, nil
}
