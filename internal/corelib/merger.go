// Package corelib merges externally authored library modules into the
// toolchain's corelib tree and keeps the corelib root module declaring them.
//
// A merge runs strictly in sequence: stale library entries are removed from
// the corelib tree, the local library directory is copied over it, and the
// generated suffix of the root module (marker plus one declaration per
// library) is rewritten. The content before the marker is never modified.
package corelib

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Options configures a Merger.
type Options struct {
	// Logger receives progress and warnings. Defaults to a discard logger.
	Logger *slog.Logger
	// LockPath, when set, is flock'ed for the duration of each merge.
	LockPath string
	// StrictMarker turns a root module without the marker into an error.
	StrictMarker bool
}

// Merger integrates a LibrarySet into a corelib tree.
type Merger struct {
	layout   Layout
	libs     LibrarySet
	logger   *slog.Logger
	lockPath string
	strict   bool
}

// MergeResult summarises a completed merge.
type MergeResult struct {
	Libraries   LibrarySet      `json:"libraries"`
	Cleanup     []CleanupResult `json:"cleanup"`
	Missing     []string        `json:"missing,omitempty"`
	MarkerFound bool            `json:"marker_found"`
	RootModule  string          `json:"root_module"`
	Duration    time.Duration   `json:"duration"`
}

// NewMerger validates the layout and library set and returns a Merger.
func NewMerger(layout Layout, libs LibrarySet, opts Options) (*Merger, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if err := libs.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Merger{
		layout:   layout,
		libs:     append(LibrarySet(nil), libs...),
		logger:   logger,
		lockPath: opts.LockPath,
		strict:   opts.StrictMarker,
	}, nil
}

// Layout returns the layout the merger operates on.
func (m *Merger) Layout() Layout {
	return m.layout
}

// Libraries returns the library set in declaration order.
func (m *Merger) Libraries() LibrarySet {
	return append(LibrarySet(nil), m.libs...)
}

// Merge runs cleanup, copy and root module patching in order. There is no
// rollback: a failure part way leaves the corelib tree as the failing step
// found it.
func (m *Merger) Merge(ctx context.Context) (*MergeResult, error) {
	start := time.Now()

	if m.lockPath != "" {
		if err := os.MkdirAll(filepath.Dir(m.lockPath), 0750); err != nil {
			return nil, ioError("lock", m.lockPath, err)
		}
		unlock, err := lockFile(m.lockPath)
		if err != nil {
			return nil, ioError("lock", m.lockPath, err)
		}
		defer unlock()
	}

	if info, err := os.Stat(m.layout.LibraryDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &OpError{Op: "copy", Kind: KindNotFound, Path: m.layout.LibraryDir, Err: err}
		}
		return nil, ioError("copy", m.layout.LibraryDir, err)
	} else if !info.IsDir() {
		return nil, &OpError{Op: "copy", Kind: KindInvalid, Path: m.layout.LibraryDir, Err: fmt.Errorf("not a directory")}
	}

	if m.strict {
		if err := m.checkMarker(); err != nil {
			return nil, err
		}
	}

	result := &MergeResult{
		Libraries:  m.Libraries(),
		RootModule: m.layout.RootModule,
	}

	// 1. Cleanup
	for _, name := range m.libs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := m.cleanLibrary(name)
		if err != nil {
			return nil, err
		}
		if res.Removed() {
			m.logger.Debug("removed corelib entry", slog.String("library", name))
		}
		result.Cleanup = append(result.Cleanup, res)
	}

	// 2. Copy
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.logger.Debug("copying libraries",
		slog.String("from", m.layout.LibraryDir),
		slog.String("to", m.layout.CorelibDir))
	if err := copyTree(m.layout.LibraryDir, m.layout.CorelibDir); err != nil {
		return nil, ioError("copy", m.layout.CorelibDir, err)
	}

	for _, name := range m.libs {
		if !m.present(name) {
			m.logger.Warn("library has no source entry, declaration will dangle", slog.String("library", name))
			result.Missing = append(result.Missing, name)
		}
	}

	// 3. Patch root module
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	found, err := m.patchRootModule()
	if err != nil {
		return nil, err
	}
	result.MarkerFound = found
	if !found {
		m.logger.Warn("marker missing from root module, appended generated section",
			slog.String("path", m.layout.RootModule),
			slog.String("marker", m.layout.Marker))
	}

	result.Duration = time.Since(start)
	m.logger.Info("corelib updated",
		slog.Int("libraries", len(m.libs)),
		slog.Duration("duration", result.Duration))

	return result, nil
}

func (m *Merger) checkMarker() error {
	content, err := os.ReadFile(m.layout.RootModule)
	if err != nil {
		return ioError("read", m.layout.RootModule, err)
	}
	if _, found := PreservedPrefix(string(content), m.layout.Marker); !found {
		return &OpError{Op: "patch", Kind: KindMissingMarker, Path: m.layout.RootModule, Err: ErrMissingMarker}
	}
	return nil
}

func (m *Merger) patchRootModule() (bool, error) {
	path := m.layout.RootModule

	info, err := os.Stat(path)
	if err != nil {
		return false, ioError("read", path, err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return false, ioError("read", path, err)
	}

	patched, found := PatchRootModule(string(content), m.layout.Marker, m.libs)

	if err := os.WriteFile(path, []byte(patched), info.Mode().Perm()); err != nil {
		return false, ioError("write", path, err)
	}
	return found, nil
}

// present reports whether a library occupies either of its corelib forms.
func (m *Merger) present(name string) bool {
	dir, file := m.layout.EntryPaths(name)
	for _, p := range []string{dir, file} {
		if _, err := os.Lstat(p); err == nil {
			return true
		}
	}
	return false
}
