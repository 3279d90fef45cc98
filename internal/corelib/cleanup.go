package corelib

import (
	"errors"
	"io/fs"
	"os"
)

// RemoveOutcome describes what cleanup found at a corelib path.
type RemoveOutcome string

const (
	RemoveRemoved  RemoveOutcome = "removed"
	RemoveNotFound RemoveOutcome = "not_found"
)

// CleanupResult records the cleanup of one library's corelib entries.
type CleanupResult struct {
	Library string        `json:"library"`
	Dir     RemoveOutcome `json:"dir"`
	File    RemoveOutcome `json:"file"`
}

// Removed reports whether either form of the entry existed.
func (c CleanupResult) Removed() bool {
	return c.Dir == RemoveRemoved || c.File == RemoveRemoved
}

// removeEntry deletes path recursively. A missing path is RemoveNotFound;
// any other failure is returned.
func removeEntry(path string) (RemoveOutcome, error) {
	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return RemoveNotFound, nil
		}
		return "", err
	}
	if err := os.RemoveAll(path); err != nil {
		return "", err
	}
	return RemoveRemoved, nil
}

func (m *Merger) cleanLibrary(name string) (CleanupResult, error) {
	res := CleanupResult{Library: name}
	dir, file := m.layout.EntryPaths(name)

	outcome, err := removeEntry(dir)
	if err != nil {
		return res, ioError("cleanup", dir, err)
	}
	res.Dir = outcome

	outcome, err = removeEntry(file)
	if err != nil {
		return res, ioError("cleanup", file, err)
	}
	res.File = outcome

	return res, nil
}
