//go:build !unix

package corelib

import "os"

// lockFile only creates the lock file; merges are not serialised here.
func lockFile(path string) (unlock func(), err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}
	return func() { _ = f.Close() }, nil
}
