// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

// Package fsutil provides crash-safe file replacement for the artifact
// pointer and report snapshots.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic replaces path with data. The data is written to a
// temporary file in the same directory, synced, and renamed over path, so a
// concurrent reader sees either the old or the new content in full.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmpName, err := writeTemp(path, data, perm)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // best effort cleanup on failure
		return fmt.Errorf("rename into place: %w", err)
	}
	return SyncDir(filepath.Dir(path))
}

// WriteFileExclusive creates path with data, failing with an error that
// matches os.ErrExist when path already exists. The content appears in
// full or not at all; an existing file is never touched.
func WriteFileExclusive(path string, data []byte, perm os.FileMode) error {
	tmpName, err := writeTemp(path, data, perm)
	if err != nil {
		return err
	}
	defer os.Remove(tmpName) //nolint:errcheck // the hard link keeps the data

	if err := os.Link(tmpName, path); err != nil {
		return fmt.Errorf("link into place: %w", err)
	}
	return SyncDir(filepath.Dir(path))
}

// writeTemp writes data to a synced temporary file next to path.
func writeTemp(path string, data []byte, perm os.FileMode) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpName) //nolint:errcheck // best effort cleanup on failure
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec // best effort cleanup on error
		cleanup()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck,gosec // best effort cleanup on error
		cleanup()
		return "", fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	return tmpName, nil
}

// SyncDir flushes directory metadata so a completed rename survives a crash.
// Platforms that cannot sync directories are ignored.
func SyncDir(dir string) error {
	d, err := os.Open(dir) //nolint:gosec // dir is a configured storage directory
	if err != nil {
		return fmt.Errorf("open directory: %w", err)
	}
	defer d.Close() //nolint:errcheck // read-only handle
	_ = d.Sync()    //nolint:errcheck // directory fsync is unsupported on some filesystems
	return nil
}
