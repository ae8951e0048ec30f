// Package filex manages the local directory where uploaded images are staged
// before they are pushed to object storage.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EnsureUploadDir resolves dir (relative paths are taken from the working
// directory, "" means the system temp dir), creates it and checks that a file
// can be staged there. It returns the absolute path.
func EnsureUploadDir(dir string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return "", fmt.Errorf("upload dir %s not writable: %w", dir, err)
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())

	return dir, nil
}

// SweepStale removes files in dir matching pattern whose modification time
// is older than maxAge. Staged uploads survive a crash mid-request; this
// reclaims them on the next start. It returns how many files were removed.
func SweepStale(dir, pattern string, maxAge time.Duration) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, path := range matches {
		fi, err := os.Lstat(path)
		if err != nil || !fi.Mode().IsRegular() || fi.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err == nil {
			removed++
		}
	}
	return removed, nil
}
