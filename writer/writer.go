// Package writer puts the corrected EPS on disk in one step. Data is written
// to a temporary file next to the destination and renamed over it, so the
// destination either keeps its old content or holds the complete new one.
package writer

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config controls how the output file is written.
type Config struct {
	// Perm is the mode of a newly created file. Zero means 0o644. An
	// existing destination keeps its mode.
	Perm os.FileMode
	// Sync flushes the file to stable storage before the rename.
	Sync bool
}

// WriteFile atomically replaces path with data.
func WriteFile(path string, data []byte, cfg Config) error {
	perm := cfg.Perm
	if perm == 0 {
		perm = 0o644
	}
	if st, err := os.Stat(path); err == nil {
		if !st.Mode().IsRegular() {
			return fmt.Errorf("output %s is not a regular file", path)
		}
		perm = st.Mode().Perm()
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	file, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp output file: %w", err)
	}
	tmpPath := file.Name()

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write output: %w", err)
	}

	if cfg.Sync {
		if err := file.Sync(); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to sync output: %w", err)
		}
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close output file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set output mode: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename output file: %w", err)
	}
	return nil
}
