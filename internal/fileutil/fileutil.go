// Package fileutil holds small filesystem helpers.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrEmptyPath is returned when no destination path is given.
var ErrEmptyPath = errors.New("destination path is empty")

// WriteAtomic creates path from the bytes fill writes. Data goes to a hidden
// temp file in the same directory which is renamed over path only after fill
// and the close both succeed, so readers never see a partial file. The
// parent directory is created when missing.
func WriteAtomic(path string, mode os.FileMode, fill func(io.Writer) (int64, error)) (int64, error) {
	if path == "" {
		return 0, ErrEmptyPath
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	written, err := fill(tmp)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close temp file: %w", closeErr)
	}
	if err != nil {
		return written, err
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return written, fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return written, fmt.Errorf("move %s into place: %w", filepath.Base(path), err)
	}
	committed = true
	return written, nil
}
