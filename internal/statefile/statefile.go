// Package statefile owns the on-disk copy of the saved window layouts.
package statefile

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// FileName is the fixed name of the state file inside the instance directory.
const FileName = "displays-windows-state.json"

var (
	// ErrUnavailable means the state directory could not be created; persistence is off.
	ErrUnavailable = errors.New("state directory unavailable")
	// ErrNotFound means no state file has been written yet.
	ErrNotFound = errors.New("state file not found")
	// ErrEmpty means the state file exists but has no content.
	ErrEmpty = errors.New("state file is empty")
)

// WriteError reports a failed atomic replace of the state file.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write state file %q: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// File is a single state file under <baseDir>/<subdir>.
type File struct {
	path      string
	available bool
	logger    *slog.Logger
}

// Open prepares the state file location, creating directories as needed.
// If baseDir is empty or the directory cannot be created the File stays usable but every read and
// write returns ErrUnavailable; this is logged once here.
func Open(baseDir, subdir string, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	dir := filepath.Join(baseDir, subdir)
	f := &File{
		path:      filepath.Join(dir, FileName),
		available: true,
		logger:    logger,
	}
	if baseDir == "" {
		f.available = false
		logger.Warn("no state directory configured, window positions will not be saved across restarts")
		return f
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		f.available = false
		logger.Warn("could not create state directory, window positions will not be saved across restarts",
			"dir", dir,
			"error", err)
	}
	return f
}

// Path returns the state file path.
func (f *File) Path() string {
	return f.path
}

// Available reports whether the state directory exists.
func (f *File) Available() bool {
	return f.available
}

// WriteAtomic replaces the state file with data. The content is written to a
// temporary file in the same directory and renamed over the target, so readers
// only ever see the old or the new content.
func (f *File) WriteAtomic(data []byte) error {
	if !f.available {
		return ErrUnavailable
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), "."+FileName+".*.tmp")
	if err != nil {
		return &WriteError{Path: f.path, Err: err}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &WriteError{Path: f.path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &WriteError{Path: f.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &WriteError{Path: f.path, Err: err}
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return &WriteError{Path: f.path, Err: err}
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return &WriteError{Path: f.path, Err: err}
	}

	f.logger.Debug("saved state file", "path", f.path, "bytes", len(data))
	return nil
}

// ReadAll returns the full content of the state file.
func (f *File) ReadAll() ([]byte, error) {
	if !f.available {
		return nil, ErrUnavailable
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read state file %q: %w", f.path, err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	f.logger.Debug("loaded state file", "path", f.path, "bytes", len(data))
	return data, nil
}
