package statefile

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenCreatesDirectory(t *testing.T) {
	base := t.TempDir()

	f := Open(filepath.Join(base, "nested"), "instance@example", nil)
	if !f.Available() {
		t.Fatal("Available() = false, want true")
	}
	want := filepath.Join(base, "nested", "instance@example", FileName)
	if f.Path() != want {
		t.Fatalf("Path() = %q, want %q", f.Path(), want)
	}
	if info, err := os.Stat(filepath.Dir(want)); err != nil || !info.IsDir() {
		t.Fatalf("state directory not created: %v", err)
	}
}

func TestReadAllNotFound(t *testing.T) {
	f := Open(t.TempDir(), "x", nil)
	if _, err := f.ReadAll(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ReadAll() error = %v, want ErrNotFound", err)
	}
}

func TestReadAllEmpty(t *testing.T) {
	f := Open(t.TempDir(), "x", nil)
	if err := os.WriteFile(f.Path(), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := f.ReadAll(); !errors.Is(err, ErrEmpty) {
		t.Fatalf("ReadAll() error = %v, want ErrEmpty", err)
	}
}

func TestWriteAtomicReplacesContent(t *testing.T) {
	f := Open(t.TempDir(), "x", nil)

	if err := f.WriteAtomic([]byte("first, and quite a bit longer")); err != nil {
		t.Fatalf("WriteAtomic() error: %v", err)
	}
	if err := f.WriteAtomic([]byte("second")); err != nil {
		t.Fatalf("WriteAtomic() error: %v", err)
	}

	got, err := f.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("ReadAll() = %q, want %q", got, "second")
	}

	entries, err := os.ReadDir(filepath.Dir(f.Path()))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != FileName {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("directory contains %v, want only %s", names, FileName)
	}
}

func TestWriteAtomicFailureLeavesPreviousContent(t *testing.T) {
	f := Open(t.TempDir(), "x", nil)
	if err := f.WriteAtomic([]byte("kept")); err != nil {
		t.Fatalf("WriteAtomic() error: %v", err)
	}

	// A directory at the target path makes the final rename fail.
	blocked := Open(t.TempDir(), "y", nil)
	if err := os.Mkdir(blocked.Path(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(blocked.Path(), "child"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := blocked.WriteAtomic([]byte("new"))
	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("WriteAtomic() error = %v, want *WriteError", err)
	}

	got, err := f.ReadAll()
	if err != nil || string(got) != "kept" {
		t.Fatalf("ReadAll() = %q, %v; want kept", got, err)
	}
}

func TestUnavailableDirectoryWarnsOnce(t *testing.T) {
	base := t.TempDir()
	// A regular file where the directory should be cannot be turned into one.
	blocker := filepath.Join(base, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	f := Open(blocker, "instance", logger)

	if f.Available() {
		t.Fatal("Available() = true, want false")
	}
	if err := f.WriteAtomic([]byte("x")); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("WriteAtomic() error = %v, want ErrUnavailable", err)
	}
	if _, err := f.ReadAll(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("ReadAll() error = %v, want ErrUnavailable", err)
	}
	if n := strings.Count(logs.String(), "level=WARN"); n != 1 {
		t.Fatalf("logged %d warnings, want 1:\n%s", n, logs.String())
	}
}

func TestOpenWithoutBaseDirIsUnavailable(t *testing.T) {
	var logs bytes.Buffer
	f := Open("", "instance", slog.New(slog.NewTextHandler(&logs, nil)))
	if f.Available() {
		t.Fatal("Available() = true, want false")
	}
	if _, err := os.Stat("instance"); !os.IsNotExist(err) {
		t.Fatal("Open() created a relative directory")
	}
	if n := strings.Count(logs.String(), "level=WARN"); n != 1 {
		t.Fatalf("logged %d warnings, want 1", n)
	}
}
