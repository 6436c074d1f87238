package janitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeFile creates a file with the given content and modification time.
func writeFile(t *testing.T, dir, name, content string, modTime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("failed to set mtime on %s: %v", name, err)
	}
	return path
}

func TestSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes expired files, keeps fresh ones", func(t *testing.T) {
		dir := t.TempDir()
		old := time.Now().Add(-2 * time.Hour)

		writeFile(t, dir, "abandoned-1.tmp", "12345", old)
		writeFile(t, dir, "abandoned-2.tmp", "1234567890", old)
		fresh := writeFile(t, dir, "in-flight.tmp", "x", time.Now())

		j := New(Config{Dir: dir})
		result, err := j.Sweep(ctx)
		if err != nil {
			t.Fatalf("sweep failed: %v", err)
		}

		if result.FilesDeleted != 2 {
			t.Errorf("expected 2 files deleted, got %d", result.FilesDeleted)
		}
		if result.SizeFreed != 15 {
			t.Errorf("expected 15 bytes freed, got %d", result.SizeFreed)
		}
		if _, err := os.Stat(fresh); err != nil {
			t.Error("fresh file was deleted")
		}
	})

	t.Run("skips subdirectories", func(t *testing.T) {
		dir := t.TempDir()
		old := time.Now().Add(-2 * time.Hour)

		sub := filepath.Join(dir, "chunks")
		if err := os.Mkdir(sub, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(sub, old, old); err != nil {
			t.Fatal(err)
		}
		writeFile(t, sub, "part.tmp", "x", old)

		j := New(Config{Dir: dir})
		result, err := j.Sweep(ctx)
		if err != nil {
			t.Fatalf("sweep failed: %v", err)
		}

		if result.FilesDeleted != 0 {
			t.Errorf("expected 0 files deleted, got %d", result.FilesDeleted)
		}
		if _, err := os.Stat(sub); err != nil {
			t.Error("subdirectory was removed")
		}
	})

	t.Run("missing directory is not an error", func(t *testing.T) {
		j := New(Config{Dir: filepath.Join(t.TempDir(), "does-not-exist")})
		result, err := j.Sweep(ctx)
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if result.FilesDeleted != 0 {
			t.Errorf("expected 0 files deleted, got %d", result.FilesDeleted)
		}
	})

	t.Run("custom retention", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "recent.tmp", "x", time.Now().Add(-30*time.Minute))

		j := New(Config{Dir: dir, Retention: 10 * time.Minute})
		result, err := j.Sweep(ctx)
		if err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		if result.FilesDeleted != 1 {
			t.Errorf("expected 1 file deleted, got %d", result.FilesDeleted)
		}
	})
}

func TestSweepExclusivity(t *testing.T) {
	dir := t.TempDir()
	j := New(Config{Dir: dir})

	// Simulate an active sweep by holding the guard.
	if !j.running.CompareAndSwap(false, true) {
		t.Fatal("guard unexpectedly held")
	}
	defer j.running.Store(false)

	_, err := j.Sweep(context.Background())
	if !errors.Is(err, ErrSweepInProgress) {
		t.Fatalf("expected ErrSweepInProgress, got %v", err)
	}
}
