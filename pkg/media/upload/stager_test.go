package upload

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/dmarchetti/vetrina/pkg/media"
	"github.com/dmarchetti/vetrina/pkg/media/store/memory"
)

func TestStageAndCommit(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	objects := memory.New()
	stager := New(dir, 0, objects)

	staged, err := stager.Stage(ctx, strings.NewReader("image bytes"))
	if err != nil {
		t.Fatalf("stage failed: %v", err)
	}
	if staged.Size != int64(len("image bytes")) {
		t.Errorf("expected size %d, got %d", len("image bytes"), staged.Size)
	}
	if _, err := os.Stat(staged.Path); err != nil {
		t.Fatalf("staged file missing: %v", err)
	}

	key, err := stager.Commit(ctx, staged, media.PrefixProductThumbs, "p1", "photo.JPG")
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	if media.PrefixOf(key) != media.PrefixProductThumbs {
		t.Errorf("key %q not under thumbs prefix", key)
	}
	if !strings.HasSuffix(key, ".jpg") {
		t.Errorf("expected lowercased extension, got %q", key)
	}
	if !objects.Has(key) {
		t.Error("object not stored")
	}
	if _, err := os.Stat(staged.Path); !os.IsNotExist(err) {
		t.Error("staged file not removed after commit")
	}
}

func TestStageSizeLimit(t *testing.T) {
	dir := t.TempDir()
	stager := New(dir, 4, memory.New())

	_, err := stager.Stage(context.Background(), strings.NewReader("too big"))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("oversized staging file left behind: %v", entries)
	}
}

func TestCommitFailureKeepsStagedFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	objects := memory.New()
	stager := New(dir, 0, objects)

	staged, err := stager.Stage(ctx, strings.NewReader("data"))
	if err != nil {
		t.Fatalf("stage failed: %v", err)
	}

	objects.PutErr = errors.New("bucket unavailable")

	if _, err := stager.Commit(ctx, staged, media.PrefixProductGallery, "p1", "a.png"); err == nil {
		t.Fatal("expected commit to fail when the store rejects the put")
	}

	// The janitor reclaims it later.
	if _, err := os.Stat(staged.Path); err != nil {
		t.Error("staged file should survive a failed commit")
	}
}

func TestDiscard(t *testing.T) {
	dir := t.TempDir()
	stager := New(dir, 0, memory.New())

	staged, err := stager.Stage(context.Background(), strings.NewReader("data"))
	if err != nil {
		t.Fatalf("stage failed: %v", err)
	}

	stager.Discard(staged)
	if _, err := os.Stat(staged.Path); !os.IsNotExist(err) {
		t.Error("discard left the staged file behind")
	}
}
