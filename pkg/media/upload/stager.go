// Package upload spools incoming media files to a local staging directory
// and commits them to object storage.
//
// Spooling first keeps slow client uploads off the storage connection and
// gives the commit a known size. Files abandoned between stage and commit
// are reclaimed by the janitor.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/dmarchetti/vetrina/internal/logger"
	"github.com/dmarchetti/vetrina/pkg/media"
	"github.com/dmarchetti/vetrina/pkg/media/store"
)

// ErrTooLarge is returned when an upload exceeds the configured size limit.
var ErrTooLarge = errors.New("upload exceeds maximum size")

// Staged describes a file spooled to the staging directory, ready to be
// committed or discarded.
type Staged struct {
	Path string
	Size int64
}

// Stager spools uploads to a staging directory and commits them to the
// object store under managed media keys.
type Stager struct {
	dir     string
	maxSize int64
	objects store.ObjectStore
}

// New creates a stager writing to dir. maxSize of 0 means unlimited.
func New(dir string, maxSize int64, objects store.ObjectStore) *Stager {
	return &Stager{dir: dir, maxSize: maxSize, objects: objects}
}

// Stage copies the reader into a uniquely-named staging file.
// The caller must either Commit or Discard the returned file.
func (s *Stager) Stage(ctx context.Context, r io.Reader) (*Staged, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	path := filepath.Join(s.dir, uuid.NewString()+".tmp")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}

	src := r
	if s.maxSize > 0 {
		// One extra byte so the limit itself still copies cleanly.
		src = io.LimitReader(r, s.maxSize+1)
	}

	size, err := io.Copy(f, src)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to spool upload: %w", err)
	}
	if s.maxSize > 0 && size > s.maxSize {
		_ = os.Remove(path)
		return nil, ErrTooLarge
	}

	return &Staged{Path: path, Size: size}, nil
}

// Commit pushes a staged file to object storage under a fresh media key for
// the given prefix and owner, then removes the staging file. The staging
// file survives a failed push so the janitor can reclaim it later.
func (s *Stager) Commit(ctx context.Context, staged *Staged, prefix, ownerID, originalName string) (string, error) {
	f, err := os.Open(staged.Path)
	if err != nil {
		return "", fmt.Errorf("failed to open staged file: %w", err)
	}
	defer f.Close()

	key := media.NewKey(prefix, ownerID, originalName)
	if err := s.objects.Put(ctx, key, f, staged.Size); err != nil {
		return "", fmt.Errorf("failed to store media object: %w", err)
	}

	if err := os.Remove(staged.Path); err != nil {
		// Not fatal: the object is stored; the janitor cleans the leftover.
		logger.Warn("failed to remove staged file after commit", "path", staged.Path, "error", err)
	}

	logger.Debug("media upload committed", "key", key, "size", staged.Size)
	return key, nil
}

// Discard removes a staged file that will not be committed.
func (s *Stager) Discard(staged *Staged) {
	if err := os.Remove(staged.Path); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to discard staged file", "path", staged.Path, "error", err)
	}
}
