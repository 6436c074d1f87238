// Package store defines the object storage interface used by the media
// subsystem and its reconciliation engine.
package store

import (
	"context"
	"errors"
	"io"
	"time"
)

// MaxDeleteBatch is the storage provider's per-call limit for batched
// deletes. Callers must never pass more keys than this to DeleteKeys.
const MaxDeleteBatch = 1000

// Common object store errors.
var (
	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("object store is closed")

	// ErrBatchTooLarge is returned when DeleteKeys receives more than
	// MaxDeleteBatch keys.
	ErrBatchTooLarge = errors.New("delete batch exceeds provider limit")
)

// ObjectInfo describes a single stored object.
type ObjectInfo struct {
	// Key is the full object key, e.g. "products/thumbs/p1/171234-ab12.jpg".
	Key string

	// Size is the object size in bytes.
	Size int64

	// LastModified is the object's creation/modification time as reported
	// by the provider. The reconciliation engine uses it to exclude
	// freshly-uploaded objects from orphan deletion.
	LastModified time.Time
}

// ObjectStore provides access to the media bucket.
//
// Implementations must scope every operation to the keys they are given;
// the engine relies on ListByPrefix never returning keys outside the
// requested prefix.
type ObjectStore interface {
	// ListByPrefix returns every object under prefix, following the
	// provider's pagination until the listing is exhausted. A partial
	// listing must be reported as an error, never as a short result.
	ListByPrefix(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// DeleteKeys deletes the given keys in a single provider call and
	// returns the number of keys confirmed deleted. len(keys) must not
	// exceed MaxDeleteBatch.
	DeleteKeys(ctx context.Context, keys []string) (int, error)

	// Put uploads an object under key.
	Put(ctx context.Context, key string, body io.Reader, size int64) error
}
