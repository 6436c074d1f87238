// Package memory provides an in-memory media object store for tests.
package memory

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmarchetti/vetrina/pkg/media/store"
)

type object struct {
	data         []byte
	lastModified time.Time
}

// Store is an in-memory implementation of store.ObjectStore.
//
// Besides the interface it records every DeleteKeys batch and allows error
// injection, so tests can assert batch sizing and fail-closed behavior.
type Store struct {
	mu      sync.Mutex
	objects map[string]object

	// DeleteBatches records the size of every DeleteKeys call.
	DeleteBatches []int

	// ListCalls counts ListByPrefix invocations.
	ListCalls int

	// ListErr, when set, is returned by every ListByPrefix call.
	ListErr error

	// DeleteErr, when set, is returned by every DeleteKeys call.
	DeleteErr error

	// PutErr, when set, is returned by every Put call.
	PutErr error
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{objects: make(map[string]object)}
}

// PutObject seeds an object with an explicit modification time.
func (s *Store) PutObject(key string, data []byte, lastModified time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = object{data: data, lastModified: lastModified}
}

// Has reports whether key exists.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

// Keys returns all stored keys, sorted.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ListByPrefix implements store.ObjectStore.
func (s *Store) ListByPrefix(ctx context.Context, prefix string) ([]store.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ListCalls++
	if s.ListErr != nil {
		return nil, s.ListErr
	}

	var out []store.ObjectInfo
	for key, obj := range s.objects {
		if strings.HasPrefix(key, prefix+"/") {
			out = append(out, store.ObjectInfo{
				Key:          key,
				Size:         int64(len(obj.data)),
				LastModified: obj.lastModified,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// DeleteKeys implements store.ObjectStore.
func (s *Store) DeleteKeys(ctx context.Context, keys []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(keys) > store.MaxDeleteBatch {
		return 0, store.ErrBatchTooLarge
	}

	s.DeleteBatches = append(s.DeleteBatches, len(keys))
	if s.DeleteErr != nil {
		return 0, s.DeleteErr
	}

	deleted := 0
	for _, key := range keys {
		if _, ok := s.objects[key]; ok {
			delete(s.objects, key)
			deleted++
		}
	}
	return deleted, nil
}

// Put implements store.ObjectStore.
func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64) error {
	s.mu.Lock()
	putErr := s.PutErr
	s.mu.Unlock()
	if putErr != nil {
		return putErr
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = object{data: data, lastModified: time.Now()}
	return nil
}

// Ensure Store implements store.ObjectStore.
var _ store.ObjectStore = (*Store)(nil)
