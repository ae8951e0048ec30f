package assets

import (
	"context"
	"fmt"
	"io"
	"sync"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStore keeps objects in process memory. Used for local runs without
// object storage and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objs    map[string]memoryObject
}

// NewMemoryStore returns an empty store whose URLs start with baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "memory://assets"
	}
	return &MemoryStore{baseURL: baseURL, objs: make(map[string]memoryObject)}
}

func (s *MemoryStore) Put(_ context.Context, r io.Reader, opts PutOptions) (Asset, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Asset{}, fmt.Errorf("read upload: %w", err)
	}
	key := objectKey(opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objs[key] = memoryObject{data: b, contentType: opts.ContentType}
	return Asset{URL: joinURL(s.baseURL, key), Handle: key}, nil
}

func (s *MemoryStore) Destroy(_ context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objs[handle]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	delete(s.objs, handle)
	return nil
}

// Get returns a copy of the stored bytes and content type.
func (s *MemoryStore) Get(handle string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objs[handle]
	if !ok {
		return nil, "", false
	}
	out := make([]byte, len(obj.data))
	copy(out, obj.data)
	return out, obj.contentType, true
}

// Len is the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objs)
}
