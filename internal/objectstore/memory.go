package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"
)

// MemoryStore is an in-memory ObjectStore for tests and local development.
// Presigned URLs carry an expiry timestamp that Open verifies, so TTL
// behavior can be exercised without real storage.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// FailPut, FailPresign and FailCheck force the corresponding calls
	// to report ErrUnavailable, for failure-path tests.
	FailPut     bool
	FailPresign bool
	FailCheck   bool

	now func() time.Time
}

// Ensure MemoryStore implements ObjectStore.
var _ ObjectStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
		now:     time.Now,
	}
}

// Put stores content under key.
func (m *MemoryStore) Put(ctx context.Context, key, contentType string, content io.Reader) error {
	if m.FailPut {
		return fmt.Errorf("put object %q: %w", key, ErrUnavailable)
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return fmt.Errorf("put object %q: %w: %w", key, ErrUnavailable, err)
	}

	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
	return nil
}

// PresignGet returns a fake URL with an embedded expiry.
func (m *MemoryStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if m.FailPresign {
		return "", fmt.Errorf("presign object %q: %w", key, ErrUnavailable)
	}

	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("presign object %q: %w", key, ErrUnavailable)
	}

	expires := m.now().Add(ttl).Unix()
	return fmt.Sprintf("https://storage.invalid/%s?expires=%d", url.PathEscape(key), expires), nil
}

// Delete removes the object.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Check reports the store as reachable unless FailCheck is set.
func (m *MemoryStore) Check(ctx context.Context) error {
	if m.FailCheck {
		return fmt.Errorf("check: %w", ErrUnavailable)
	}
	return nil
}

// Open resolves a URL previously issued by PresignGet, enforcing the
// embedded expiry. Returns the stored content.
func (m *MemoryStore) Open(rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	var expires int64
	if _, err := fmt.Sscanf(u.Query().Get("expires"), "%d", &expires); err != nil {
		return nil, fmt.Errorf("invalid expiry: %w", err)
	}
	if m.now().Unix() > expires {
		return nil, fmt.Errorf("url expired")
	}

	key, err := url.PathUnescape(u.Path[1:])
	if err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}

	m.mu.RLock()
	data, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("object %q not found", key)
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// SetClock overrides the store's clock, for TTL tests.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.now = now
}

// Len reports the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
