// Package cache provides a narrow caching interface the orchestrator can use
// for read-only/rarely-changing rows: the active content pool and
// per-learner FSRS parameter overrides. An in-memory implementation is the
// default; redis.go provides a Redis-backed one for multi-process
// deployments, grounded on the redis/go-redis/v9 usage pattern seen across
// the wider retrieval pack's agent-orchestration repos.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache is implemented by anything that can hold serialized byte values
// behind a string key with an expiry. The orchestrator marshals/unmarshals
// its own domain values; Cache itself is opaque-value storage.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Memory is an in-process Cache backed by a mutex-guarded map. It is the
// engine's default collaborator so callers never have to nil-check a cache.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// NewMemory returns an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	m.entries[key] = memoryEntry{value: value, expires: expires}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

var _ Cache = (*Memory)(nil)
