// Package dedup provides the store implementations behind the dedup gate:
// an in-memory store for single-process deployments and tests, and a Redis
// store for deployments where several consumers share one gate.
package dedup

import (
	"context"
	"sync"
	"time"

	pkgdedup "github.com/ccxiaoji/autoledger/pkg/dedup"
)

type entry struct {
	expiresAt time.Time
}

// MemoryStore is a process-local dedup store with lazy TTL expiry.
type MemoryStore struct {
	mu       sync.Mutex
	keys     map[string]entry
	counters map[string]*counter
	now      func() time.Time
}

type counter struct {
	bucket int64
	count  int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		keys:     make(map[string]entry),
		counters: make(map[string]*counter),
		now:      time.Now,
	}
}

func (s *MemoryStore) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.keys[key]; ok && s.now().Before(e.expiresAt) {
		return false, nil
	}
	s.keys[key] = entry{expiresAt: s.now().Add(ttl)}
	return true, nil
}

func (s *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.keys[key]
	return ok && s.now().Before(e.expiresAt), nil
}

func (s *MemoryStore) Put(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = entry{expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) IncrementSource(_ context.Context, source string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.now().UnixMilli() / window.Milliseconds()
	c, ok := s.counters[source]
	if !ok || c.bucket != bucket {
		c = &counter{bucket: bucket}
		s.counters[source] = c
	}
	c.count++
	return c.count, nil
}

func (s *MemoryStore) Cleanup(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	now := s.now()
	for k, e := range s.keys {
		if !now.Before(e.expiresAt) {
			delete(s.keys, k)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Stats(_ context.Context) (pkgdedup.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pkgdedup.Stats{Keys: int64(len(s.keys))}, nil
}
