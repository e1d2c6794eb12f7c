// Package kvstore provides the store implementations behind the runtime
// settings: an in-memory store and a Redis store whose change notifications
// ride Redis pub/sub.
package kvstore

import (
	"context"
	"sync"
)

// MemoryStore is a process-local observable key-value store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	subs   map[string]map[int]func(key string)
	nextID int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
		subs:   make(map[string]map[int]func(key string)),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	fns := s.subscribers(key)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(key)
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.values, key)
	fns := s.subscribers(key)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(key)
	}
	return nil
}

func (s *MemoryStore) Subscribe(key string, fn func(key string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs[key] == nil {
		s.subs[key] = make(map[int]func(key string))
	}
	id := s.nextID
	s.nextID++
	s.subs[key][id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[key], id)
	}
}

// subscribers snapshots the callbacks so they run outside the lock.
func (s *MemoryStore) subscribers(key string) []func(key string) {
	fns := make([]func(key string), 0, len(s.subs[key]))
	for _, fn := range s.subs[key] {
		fns = append(fns, fn)
	}
	return fns
}
