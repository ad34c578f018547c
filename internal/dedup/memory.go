package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore keeps ids in a size-bounded LRU whose entries expire after the
// TTL. Ids evicted for size before their TTL are forgotten early.
type MemoryStore struct {
	mu  sync.Mutex
	lru *expirable.LRU[int64, struct{}]
}

// NewMemoryStore creates a store holding at most size ids for ttl each.
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		lru: expirable.NewLRU[int64, struct{}](size, nil, ttl),
	}
}

// MarkSeen implements Store.
func (s *MemoryStore) MarkSeen(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Get, unlike Contains, never reports an expired entry.
	if _, ok := s.lru.Get(id); ok {
		return false, nil
	}
	s.lru.Add(id, struct{}{})
	return true, nil
}

// Len reports how many unexpired ids are held.
func (s *MemoryStore) Len() int {
	return s.lru.Len()
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.lru.Purge()
	return nil
}
