package session

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	conv      Conversation
	expiresAt time.Time
}

// MemoryStore keeps conversations in process memory. Entries idle for longer
// than the TTL are treated as absent and removed by Sweep.
type MemoryStore struct {
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	store map[int64]entry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:   ttl,
		now:   time.Now,
		store: make(map[int64]entry),
	}
}

func (s *MemoryStore) Load(_ context.Context, userID int64) (*Conversation, error) {
	s.mu.RLock()
	e, ok := s.store[userID]
	s.mu.RUnlock()

	if !ok || !s.now().Before(e.expiresAt) {
		return New(userID), nil
	}
	return e.conv.clone(), nil
}

// Save stores a deep copy, so later mutation of c does not leak into the store.
func (s *MemoryStore) Save(_ context.Context, c *Conversation) error {
	now := s.now()
	c.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store[c.UserID] = entry{conv: *c.clone(), expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.store, userID)
	return nil
}

// Sweep evicts expired entries and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.store {
		if !now.Before(e.expiresAt) {
			delete(s.store, id)
			removed++
		}
	}
	return removed
}

// Run sweeps on every interval until ctx is cancelled.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.store)
}
