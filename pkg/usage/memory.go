package usage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// defaultMemoryCapacity bounds the in-memory store so a long-running
// process cannot grow without limit.
const defaultMemoryCapacity = 10000

// MemoryStore is an in-memory Store. Suitable for tests and for
// deployments that do not need usage history across restarts.
type MemoryStore struct {
	mu       sync.RWMutex
	records  []*Record
	capacity int
}

// NewMemoryStore creates an in-memory store with the default capacity.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithCapacity(defaultMemoryCapacity)
}

// NewMemoryStoreWithCapacity creates an in-memory store holding at most
// capacity records; the oldest records are evicted first.
func NewMemoryStoreWithCapacity(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &MemoryStore{capacity: capacity}
}

// Record implements Store.
func (s *MemoryStore) Record(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *rec
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.Time.IsZero() {
		stored.Time = time.Now()
	}

	s.records = append(s.records, &stored)
	if len(s.records) > s.capacity {
		s.records = s.records[len(s.records)-s.capacity:]
	}
	return nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, since time.Time, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if rec.Time.Before(since) {
			continue
		}
		copied := *rec
		out = append(out, &copied)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Prune implements Store.
func (s *MemoryStore) Prune(_ context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	deleted := 0
	for _, rec := range s.records {
		if rec.Time.Before(olderThan) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	return deleted, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
