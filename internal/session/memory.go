package session

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	sel       Selection
	expiresAt time.Time
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu   sync.Mutex
	data map[int64]entry
	ttl  time.Duration
	now  func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		data: make(map[int64]entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (s *MemoryStore) Put(_ context.Context, userID int64, sel Selection) error {
	now := s.now()
	if sel.CreatedAt.IsZero() {
		sel.CreatedAt = now
	}

	s.mu.Lock()
	s.data[userID] = entry{sel: sel, expiresAt: now.Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, userID int64) (Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[userID]
	if !ok {
		return Selection{}, ErrMissingSelection
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.data, userID)
		return Selection{}, ErrMissingSelection
	}
	return e.sel, nil
}

func (s *MemoryStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	delete(s.data, userID)
	s.mu.Unlock()
	return nil
}

// Sweep drops expired entries and reports how many were removed.
func (s *MemoryStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.data {
		if !now.Before(e.expiresAt) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *MemoryStore) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
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
