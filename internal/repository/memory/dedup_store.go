package memory

import (
	"context"
	"sync"
	"time"

	"medhive-backend/internal/domain"
)

type claim struct {
	done      bool
	expiresAt time.Time
}

// DedupStore keeps claimed request keys in process memory. Keys are only
// shared within one instance; use the redis or postgres store when running
// several replicas.
type DedupStore struct {
	mu   sync.Mutex
	keys map[string]claim
	now  func() time.Time
}

func NewDedupStore() *DedupStore {
	return &DedupStore{
		keys: make(map[string]claim),
		now:  time.Now,
	}
}

func (s *DedupStore) Claim(ctx context.Context, key string, ttl time.Duration) (domain.ClaimStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if c, ok := s.keys[key]; ok && now.Before(c.expiresAt) {
		if c.done {
			return domain.ClaimCompleted, nil
		}
		return domain.ClaimPending, nil
	}
	s.keys[key] = claim{expiresAt: now.Add(ttl)}

	// Opportunistic sweep keeps the map bounded without a background goroutine
	if len(s.keys) > 1024 {
		for k, c := range s.keys {
			if !now.Before(c.expiresAt) {
				delete(s.keys, k)
			}
		}
	}
	return domain.ClaimAcquired, nil
}

func (s *DedupStore) Complete(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	s.keys[key] = claim{done: true, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *DedupStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.keys, key)
	s.mu.Unlock()
	return nil
}
