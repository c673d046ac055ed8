package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medhive-backend/internal/domain"

	goredis "github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "inquiry:req:"

	statePending = "pending"
	stateDone    = "done"
)

// DedupStore claims request keys with SET NX so every replica sees them.
type DedupStore struct {
	client goredis.UniversalClient
}

func NewDedupStore(client goredis.UniversalClient) *DedupStore {
	return &DedupStore{client: client}
}

func (s *DedupStore) Claim(ctx context.Context, key string, ttl time.Duration) (domain.ClaimStatus, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+key, statePending, ttl).Result()
	if err != nil {
		return domain.ClaimPending, fmt.Errorf("redis dedup claim: %w", err)
	}
	if ok {
		return domain.ClaimAcquired, nil
	}
	return s.status(ctx, key)
}

func (s *DedupStore) status(ctx context.Context, key string) (domain.ClaimStatus, error) {
	state, err := s.client.Get(ctx, keyPrefix+key).Result()
	switch {
	case errors.Is(err, goredis.Nil):
		// Released or expired between SETNX and GET; the caller can retry
		return domain.ClaimPending, nil
	case err != nil:
		return domain.ClaimPending, fmt.Errorf("redis dedup status: %w", err)
	case state == stateDone:
		return domain.ClaimCompleted, nil
	default:
		return domain.ClaimPending, nil
	}
}

func (s *DedupStore) Complete(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Set(ctx, keyPrefix+key, stateDone, ttl).Err(); err != nil {
		return fmt.Errorf("redis dedup complete: %w", err)
	}
	return nil
}

func (s *DedupStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis dedup release: %w", err)
	}
	return nil
}
