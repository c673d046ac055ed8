package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medhive-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool used here.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	createRequestKeysTable = `
CREATE TABLE IF NOT EXISTS inquiry_request_keys (
    request_key TEXT PRIMARY KEY,
    status      TEXT NOT NULL DEFAULT 'pending',
    claimed_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    expires_at  TIMESTAMPTZ NOT NULL
)`
	addStatusColumn = `
ALTER TABLE inquiry_request_keys
    ADD COLUMN IF NOT EXISTS status TEXT NOT NULL DEFAULT 'pending'`

	statusDone = "done"
)

type DedupRepository struct {
	db DBTX
}

// NewDedupRepository returns a store keyed by client request IDs. Only the
// key is stored, never the inquiry itself.
func NewDedupRepository(db DBTX) *DedupRepository {
	return &DedupRepository{db: db}
}

// Migrate creates the backing table if it does not exist.
func (r *DedupRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createRequestKeysTable); err != nil {
		return fmt.Errorf("create inquiry_request_keys: %w", err)
	}
	if _, err := r.db.Exec(ctx, addStatusColumn); err != nil {
		return fmt.Errorf("migrate inquiry_request_keys.status: %w", err)
	}
	return nil
}

// Claim inserts the key as pending, or takes over a row whose claim has
// expired. A live row reports its current status.
func (r *DedupRepository) Claim(ctx context.Context, key string, ttl time.Duration) (domain.ClaimStatus, error) {
	query := `INSERT INTO inquiry_request_keys (request_key, status, claimed_at, expires_at)
              VALUES ($1, 'pending', now(), now() + make_interval(secs => $2))
              ON CONFLICT (request_key) DO UPDATE
                  SET status = 'pending', claimed_at = EXCLUDED.claimed_at, expires_at = EXCLUDED.expires_at
                  WHERE inquiry_request_keys.expires_at <= now()`
	tag, err := r.db.Exec(ctx, query, key, ttl.Seconds())
	if err != nil {
		return domain.ClaimPending, fmt.Errorf("postgres dedup claim: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return domain.ClaimAcquired, nil
	}

	var status string
	err = r.db.QueryRow(ctx, `SELECT status FROM inquiry_request_keys WHERE request_key = $1`, key).Scan(&status)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// Released between the insert and the lookup
		return domain.ClaimPending, nil
	case err != nil:
		return domain.ClaimPending, fmt.Errorf("postgres dedup status: %w", err)
	case status == statusDone:
		return domain.ClaimCompleted, nil
	default:
		return domain.ClaimPending, nil
	}
}

// Complete marks the key delivered and retains it for ttl.
func (r *DedupRepository) Complete(ctx context.Context, key string, ttl time.Duration) error {
	query := `UPDATE inquiry_request_keys
              SET status = 'done', expires_at = now() + make_interval(secs => $2)
              WHERE request_key = $1`
	if _, err := r.db.Exec(ctx, query, key, ttl.Seconds()); err != nil {
		return fmt.Errorf("postgres dedup complete: %w", err)
	}
	return nil
}

func (r *DedupRepository) Release(ctx context.Context, key string) error {
	query := `DELETE FROM inquiry_request_keys WHERE request_key = $1`
	if _, err := r.db.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("postgres dedup release: %w", err)
	}
	return nil
}

// PurgeExpired deletes stale keys and reports how many were removed.
func (r *DedupRepository) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM inquiry_request_keys WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("postgres dedup purge: %w", err)
	}
	return tag.RowsAffected(), nil
}
