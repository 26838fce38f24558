// Package store persists cache entries and rate-limit events in Postgres.
package store

import (
	"context"
	"time"

	"github.com/scoutlabs/brandscout/internal/models"
)

// CacheStore holds completed discovery results keyed by platform+handle.
// Staleness is the caller's concern: Get returns whatever is stored and the
// gateway compares CreatedAt against the TTL. Stale rows are overwritten on
// the next successful run, never deleted.
type CacheStore interface {
	// Get returns nil with no error when the key has never been written.
	Get(ctx context.Context, key string) (*models.CacheEntry, error)

	// Upsert inserts or fully replaces the entry for its key, resetting
	// CreatedAt to the given entry's timestamp.
	Upsert(ctx context.Context, entry models.CacheEntry) error

	// ListExpiring returns entries whose CreatedAt falls before the cutoff,
	// oldest first, up to limit. Used by the scheduled refresher.
	ListExpiring(ctx context.Context, before time.Time, limit int) ([]models.CacheEntry, error)
}

// RateLimitStore records discovery requests per client for sliding-window
// rate limiting.
type RateLimitStore interface {
	CountSince(ctx context.Context, clientID string, since time.Time) (int, error)
	Record(ctx context.Context, clientID string, at time.Time) error
}
