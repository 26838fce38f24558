package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/scoutlabs/brandscout/internal/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Open connects to Postgres and verifies the connection.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS similarity_cache (
			cache_key     TEXT PRIMARY KEY,
			payload       JSONB NOT NULL,
			used_fallback BOOLEAN NOT NULL DEFAULT FALSE,
			niche         TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS discovery_requests (
			id           BIGSERIAL PRIMARY KEY,
			client_id    TEXT NOT NULL,
			requested_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_discovery_requests_client
			ON discovery_requests (client_id, requested_at)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// cachePayload is the JSONB body of a cache row. Key, fallback flag, niche
// and timestamp live in their own columns so they can be queried directly.
type cachePayload struct {
	SimilarCreators    []models.ScoredCreator    `json:"similar_creators"`
	BrandOpportunities []models.BrandOpportunity `json:"brand_opportunities"`
}

// PostgresCacheStore implements CacheStore on a similarity_cache table.
type PostgresCacheStore struct {
	db *sql.DB
}

var _ CacheStore = (*PostgresCacheStore)(nil)

func NewPostgresCacheStore(db *sql.DB) *PostgresCacheStore {
	return &PostgresCacheStore{db: db}
}

func (s *PostgresCacheStore) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	query, args, err := psql.
		Select("cache_key", "payload", "used_fallback", "niche", "created_at").
		From("similarity_cache").
		Where(sq.Eq{"cache_key": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build cache query: %w", err)
	}

	var (
		entry models.CacheEntry
		raw   []byte
	)
	row := s.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&entry.Key, &raw, &entry.UsedFallback, &entry.Niche, &entry.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}

	var payload cachePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	entry.SimilarCreators = payload.SimilarCreators
	entry.BrandOpportunities = payload.BrandOpportunities

	return &entry, nil
}

func (s *PostgresCacheStore) Upsert(ctx context.Context, entry models.CacheEntry) error {
	raw, err := json.Marshal(cachePayload{
		SimilarCreators:    entry.SimilarCreators,
		BrandOpportunities: entry.BrandOpportunities,
	})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", entry.Key, err)
	}

	query, args, err := psql.
		Insert("similarity_cache").
		Columns("cache_key", "payload", "used_fallback", "niche", "created_at").
		Values(entry.Key, raw, entry.UsedFallback, entry.Niche, entry.CreatedAt).
		Suffix(`ON CONFLICT (cache_key) DO UPDATE
			SET payload = EXCLUDED.payload,
			    used_fallback = EXCLUDED.used_fallback,
			    niche = EXCLUDED.niche,
			    created_at = EXCLUDED.created_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build cache upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert cache entry %s: %w", entry.Key, err)
	}
	return nil
}

func (s *PostgresCacheStore) ListExpiring(ctx context.Context, before time.Time, limit int) ([]models.CacheEntry, error) {
	query, args, err := psql.
		Select("cache_key", "payload", "used_fallback", "niche", "created_at").
		From("similarity_cache").
		Where(sq.Lt{"created_at": before}).
		OrderBy("created_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build expiring query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring entries: %w", err)
	}
	defer rows.Close()

	var entries []models.CacheEntry
	for rows.Next() {
		var (
			entry models.CacheEntry
			raw   []byte
		)
		if err := rows.Scan(&entry.Key, &raw, &entry.UsedFallback, &entry.Niche, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cache entry: %w", err)
		}
		var payload cachePayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("failed to decode cache entry %s: %w", entry.Key, err)
		}
		entry.SimilarCreators = payload.SimilarCreators
		entry.BrandOpportunities = payload.BrandOpportunities
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating cache entries: %w", err)
	}

	return entries, nil
}

// PostgresRateLimitStore implements RateLimitStore on a discovery_requests
// table. One row per request; old rows are left for later vacuuming rather
// than deleted inline.
type PostgresRateLimitStore struct {
	db *sql.DB
}

var _ RateLimitStore = (*PostgresRateLimitStore)(nil)

func NewPostgresRateLimitStore(db *sql.DB) *PostgresRateLimitStore {
	return &PostgresRateLimitStore{db: db}
}

func (s *PostgresRateLimitStore) CountSince(ctx context.Context, clientID string, since time.Time) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("discovery_requests").
		Where(sq.Eq{"client_id": clientID}).
		Where(sq.GtOrEq{"requested_at": since}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build rate query: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count requests for %s: %w", clientID, err)
	}
	return count, nil
}

func (s *PostgresRateLimitStore) Record(ctx context.Context, clientID string, at time.Time) error {
	query, args, err := psql.
		Insert("discovery_requests").
		Columns("client_id", "requested_at").
		Values(clientID, at).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build rate insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record request for %s: %w", clientID, err)
	}
	return nil
}

// CacheKey builds the canonical cache identity for a discovery request.
func CacheKey(platform models.Platform, handle string) string {
	return string(platform) + ":" + normalizeHandle(handle)
}

func normalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}
