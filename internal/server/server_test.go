package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutlabs/brandscout/internal/discovery"
	"github.com/scoutlabs/brandscout/internal/extraction"
	"github.com/scoutlabs/brandscout/internal/fetch"
	"github.com/scoutlabs/brandscout/internal/models"
	"github.com/scoutlabs/brandscout/internal/pipeline"
)

type stubFetcher struct {
	profiles map[string]models.Profile
	related  []models.Profile
}

func (f *stubFetcher) Platform() models.Platform { return models.PlatformInstagram }

func (f *stubFetcher) FetchProfile(ctx context.Context, handle string) (models.Profile, error) {
	p, ok := f.profiles[handle]
	if !ok {
		return models.Profile{}, models.ErrProfileNotFound
	}
	return p, nil
}

func (f *stubFetcher) FetchRelatedProfiles(ctx context.Context, handle string, limit int) ([]models.Profile, error) {
	return f.related, nil
}

func (f *stubFetcher) FetchRecentContent(ctx context.Context, handle string, limit int) ([]models.ContentItem, error) {
	return nil, nil
}

type stubCache struct {
	entries map[string]models.CacheEntry
}

func (c *stubCache) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	entry, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (c *stubCache) Upsert(ctx context.Context, entry models.CacheEntry) error {
	c.entries[entry.Key] = entry
	return nil
}

func (c *stubCache) ListExpiring(ctx context.Context, before time.Time, limit int) ([]models.CacheEntry, error) {
	return nil, nil
}

type stubRates struct {
	count int
}

func (r *stubRates) CountSince(ctx context.Context, clientID string, since time.Time) (int, error) {
	return r.count, nil
}

func (r *stubRates) Record(ctx context.Context, clientID string, at time.Time) error { return nil }

type stubArchiver struct{}

func (stubArchiver) ArchiveRun(ctx context.Context, requestID string, result models.DiscoveryResult) error {
	return nil
}

func newTestServer(t *testing.T, cache *stubCache, rates *stubRates) *Server {
	t.Helper()

	related := make([]models.Profile, 12)
	for i := range related {
		related[i] = models.Profile{
			Platform:      models.PlatformInstagram,
			Handle:        fmt.Sprintf("creator%02d", i),
			FollowerCount: 50000,
		}
	}
	fetcher := &stubFetcher{
		profiles: map[string]models.Profile{
			"whitney": {Platform: models.PlatformInstagram, Handle: "whitney", FollowerCount: 100000},
		},
		related: related,
	}

	svc := pipeline.NewService(pipeline.Dependencies{
		Fetchers: map[models.Platform]fetch.Fetcher{models.PlatformInstagram: fetcher},
		Discoverers: map[models.Platform]*discovery.Service{
			models.PlatformInstagram: discovery.NewService(fetcher, discovery.FallbackLists{}, 10000, "fitness"),
		},
		Extractors: map[models.Platform]*extraction.Service{
			models.PlatformInstagram: extraction.NewService(fetcher, 5, 30),
		},
		Cache:    cache,
		Rates:    rates,
		Archiver: stubArchiver{},
	}, pipeline.Settings{
		FallbackScore:       85,
		NeutralScore:        75,
		ScoringBatchSize:    10,
		MinDistinctCreators: 2,
		CacheTTL:            7 * 24 * time.Hour,
		RateLimit:           10,
		RateWindow:          time.Hour,
		DefaultNiche:        "fitness",
	})

	return New(svc)
}

func discoverBody(t *testing.T, platform, handle string) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]string{"platform": platform, "handle": handle, "niche": "fitness"})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestHandleDiscover_OK(t *testing.T) {
	srv := newTestServer(t, &stubCache{entries: map[string]models.CacheEntry{}}, &stubRates{})

	req := httptest.NewRequest("POST", "/api/discover", discoverBody(t, "Instagram", "whitney"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result models.DiscoveryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Len(t, result.SimilarCreators, 12)
	assert.False(t, result.Cached)
}

func TestHandleDiscover_BadRequests(t *testing.T) {
	srv := newTestServer(t, &stubCache{entries: map[string]models.CacheEntry{}}, &stubRates{})

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{not json"},
		{"unknown platform", `{"platform":"myspace","handle":"whitney"}`},
		{"missing handle", `{"platform":"instagram","handle":" "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/discover", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleDiscover_NotFound(t *testing.T) {
	srv := newTestServer(t, &stubCache{entries: map[string]models.CacheEntry{}}, &stubRates{})

	req := httptest.NewRequest("POST", "/api/discover", discoverBody(t, "instagram", "ghost"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDiscover_RateLimited(t *testing.T) {
	srv := newTestServer(t, &stubCache{entries: map[string]models.CacheEntry{}}, &stubRates{count: 10})

	req := httptest.NewRequest("POST", "/api/discover", discoverBody(t, "instagram", "whitney"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHandleCachePeek(t *testing.T) {
	cache := &stubCache{entries: map[string]models.CacheEntry{
		"instagram:whitney": {
			Key:             "instagram:whitney",
			SimilarCreators: []models.ScoredCreator{{SimilarityScore: 85}},
			CreatedAt:       time.Now().Add(-time.Hour),
		},
	}}
	srv := newTestServer(t, cache, &stubRates{})

	req := httptest.NewRequest("GET", "/api/discover/instagram/whitney", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result models.DiscoveryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Cached)

	// Unknown handle yields 404 without running anything.
	req = httptest.NewRequest("GET", "/api/discover/instagram/ghost", nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, &stubCache{entries: map[string]models.CacheEntry{}}, &stubRates{})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "total_requests")
}

func TestClientID(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "203.0.113.7:52110"
	assert.Equal(t, "203.0.113.7", clientID(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.4, 203.0.113.7")
	assert.Equal(t, "198.51.100.4", clientID(req))
}
