// Package pipeline orchestrates a discovery request end to end: rate check,
// cache lookup, the multi-stage similarity pipeline, cache write-back and
// archival.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/scoutlabs/brandscout/internal/aggregation"
	"github.com/scoutlabs/brandscout/internal/archive"
	"github.com/scoutlabs/brandscout/internal/discovery"
	"github.com/scoutlabs/brandscout/internal/extraction"
	"github.com/scoutlabs/brandscout/internal/fetch"
	"github.com/scoutlabs/brandscout/internal/models"
	"github.com/scoutlabs/brandscout/internal/scoring"
	"github.com/scoutlabs/brandscout/internal/store"
)

// gatewayState tracks where a request is in the gateway sequence. Used for
// logging; the sequence itself is linear.
type gatewayState int

const (
	stateRateCheck gatewayState = iota
	stateCacheLookup
	stateRunPipeline
	stateWriteCache
)

func (s gatewayState) String() string {
	switch s {
	case stateRateCheck:
		return "RATE_CHECK"
	case stateCacheLookup:
		return "CACHE_LOOKUP"
	case stateRunPipeline:
		return "RUN_PIPELINE"
	case stateWriteCache:
		return "WRITE_CACHE"
	}
	return "UNKNOWN"
}

// neutralReasoning is attached to creators whose scoring batch failed or was
// skipped; the score says nothing beyond the discovery match itself.
const neutralReasoning = "Similar niche and audience"

// Request is one discovery request as it enters the gateway.
type Request struct {
	Platform models.Platform
	Handle   string
	ClientID string

	// Niche overrides automatic niche detection when set.
	Niche string
}

// Settings are the pipeline-wide tunables, shared across platforms.
type Settings struct {
	FallbackScore       int
	NeutralScore        int
	ScoringBatchSize    int
	MinDistinctCreators int
	CacheTTL            time.Duration
	RateLimit           int
	RateWindow          time.Duration
	DefaultNiche        string
}

// Service is the request gateway plus the pipeline it guards.
type Service struct {
	fetchers    map[models.Platform]fetch.Fetcher
	discoverers map[models.Platform]*discovery.Service
	extractors  map[models.Platform]*extraction.Service
	scorer      scoring.Scorer
	nicher      scoring.NicheDetector
	cache       store.CacheStore
	rates       store.RateLimitStore
	archiver    archive.Archiver
	settings    Settings
	metrics     *Metrics

	now func() time.Time
}

// Dependencies collects the collaborators a Service needs. Scorer and Nicher
// may be nil (no API key configured); the pipeline then runs on neutral
// scores and heuristic niches.
type Dependencies struct {
	Fetchers    map[models.Platform]fetch.Fetcher
	Discoverers map[models.Platform]*discovery.Service
	Extractors  map[models.Platform]*extraction.Service
	Scorer      scoring.Scorer
	Nicher      scoring.NicheDetector
	Cache       store.CacheStore
	Rates       store.RateLimitStore
	Archiver    archive.Archiver
}

func NewService(deps Dependencies, settings Settings) *Service {
	return &Service{
		fetchers:    deps.Fetchers,
		discoverers: deps.Discoverers,
		extractors:  deps.Extractors,
		scorer:      deps.Scorer,
		nicher:      deps.Nicher,
		cache:       deps.Cache,
		rates:       deps.Rates,
		archiver:    deps.Archiver,
		settings:    settings,
		metrics:     &Metrics{},
		now:         time.Now,
	}
}

// Metrics exposes the gateway counters.
func (s *Service) Metrics() *Metrics { return s.metrics }

// RunDiscovery takes a request through the gateway: rate check, cache
// lookup, full pipeline run, cache write-back. Rate-store failures fail
// open, cache read failures count as misses, and cache write failures are
// swallowed; only profile lookup and total discovery failure surface to the
// caller.
func (s *Service) RunDiscovery(ctx context.Context, req Request) (models.DiscoveryResult, error) {
	start := s.now()
	requestID := uuid.New().String()
	log := logrus.WithFields(logrus.Fields{
		"request_id": requestID,
		"platform":   req.Platform,
		"handle":     req.Handle,
	})

	if !req.Platform.Valid() {
		return models.DiscoveryResult{}, fmt.Errorf("unsupported platform %q", req.Platform)
	}
	if _, ok := s.fetchers[req.Platform]; !ok {
		return models.DiscoveryResult{}, fmt.Errorf("platform %s is not configured", req.Platform)
	}

	s.metrics.recordRequest()

	log.Debugf("Gateway state %s", stateRateCheck)
	if !s.allowRequest(ctx, req.ClientID, log) {
		s.metrics.recordRateLimit()
		return models.DiscoveryResult{}, models.ErrRateLimited
	}

	log.Debugf("Gateway state %s", stateCacheLookup)
	key := store.CacheKey(req.Platform, req.Handle)
	if entry := s.freshEntry(ctx, key, log); entry != nil {
		s.metrics.recordCacheHit()
		log.Infof("Cache hit for %s", key)
		return resultFromEntry(entry, s.now().Sub(start)), nil
	}

	log.Debugf("Gateway state %s", stateRunPipeline)
	result, err := s.runPipeline(ctx, req, log)
	if err != nil {
		s.metrics.recordError()
		return models.DiscoveryResult{}, err
	}
	result.ProcessingTimeMs = s.now().Sub(start).Milliseconds()
	s.metrics.recordRun(result.UsedFallback, s.now().Sub(start))

	log.Debugf("Gateway state %s", stateWriteCache)
	entry := models.CacheEntry{
		Key:                key,
		SimilarCreators:    result.SimilarCreators,
		BrandOpportunities: result.BrandOpportunities,
		UsedFallback:       result.UsedFallback,
		Niche:              result.Niche,
		CreatedAt:          s.now(),
	}
	if err := s.cache.Upsert(ctx, entry); err != nil {
		log.Warnf("Cache write failed, serving uncached result: %v", err)
	}

	if err := s.archiver.ArchiveRun(ctx, requestID, result); err != nil {
		log.Warnf("Archival failed: %v", err)
	}

	return result, nil
}

// Refresh re-runs the pipeline for an existing cache key, bypassing the rate
// limiter and the cache read. Used by the scheduled refresher.
func (s *Service) Refresh(ctx context.Context, key string) error {
	platform, handle, err := splitCacheKey(key)
	if err != nil {
		return err
	}

	log := logrus.WithFields(logrus.Fields{"cache_key": key, "refresh": true})
	req := Request{Platform: platform, Handle: handle}

	result, err := s.runPipeline(ctx, req, log)
	if err != nil {
		return fmt.Errorf("refresh failed for %s: %w", key, err)
	}

	entry := models.CacheEntry{
		Key:                key,
		SimilarCreators:    result.SimilarCreators,
		BrandOpportunities: result.BrandOpportunities,
		UsedFallback:       result.UsedFallback,
		Niche:              result.Niche,
		CreatedAt:          s.now(),
	}
	return s.cache.Upsert(ctx, entry)
}

// CachedResult returns the stored result for a platform+handle without
// running anything, or nil when absent or stale.
func (s *Service) CachedResult(ctx context.Context, platform models.Platform, handle string) (*models.DiscoveryResult, error) {
	entry, err := s.cache.Get(ctx, store.CacheKey(platform, handle))
	if err != nil {
		return nil, err
	}
	if entry == nil || s.now().Sub(entry.CreatedAt) >= s.settings.CacheTTL {
		return nil, nil
	}
	result := resultFromEntry(entry, 0)
	return &result, nil
}

func (s *Service) allowRequest(ctx context.Context, clientID string, log *logrus.Entry) bool {
	count, err := s.rates.CountSince(ctx, clientID, s.now().Add(-s.settings.RateWindow))
	if err != nil {
		// Fail open: a broken rate store must not take discovery down.
		log.Warnf("Rate store unavailable, allowing request: %v", err)
		return true
	}
	if count >= s.settings.RateLimit {
		log.Infof("Rate limit exceeded for client %s (%d in window)", clientID, count)
		return false
	}
	if err := s.rates.Record(ctx, clientID, s.now()); err != nil {
		log.Warnf("Failed to record request for client %s: %v", clientID, err)
	}
	return true
}

func (s *Service) freshEntry(ctx context.Context, key string, log *logrus.Entry) *models.CacheEntry {
	entry, err := s.cache.Get(ctx, key)
	if err != nil {
		// A broken cache degrades to a miss, never an error.
		log.Warnf("Cache read failed, treating as miss: %v", err)
		return nil
	}
	if entry == nil {
		return nil
	}
	if s.now().Sub(entry.CreatedAt) >= s.settings.CacheTTL {
		log.Debugf("Cache entry %s is stale (created %s)", key, entry.CreatedAt.Format(time.RFC3339))
		return nil
	}
	return entry
}

func (s *Service) runPipeline(ctx context.Context, req Request, log *logrus.Entry) (models.DiscoveryResult, error) {
	fetcher := s.fetchers[req.Platform]
	rules := RulesFor(req.Platform, s.settings.MinDistinctCreators)

	seed, err := fetcher.FetchProfile(ctx, req.Handle)
	if err != nil {
		return models.DiscoveryResult{}, err
	}
	log.Infof("Seed profile @%s: %d followers", seed.Handle, seed.FollowerCount)

	niche := req.Niche
	if niche == "" {
		niche = s.detectNiche(ctx, seed, log)
	}

	disc, err := s.discoverers[req.Platform].Discover(ctx, seed, niche, rules.FallbackOnly)
	if err != nil {
		return models.DiscoveryResult{}, fmt.Errorf("candidate discovery failed: %w", err)
	}
	if len(disc.Candidates) == 0 {
		log.Warnf("No candidates found for @%s", seed.Handle)
		return models.DiscoveryResult{UsedFallback: disc.UsedFallback, Niche: niche}, nil
	}

	scored := s.scoreCandidates(ctx, seed, disc, niche, log)

	mentions := s.extractors[req.Platform].Extract(ctx, scored)

	opportunities := aggregation.Aggregate(mentions, aggregation.Options{
		RankBy:              rules.RankBy,
		MinDistinctCreators: rules.MinDistinctCreators,
		UsedFallback:        disc.UsedFallback,
		MaxResults:          rules.MaxResults,
		Now:                 s.now(),
	})

	log.Infof("Pipeline complete: %d creators, %d brand opportunities (fallback=%t)",
		len(scored), len(opportunities), disc.UsedFallback)

	return models.DiscoveryResult{
		SimilarCreators:    scored,
		BrandOpportunities: opportunities,
		UsedFallback:       disc.UsedFallback,
		Niche:              niche,
	}, nil
}

func (s *Service) detectNiche(ctx context.Context, seed models.Profile, log *logrus.Entry) string {
	if s.nicher != nil {
		niche, err := s.nicher.DetectNiche(ctx, seed)
		if err == nil && niche != "" {
			return niche
		}
		if err != nil {
			log.Warnf("Niche detection failed, using biography heuristic: %v", err)
		}
	}
	return scoring.NicheFromBiography(seed.Biography, s.settings.DefaultNiche)
}

// scoreCandidates assigns a similarity score to every candidate. Fallback
// candidate sets are curated, so they get the fallback constant and the
// scorer is never invoked. Otherwise candidates are scored in batches; a
// failed batch degrades to the neutral score without touching other batches.
func (s *Service) scoreCandidates(ctx context.Context, seed models.Profile, disc discovery.Result, niche string, log *logrus.Entry) []models.ScoredCreator {
	scored := make([]models.ScoredCreator, 0, len(disc.Candidates))

	if disc.UsedFallback {
		for _, p := range disc.Candidates {
			scored = append(scored, models.ScoredCreator{
				Profile:         p,
				SimilarityScore: s.settings.FallbackScore,
				Reasoning:       niche + " creator",
			})
		}
		return scored
	}
	if s.scorer == nil {
		for _, p := range disc.Candidates {
			scored = append(scored, models.ScoredCreator{
				Profile:         p,
				SimilarityScore: s.settings.NeutralScore,
				Reasoning:       neutralReasoning,
			})
		}
		return scored
	}

	batchSize := s.settings.ScoringBatchSize
	for i := 0; i < len(disc.Candidates); i += batchSize {
		end := i + batchSize
		if end > len(disc.Candidates) {
			end = len(disc.Candidates)
		}
		batch := disc.Candidates[i:end]

		byHandle := make(map[string]scoring.BatchScore)
		results, err := s.scorer.ScoreBatch(ctx, seed, batch)
		if err != nil {
			log.Warnf("Scoring batch %d-%d failed, using neutral score: %v", i, end, err)
		} else {
			for _, r := range results {
				byHandle[strings.ToLower(r.Handle)] = r
			}
		}

		for _, p := range batch {
			sc := models.ScoredCreator{Profile: p, SimilarityScore: s.settings.NeutralScore, Reasoning: neutralReasoning}
			if r, ok := byHandle[strings.ToLower(p.Handle)]; ok {
				sc.SimilarityScore = r.Score
				sc.Reasoning = r.Reasoning
			}
			scored = append(scored, sc)
		}
	}

	// Stable sort keeps discovery order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].SimilarityScore > scored[j].SimilarityScore
	})
	return scored
}

func resultFromEntry(entry *models.CacheEntry, elapsed time.Duration) models.DiscoveryResult {
	return models.DiscoveryResult{
		SimilarCreators:    entry.SimilarCreators,
		BrandOpportunities: entry.BrandOpportunities,
		Cached:             true,
		UsedFallback:       entry.UsedFallback,
		Niche:              entry.Niche,
		ProcessingTimeMs:   elapsed.Milliseconds(),
	}
}

func splitCacheKey(key string) (models.Platform, string, error) {
	parts := strings.SplitN(key, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed cache key %q", key)
	}
	platform := models.Platform(parts[0])
	if !platform.Valid() {
		return "", "", fmt.Errorf("unknown platform in cache key %q", key)
	}
	return platform, parts[1], nil
}
