// Package scheduler runs the periodic cache refresh: near-expiry discovery
// results are recomputed before their TTL lapses so frequent seeds stay warm.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/scoutlabs/brandscout/internal/config"
	"github.com/scoutlabs/brandscout/internal/notifications"
	"github.com/scoutlabs/brandscout/internal/pipeline"
	"github.com/scoutlabs/brandscout/internal/store"
)

const (
	// refreshBatchLimit bounds how many entries one pass recomputes; each
	// refresh is a full pipeline run against external APIs.
	refreshBatchLimit = 25

	// refreshLead is how close to expiry an entry must be before it is
	// refreshed early.
	refreshLead = 24 * time.Hour

	refreshRunTimeout = 30 * time.Minute
)

// Service schedules refresh passes with cron.
type Service struct {
	config       *config.Config
	pipeline     *pipeline.Service
	cache        store.CacheStore
	notification notifications.NotificationInterface
	cron         *cron.Cron
}

func NewService(cfg *config.Config, pipelineService *pipeline.Service, cache store.CacheStore, notification notifications.NotificationInterface) *Service {
	return &Service{
		config:       cfg,
		pipeline:     pipelineService,
		cache:        cache,
		notification: notification,
		cron:         cron.New(cron.WithSeconds()),
	}
}

// Start begins the scheduled refresh passes.
func (s *Service) Start() error {
	var cronExpression string

	switch s.config.RefreshSchedule {
	case "daily":
		// Run daily at 6 AM UTC, ahead of business hours traffic
		cronExpression = "0 0 6 * * *"
	case "weekly":
		// Run weekly on Monday at 6 AM UTC
		cronExpression = "0 0 6 * * MON"
	default:
		cronExpression = "0 0 6 * * MON"
	}

	_, err := s.cron.AddFunc(cronExpression, func() {
		logrus.Info("Starting scheduled cache refresh")
		if err := s.RunRefresh(); err != nil {
			logrus.Errorf("Scheduled cache refresh failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with %s refresh schedule", s.config.RefreshSchedule)
	return nil
}

// Stop stops the scheduler.
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Scheduler stopped")
	}
}

// RunRefresh recomputes cache entries that will expire within the lead
// window, then sends a digest of what changed. Individual entry failures are
// collected, not fatal.
func (s *Service) RunRefresh() error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), refreshRunTimeout)
	defer cancel()

	cutoff := time.Now().Add(refreshLead - s.config.CacheTTL)
	entries, err := s.cache.ListExpiring(ctx, cutoff, refreshBatchLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		logrus.Info("Cache refresh: nothing close to expiry")
		return nil
	}

	logrus.Infof("Cache refresh: %d entries close to expiry", len(entries))

	digest := &notifications.Digest{
		GeneratedAt: time.Now(),
		Period:      s.config.RefreshSchedule,
	}

	for _, entry := range entries {
		if err := s.pipeline.Refresh(ctx, entry.Key); err != nil {
			logrus.Errorf("Failed to refresh %s: %v", entry.Key, err)
			digest.Failed = append(digest.Failed, notifications.KeyFailure{
				Key:    entry.Key,
				Reason: err.Error(),
			})
			continue
		}

		refreshed, err := s.cache.Get(ctx, entry.Key)
		if err != nil || refreshed == nil {
			logrus.Warnf("Refreshed %s but could not read it back", entry.Key)
			continue
		}

		summary := notifications.KeySummary{
			Key:          refreshed.Key,
			Niche:        refreshed.Niche,
			CreatorCount: len(refreshed.SimilarCreators),
			UsedFallback: refreshed.UsedFallback,
		}
		for i, opp := range refreshed.BrandOpportunities {
			if i >= 3 {
				break
			}
			summary.TopBrands = append(summary.TopBrands, opp.Brand)
		}
		digest.Refreshed = append(digest.Refreshed, summary)
	}

	if s.notification != nil && (len(digest.Refreshed) > 0 || len(digest.Failed) > 0) {
		if err := s.notification.SendDigest(digest); err != nil {
			logrus.Errorf("Failed to send refresh digest: %v", err)
		}
	}

	logrus.Infof("Cache refresh completed in %v: %d refreshed, %d failed",
		time.Since(start), len(digest.Refreshed), len(digest.Failed))
	return nil
}
