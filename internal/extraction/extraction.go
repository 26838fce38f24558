// Package extraction fetches finalist creators' recent content and runs the
// signal detector over it, producing raw brand mentions for aggregation.
package extraction

import (
	"context"
	"unicode/utf8"

	"github.com/scoutlabs/brandscout/internal/fetch"
	"github.com/scoutlabs/brandscout/internal/models"
	"github.com/scoutlabs/brandscout/internal/signals"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const excerptLimit = 200

// Service extracts brand mentions for one platform.
type Service struct {
	fetcher     fetch.Fetcher
	ruleset     signals.Ruleset
	concurrency int
	perCreator  int
}

func NewService(fetcher fetch.Fetcher, concurrency, itemsPerCreator int) *Service {
	return &Service{
		fetcher:     fetcher,
		ruleset:     signals.RulesetFor(fetcher.Platform()),
		concurrency: concurrency,
		perCreator:  itemsPerCreator,
	}
}

// creatorResult is the per-unit outcome: mentions or a reason extraction
// failed for that creator. The merge step handles both uniformly instead of
// scattering recovery across call sites.
type creatorResult struct {
	handle   string
	mentions []models.BrandMention
	err      error
}

// Extract scans every creator's recent content, at most s.concurrency
// creators in flight at once. A single creator's failure counts as zero
// mentions for that creator and never aborts the stage. Mentions are
// concatenated in creator input order; deduplication belongs to aggregation.
func (s *Service) Extract(ctx context.Context, creators []models.ScoredCreator) []models.BrandMention {
	results := make([]creatorResult, len(creators))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, creator := range creators {
		i, creator := i, creator
		g.Go(func() error {
			mentions, err := s.creatorMentions(gctx, creator)
			results[i] = creatorResult{handle: creator.Handle, mentions: mentions, err: err}
			return nil
		})
	}
	// Workers always return nil; failures live in the per-creator results.
	_ = g.Wait()

	var all []models.BrandMention
	failed := 0
	for _, r := range results {
		if r.err != nil {
			logrus.Warnf("Extraction failed for @%s, counting zero mentions: %v", r.handle, r.err)
			failed++
			continue
		}
		all = append(all, r.mentions...)
	}

	logrus.Infof("Extraction: %d raw mentions from %d creators (%d failed)", len(all), len(creators), failed)
	return all
}

func (s *Service) creatorMentions(ctx context.Context, creator models.ScoredCreator) ([]models.BrandMention, error) {
	items, err := s.fetcher.FetchRecentContent(ctx, creator.Handle, s.perCreator)
	if err != nil {
		return nil, err
	}

	var mentions []models.BrandMention
	for _, item := range items {
		for _, sig := range signals.Detect(item.Caption, item.Hashtags, item.TaggedAccounts, s.ruleset) {
			if sig.Brand == "" {
				// Flagged but brandless: dropped, not an error.
				continue
			}
			mentions = append(mentions, models.BrandMention{
				Brand:            sig.Brand,
				ContentID:        item.ID,
				ContentURL:       item.URL,
				Excerpt:          excerpt(item.Caption),
				CreatorHandle:    creator.Handle,
				CreatorFollowers: creator.FollowerCount,
				Engagement:       item.Engagement,
				PublishedAt:      item.PublishedAt,
				Kind:             sig.Kind,
				DiscountCode:     sig.DiscountCode,
				SponsorURL:       sig.SponsorURL,
			})
		}
	}

	return mentions, nil
}

func excerpt(caption string) string {
	if len(caption) <= excerptLimit {
		return caption
	}
	// Back off to a rune boundary so the cut never splits a multi-byte
	// character.
	cut := excerptLimit
	for cut > 0 && !utf8.RuneStart(caption[cut]) {
		cut--
	}
	return caption[:cut]
}
