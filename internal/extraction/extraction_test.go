package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/scoutlabs/brandscout/internal/models"
	"github.com/stretchr/testify/assert"
)

type fakeFetcher struct {
	platform models.Platform
	content  map[string][]models.ContentItem
	errs     map[string]error
}

func (f *fakeFetcher) Platform() models.Platform { return f.platform }

func (f *fakeFetcher) FetchProfile(ctx context.Context, handle string) (models.Profile, error) {
	return models.Profile{}, errors.New("not used")
}

func (f *fakeFetcher) FetchRelatedProfiles(ctx context.Context, handle string, limit int) ([]models.Profile, error) {
	return nil, errors.New("not used")
}

func (f *fakeFetcher) FetchRecentContent(ctx context.Context, handle string, limit int) ([]models.ContentItem, error) {
	if err, ok := f.errs[handle]; ok {
		return nil, err
	}
	items := f.content[handle]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func creator(handle string, followers int) models.ScoredCreator {
	return models.ScoredCreator{
		Profile: models.Profile{
			Platform:      models.PlatformInstagram,
			Handle:        handle,
			FollowerCount: followers,
		},
		SimilarityScore: 90,
	}
}

func TestExtract_ConvertsSignalsToMentions(t *testing.T) {
	published := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{
		platform: models.PlatformInstagram,
		content: map[string][]models.ContentItem{
			"alice": {
				{
					ID:          "p1",
					Caption:     "Loving my new gear #ad @gymshark",
					Hashtags:    []string{"ad"},
					URL:         "https://instagram.com/p/p1",
					PublishedAt: published,
					Engagement:  4200,
				},
			},
		},
	}

	svc := NewService(fetcher, 5, 30)
	mentions := svc.Extract(context.Background(), []models.ScoredCreator{creator("alice", 120000)})

	if assert.Len(t, mentions, 1) {
		m := mentions[0]
		assert.Equal(t, "Gymshark", m.Brand)
		assert.Equal(t, "p1", m.ContentID)
		assert.Equal(t, "https://instagram.com/p/p1", m.ContentURL)
		assert.Equal(t, "alice", m.CreatorHandle)
		assert.Equal(t, 120000, m.CreatorFollowers)
		assert.Equal(t, 4200, m.Engagement)
		assert.Equal(t, published, m.PublishedAt)
	}
}

func TestExtract_CreatorFailureCountsAsZeroMentions(t *testing.T) {
	fetcher := &fakeFetcher{
		platform: models.PlatformInstagram,
		content: map[string][]models.ContentItem{
			"bob": {
				{ID: "p2", Caption: "Morning routine sponsored by Squarespace.", Engagement: 100},
			},
		},
		errs: map[string]error{"alice": errors.New("actor timed out")},
	}

	svc := NewService(fetcher, 5, 30)
	mentions := svc.Extract(context.Background(), []models.ScoredCreator{
		creator("alice", 50000),
		creator("bob", 80000),
	})

	if assert.Len(t, mentions, 1) {
		assert.Equal(t, "Squarespace", mentions[0].Brand)
		assert.Equal(t, "bob", mentions[0].CreatorHandle)
	}
}

func TestExtract_DropsBrandlessSignals(t *testing.T) {
	fetcher := &fakeFetcher{
		platform: models.PlatformInstagram,
		content: map[string][]models.ContentItem{
			"alice": {
				// Flagged as sponsored but no resolvable brand anywhere.
				{ID: "p3", Caption: "Another day, another #ad", Hashtags: []string{"ad"}},
			},
		},
	}

	svc := NewService(fetcher, 5, 30)
	mentions := svc.Extract(context.Background(), []models.ScoredCreator{creator("alice", 50000)})
	assert.Empty(t, mentions)
}

func TestExtract_RespectsPerCreatorLimit(t *testing.T) {
	items := make([]models.ContentItem, 20)
	for i := range items {
		items[i] = models.ContentItem{ID: "p", Caption: "sponsored by Squarespace."}
	}
	fetcher := &fakeFetcher{
		platform: models.PlatformYouTube,
		content:  map[string][]models.ContentItem{"alice": items},
	}

	svc := NewService(fetcher, 5, 10)
	mentions := svc.Extract(context.Background(), []models.ScoredCreator{creator("alice", 50000)})
	assert.Len(t, mentions, 10)
}

func TestExtract_TruncatesExcerpt(t *testing.T) {
	long := strings.Repeat("a", 300) + " sponsored by Squarespace."
	fetcher := &fakeFetcher{
		platform: models.PlatformInstagram,
		content: map[string][]models.ContentItem{
			"alice": {{ID: "p4", Caption: long}},
		},
	}

	svc := NewService(fetcher, 5, 30)
	mentions := svc.Extract(context.Background(), []models.ScoredCreator{creator("alice", 50000)})

	if assert.Len(t, mentions, 1) {
		assert.Len(t, mentions[0].Excerpt, excerptLimit)
	}
}

func TestExtract_ExcerptKeepsRuneBoundary(t *testing.T) {
	// A two-byte rune straddles the excerpt limit; the cut backs off to the
	// previous boundary instead of emitting half the rune.
	long := strings.Repeat("a", excerptLimit-1) + "é sponsored by Squarespace."
	fetcher := &fakeFetcher{
		platform: models.PlatformInstagram,
		content: map[string][]models.ContentItem{
			"alice": {{ID: "p5", Caption: long}},
		},
	}

	svc := NewService(fetcher, 5, 30)
	mentions := svc.Extract(context.Background(), []models.ScoredCreator{creator("alice", 50000)})

	if assert.Len(t, mentions, 1) {
		assert.True(t, utf8.ValidString(mentions[0].Excerpt))
		assert.Len(t, mentions[0].Excerpt, excerptLimit-1)
	}
}

func TestExtract_PreservesCreatorOrder(t *testing.T) {
	fetcher := &fakeFetcher{
		platform: models.PlatformInstagram,
		content: map[string][]models.ContentItem{
			"alice": {{ID: "a1", Caption: "sponsored by Squarespace."}},
			"bob":   {{ID: "b1", Caption: "sponsored by Nobull."}},
			"carol": {{ID: "c1", Caption: "sponsored by Gymshark."}},
		},
	}

	svc := NewService(fetcher, 2, 30)
	mentions := svc.Extract(context.Background(), []models.ScoredCreator{
		creator("alice", 1), creator("bob", 2), creator("carol", 3),
	})

	if assert.Len(t, mentions, 3) {
		assert.Equal(t, []string{"alice", "bob", "carol"},
			[]string{mentions[0].CreatorHandle, mentions[1].CreatorHandle, mentions[2].CreatorHandle})
	}
}
