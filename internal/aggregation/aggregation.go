// Package aggregation rolls raw brand mentions up into ranked brand
// opportunities. Pure computation: callers supply the clock.
package aggregation

import (
	"sort"
	"time"

	"github.com/scoutlabs/brandscout/internal/models"
	"github.com/scoutlabs/brandscout/internal/signals"
)

// RankBy selects the ordering metric for the final opportunity list.
type RankBy string

const (
	RankByEngagement   RankBy = "engagement"
	RankByMentionCount RankBy = "mention_count"
)

const (
	recentWindow      = 30 * 24 * time.Hour
	maxExamples       = 3
	defaultMaxResults = 20
)

// Options control one aggregation pass.
type Options struct {
	RankBy RankBy

	// MinDistinctCreators is the corroboration floor: brands mentioned by
	// fewer distinct creators are dropped. Zero disables the floor.
	MinDistinctCreators int

	// UsedFallback disables the corroboration floor entirely: fallback
	// candidate lists are too small to demand cross-creator agreement.
	UsedFallback bool

	// MaxResults truncates the ranked list. Zero means the default cap.
	MaxResults int

	Now time.Time
}

type brandGroup struct {
	display  string
	mentions []models.BrandMention
}

// Aggregate groups mentions by normalized brand identity, computes per-brand
// statistics, applies the corroboration floor, and returns opportunities
// ranked by the configured metric. First-seen input order breaks ties, so a
// given mention set always aggregates to the same list.
func Aggregate(mentions []models.BrandMention, opts Options) []models.BrandOpportunity {
	groups := make(map[string]*brandGroup)
	var order []string

	for _, m := range mentions {
		key := signals.NormalizeBrand(m.Brand)
		if key == "" {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &brandGroup{display: m.Brand}
			groups[key] = g
			order = append(order, key)
		}
		g.mentions = append(g.mentions, m)
	}

	floor := opts.MinDistinctCreators
	if opts.UsedFallback {
		floor = 0
	}

	var out []models.BrandOpportunity
	for _, key := range order {
		opp := summarize(groups[key], opts.Now)
		if floor > 0 && opp.DistinctCreators < floor {
			continue
		}
		out = append(out, opp)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if opts.RankBy == RankByMentionCount {
			return out[i].MentionCount > out[j].MentionCount
		}
		return out[i].TotalEngagement > out[j].TotalEngagement
	})

	limit := opts.MaxResults
	if limit <= 0 {
		limit = defaultMaxResults
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func summarize(g *brandGroup, now time.Time) models.BrandOpportunity {
	opp := models.BrandOpportunity{
		Brand:        g.display,
		MentionCount: len(g.mentions),
	}

	creators := make(map[string]int)
	seenCodes := make(map[string]bool)
	cutoff := now.Add(-recentWindow)

	for _, m := range g.mentions {
		opp.TotalEngagement += m.Engagement
		creators[m.CreatorHandle] = m.CreatorFollowers

		if !m.PublishedAt.IsZero() && m.PublishedAt.After(cutoff) {
			opp.RecentMentions++
		}
		if m.DiscountCode != "" && !seenCodes[m.DiscountCode] {
			seenCodes[m.DiscountCode] = true
			opp.DiscountCodes = append(opp.DiscountCodes, m.DiscountCode)
		}
		if opp.SponsorURL == "" && m.SponsorURL != "" {
			opp.SponsorURL = m.SponsorURL
		}
	}

	opp.DistinctCreators = len(creators)
	if len(creators) > 0 {
		total := 0
		for _, followers := range creators {
			total += followers
		}
		opp.AverageCreatorSize = total / len(creators)
	}

	opp.Examples = topExamples(g.mentions)
	return opp
}

// topExamples keeps the highest-engagement mentions as evidence, trimmed to
// the fields a client needs to show them. Stable on ties.
func topExamples(mentions []models.BrandMention) []models.MentionExample {
	ranked := make([]models.BrandMention, len(mentions))
	copy(ranked, mentions)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Engagement > ranked[j].Engagement
	})

	n := len(ranked)
	if n > maxExamples {
		n = maxExamples
	}

	examples := make([]models.MentionExample, 0, n)
	for _, m := range ranked[:n] {
		examples = append(examples, models.MentionExample{
			ContentURL:    m.ContentURL,
			Excerpt:       m.Excerpt,
			CreatorHandle: m.CreatorHandle,
			Engagement:    m.Engagement,
		})
	}
	return examples
}
