package pipeline

import (
	"github.com/scoutlabs/brandscout/internal/aggregation"
	"github.com/scoutlabs/brandscout/internal/models"
)

// Rules are the per-platform knobs the pipeline runs under. They encode how
// much content each platform yields per creator, which metric makes a brand
// "big" there, and whether the platform has a usable related-profiles source.
type Rules struct {
	// PostsPerCreator bounds the content fetched per finalist.
	PostsPerCreator int

	// RankBy orders the final opportunity list. Engagement works where the
	// platform exposes likes and comments; YouTube only gives view counts,
	// which dwarf everything else, so mention count ranks better there.
	RankBy aggregation.RankBy

	// MinDistinctCreators is the corroboration floor for non-fallback runs.
	// Zero disables it.
	MinDistinctCreators int

	// MaxResults caps the ranked opportunity list.
	MaxResults int

	// FallbackOnly skips the related-profiles path entirely.
	FallbackOnly bool
}

// RulesFor returns the rules for a platform. corroborationFloor is the
// configured minimum for platforms that corroborate at all.
func RulesFor(platform models.Platform, corroborationFloor int) Rules {
	switch platform {
	case models.PlatformYouTube:
		// Long-form video: fewer items per channel, and a single sponsor
		// read-out is already strong evidence, so no corroboration floor.
		return Rules{
			PostsPerCreator: 10,
			RankBy:          aggregation.RankByMentionCount,
			MaxResults:      20,
		}
	case models.PlatformTikTok:
		// No related-creator surface worth querying; curated lists only.
		return Rules{
			PostsPerCreator:     30,
			RankBy:              aggregation.RankByEngagement,
			MinDistinctCreators: corroborationFloor,
			MaxResults:          25,
			FallbackOnly:        true,
		}
	default:
		return Rules{
			PostsPerCreator:     30,
			RankBy:              aggregation.RankByEngagement,
			MinDistinctCreators: corroborationFloor,
			MaxResults:          25,
		}
	}
}
