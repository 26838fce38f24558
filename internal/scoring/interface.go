package scoring

import (
	"context"

	"github.com/scoutlabs/brandscout/internal/models"
)

// BatchScore is one candidate's similarity verdict from the scorer.
type BatchScore struct {
	Handle    string `json:"handle"`
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

// Scorer rates one batch of candidates against the seed creator. Any error,
// including unparseable output, makes the caller fall back to a neutral
// score for the whole batch; it never aborts the run.
type Scorer interface {
	ScoreBatch(ctx context.Context, seed models.Profile, batch []models.Profile) ([]BatchScore, error)
}

// NicheDetector classifies the seed creator's niche from their profile.
type NicheDetector interface {
	DetectNiche(ctx context.Context, profile models.Profile) (string, error)
}
