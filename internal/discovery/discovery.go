// Package discovery produces the initial candidate set of creators for a
// seed profile: a related-profiles query when the platform supports it, a
// curated per-niche list otherwise.
package discovery

import (
	"context"
	"strings"

	"github.com/scoutlabs/brandscout/internal/fetch"
	"github.com/scoutlabs/brandscout/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	relatedRequestLimit = 100
	successThreshold    = 10 // qualifying profiles needed to trust the primary path
	primaryCap          = 30
	fallbackCap         = 20
)

// Words in a biography that mark an account as a brand rather than a creator.
var brandBioMarkers = []string{"official", "shop", "store", "buy", "®", "©", "™"}

// Result carries the candidate set and how it was produced. UsedFallback is a
// first-class outcome: downstream stages skip scoring for fallback sets.
type Result struct {
	Candidates   []models.Profile
	UsedFallback bool
}

// Service runs candidate discovery against one platform's fetcher.
type Service struct {
	fetcher      fetch.Fetcher
	lists        FallbackLists
	minFollowers int
	defaultNiche string
}

func NewService(fetcher fetch.Fetcher, lists FallbackLists, minFollowers int, defaultNiche string) *Service {
	return &Service{
		fetcher:      fetcher,
		lists:        lists,
		minFollowers: minFollowers,
		defaultNiche: defaultNiche,
	}
}

// Discover returns the candidate set for a seed. The primary path is the
// platform's related-profiles suggestion; when it errors, returns nothing, or
// yields fewer than the success threshold after filtering, the curated
// fallback list for the niche takes over. fallbackOnly short-circuits the
// primary path entirely (platforms without a related-profiles collaborator).
func (s *Service) Discover(ctx context.Context, seed models.Profile, niche string, fallbackOnly bool) (Result, error) {
	if !fallbackOnly {
		candidates, err := s.discoverRelated(ctx, seed)
		if err != nil {
			logrus.Warnf("Related-profiles discovery failed for @%s, using fallback: %v", seed.Handle, err)
		} else if len(candidates) >= successThreshold {
			if len(candidates) > primaryCap {
				candidates = candidates[:primaryCap]
			}
			logrus.Infof("Discovery: %d candidates from related profiles for @%s", len(candidates), seed.Handle)
			return Result{Candidates: candidates}, nil
		} else {
			logrus.Infof("Discovery: only %d qualifying related profiles for @%s, using fallback", len(candidates), seed.Handle)
		}
	}

	candidates, err := s.discoverFallback(ctx, niche)
	if err != nil {
		return Result{}, err
	}

	logrus.Infof("Discovery: %d fallback candidates for niche %q", len(candidates), niche)
	return Result{Candidates: candidates, UsedFallback: true}, nil
}

func (s *Service) discoverRelated(ctx context.Context, seed models.Profile) ([]models.Profile, error) {
	related, err := s.fetcher.FetchRelatedProfiles(ctx, seed.Handle, relatedRequestLimit)
	if err != nil {
		return nil, err
	}

	maxFollowers := seed.FollowerCount * 5

	// Suggestions arrive pre-ranked; filtering preserves that order.
	var qualified []models.Profile
	for _, p := range related {
		if p.FollowerCount < s.minFollowers || p.FollowerCount > maxFollowers {
			continue
		}
		if IsBrandAccount(p) {
			continue
		}
		qualified = append(qualified, p)
	}

	return qualified, nil
}

func (s *Service) discoverFallback(ctx context.Context, niche string) ([]models.Profile, error) {
	key := nicheKey(niche)
	handles := s.lists.Handles(s.fetcher.Platform(), key)
	if len(handles) == 0 {
		logrus.Debugf("No curated list for niche %q, using %q", key, s.defaultNiche)
		handles = s.lists.Handles(s.fetcher.Platform(), s.defaultNiche)
	}

	if len(handles) > fallbackCap {
		handles = handles[:fallbackCap]
	}

	var profiles []models.Profile
	for _, handle := range handles {
		profile, err := s.fetcher.FetchProfile(ctx, handle)
		if err != nil {
			logrus.Warnf("Failed to fetch fallback creator @%s: %v", handle, err)
			continue
		}
		if profile.FollowerCount < s.minFollowers {
			continue
		}
		profiles = append(profiles, profile)
	}

	return profiles, nil
}

// IsBrandAccount reports whether a profile looks like a brand rather than a
// creator, judged by its biography.
func IsBrandAccount(p models.Profile) bool {
	bio := strings.ToLower(p.Biography)
	for _, marker := range brandBioMarkers {
		if strings.Contains(bio, marker) {
			return true
		}
	}
	return false
}

// nicheKey reduces a free-text niche to its lookup key: first word,
// case-folded.
func nicheKey(niche string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(niche)))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
