package models

import (
	"errors"
	"time"
)

// Platform identifies the social platform a profile or content item belongs to.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformYouTube   Platform = "youtube"
)

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformInstagram, PlatformTikTok, PlatformYouTube:
		return true
	}
	return false
}

// Profile is a creator or brand account, normalized from whatever field names
// the upstream scraper returns. Built transiently per request; never persisted
// outside cache entries.
type Profile struct {
	Platform        Platform `json:"platform"`
	Handle          string   `json:"handle"`
	DisplayName     string   `json:"display_name"`
	Biography       string   `json:"biography"`
	FollowerCount   int      `json:"follower_count"`
	Verified        bool     `json:"verified"`
	BusinessAccount bool     `json:"business_account"`
	URL             string   `json:"url"`
}

// ContentItem is a single post or video fetched during a discovery run.
type ContentItem struct {
	ID             string    `json:"id"`
	Caption        string    `json:"caption"`
	Hashtags       []string  `json:"hashtags,omitempty"`
	TaggedAccounts []string  `json:"tagged_accounts,omitempty"`
	URL            string    `json:"url"`
	PublishedAt    time.Time `json:"published_at"`
	Engagement     int       `json:"engagement"` // likes+comments, or views
	CreatorHandle  string    `json:"creator_handle"`
}

// MentionKind classifies how a sponsorship was detected.
type MentionKind string

const (
	MentionHashtag       MentionKind = "hashtag"
	MentionSponsorPhrase MentionKind = "sponsor_phrase"
	MentionDiscountCode  MentionKind = "discount_code"
	MentionTaggedAccount MentionKind = "tagged_account"
)

// SponsorshipSignal is a detected sponsorship indicator inside one content
// item. A signal with an empty Brand is flagged-but-brandless and is dropped
// before it can become a BrandMention.
type SponsorshipSignal struct {
	Kind         MentionKind `json:"kind"`
	MatchedText  string      `json:"matched_text"`
	Brand        string      `json:"brand,omitempty"`
	DiscountCode string      `json:"discount_code,omitempty"`
	SponsorURL   string      `json:"sponsor_url,omitempty"`
}

// BrandMention is one content item's resolved reference to one brand.
type BrandMention struct {
	Brand            string      `json:"brand"`
	ContentID        string      `json:"content_id"`
	ContentURL       string      `json:"content_url"`
	Excerpt          string      `json:"excerpt,omitempty"`
	CreatorHandle    string      `json:"creator_handle"`
	CreatorFollowers int         `json:"creator_followers"`
	Engagement       int         `json:"engagement"`
	PublishedAt      time.Time   `json:"published_at"`
	Kind             MentionKind `json:"kind"`
	DiscountCode     string      `json:"discount_code,omitempty"`
	SponsorURL       string      `json:"sponsor_url,omitempty"`
}

// MentionExample is a trimmed mention kept on an opportunity as evidence.
type MentionExample struct {
	ContentURL    string `json:"content_url"`
	Excerpt       string `json:"excerpt,omitempty"`
	CreatorHandle string `json:"creator_handle"`
	Engagement    int    `json:"engagement"`
}

// BrandOpportunity is the aggregated output for one brand. Computed once per
// run and never mutated afterwards.
type BrandOpportunity struct {
	Brand              string           `json:"brand"`
	MentionCount       int              `json:"mention_count"`
	DistinctCreators   int              `json:"distinct_creators"`
	TotalEngagement    int              `json:"total_engagement"`
	AverageCreatorSize int              `json:"average_creator_size"`
	RecentMentions     int              `json:"recent_mentions"`
	DiscountCodes      []string         `json:"discount_codes,omitempty"`
	SponsorURL         string           `json:"sponsor_url,omitempty"`
	Examples           []MentionExample `json:"examples"`
}

// ScoredCreator is a candidate profile plus its similarity score (0-100). The
// score is always populated, either by the scorer or a fallback constant.
type ScoredCreator struct {
	Profile
	SimilarityScore int    `json:"similarity_score"`
	Reasoning       string `json:"reasoning"`
}

// DiscoveryResult is the full output of one pipeline run.
type DiscoveryResult struct {
	SimilarCreators    []ScoredCreator    `json:"similar_creators"`
	BrandOpportunities []BrandOpportunity `json:"brand_opportunities"`
	Cached             bool               `json:"cached"`
	UsedFallback       bool               `json:"used_fallback"`
	Niche              string             `json:"niche,omitempty"`
	ProcessingTimeMs   int64              `json:"processing_time_ms"`
}

// CacheEntry wraps a stored result with its creation time. Entries older than
// the configured TTL are treated as absent, not deleted.
type CacheEntry struct {
	Key                string             `json:"key"`
	SimilarCreators    []ScoredCreator    `json:"similar_creators"`
	BrandOpportunities []BrandOpportunity `json:"brand_opportunities"`
	UsedFallback       bool               `json:"used_fallback"`
	Niche              string             `json:"niche,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}

// Errors surfaced to the caller as distinguishable conditions. Everything
// else degrades into stage-local fallbacks.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrRateLimited     = errors.New("rate limit exceeded")
)
