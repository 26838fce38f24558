package notifications

import "time"

// Digest summarizes one scheduled cache-refresh pass.
type Digest struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Period      string       `json:"period"`
	Refreshed   []KeySummary `json:"refreshed"`
	Failed      []KeyFailure `json:"failed"`
}

// KeySummary is the post-refresh state of one cache entry.
type KeySummary struct {
	Key          string   `json:"key"`
	Niche        string   `json:"niche,omitempty"`
	CreatorCount int      `json:"creator_count"`
	TopBrands    []string `json:"top_brands,omitempty"`
	UsedFallback bool     `json:"used_fallback"`
}

// KeyFailure records a cache entry that could not be refreshed.
type KeyFailure struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// NotificationInterface defines the contract for digest delivery.
type NotificationInterface interface {
	SendDigest(digest *Digest) error
}
