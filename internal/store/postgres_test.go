package store

import (
	"testing"

	"github.com/scoutlabs/brandscout/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCacheKey(t *testing.T) {
	tests := []struct {
		name     string
		platform models.Platform
		handle   string
		want     string
	}{
		{"lowercases handle", models.PlatformInstagram, "WhitneySimmons", "instagram:whitneysimmons"},
		{"strips at prefix", models.PlatformTikTok, "@demibagby", "tiktok:demibagby"},
		{"trims whitespace", models.PlatformYouTube, "  MKBHD ", "youtube:mkbhd"},
		{"already canonical", models.PlatformInstagram, "gymshark", "instagram:gymshark"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CacheKey(tt.platform, tt.handle))
		})
	}
}

func TestCacheKey_SameIdentitySameKey(t *testing.T) {
	a := CacheKey(models.PlatformInstagram, "@WhitneySimmons")
	b := CacheKey(models.PlatformInstagram, "whitneysimmons")
	assert.Equal(t, a, b)
}
