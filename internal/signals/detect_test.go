package signals

import (
	"testing"

	"github.com/scoutlabs/brandscout/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_SponsoredHashtag(t *testing.T) {
	rs := RulesetFor(models.PlatformInstagram)

	sigs := Detect("Loving my new leggings from @gymshark!", []string{"ad", "fitness"}, nil, rs)

	require.Len(t, sigs, 1)
	assert.Equal(t, models.MentionHashtag, sigs[0].Kind)
	assert.Equal(t, "Gymshark", sigs[0].Brand)
	assert.Equal(t, "#ad", sigs[0].MatchedText)
}

func TestDetect_TaggedAccountFallback(t *testing.T) {
	rs := RulesetFor(models.PlatformInstagram)

	// No @mention in the caption, so the platform-supplied tag resolves the brand.
	sigs := Detect("Paid partnership. Obsessed with this blender.", nil, []string{"nutribullet"}, rs)

	require.Len(t, sigs, 1)
	assert.Equal(t, models.MentionTaggedAccount, sigs[0].Kind)
	assert.Equal(t, "Nutribullet", sigs[0].Brand)
}

func TestDetect_SponsorPhraseCapture(t *testing.T) {
	rs := RulesetFor(models.PlatformYouTube)

	sigs := Detect("This video was sponsored by Squarespace. Build your site today.", nil, nil, rs)

	require.NotEmpty(t, sigs)
	assert.Equal(t, models.MentionSponsorPhrase, sigs[0].Kind)
	assert.Equal(t, "Squarespace", sigs[0].Brand)
}

func TestDetect_DiscountCodeWithDomain(t *testing.T) {
	rs := RulesetFor(models.PlatformYouTube)

	sigs := Detect("Training shoes that last: visit nobull.com and use code SAVE20 for 20% off your first order.", nil, nil, rs)

	require.Len(t, sigs, 1)
	sig := sigs[0]
	assert.Equal(t, models.MentionDiscountCode, sig.Kind)
	assert.Equal(t, "Nobull", sig.Brand)
	assert.Equal(t, "SAVE20", sig.DiscountCode)
	assert.Equal(t, "https://nobull.com", sig.SponsorURL)
}

func TestDetect_DenylistYieldsNothing(t *testing.T) {
	rs := RulesetFor(models.PlatformInstagram)

	sigs := Detect("Check out the App Store for more!", nil, nil, rs)

	assert.Empty(t, sigs)
}

func TestDetect_FlaggedButBrandless(t *testing.T) {
	rs := RulesetFor(models.PlatformInstagram)

	sigs := Detect("So excited about this one! #sponsored", []string{"sponsored"}, nil, rs)

	require.Len(t, sigs, 1)
	assert.Empty(t, sigs[0].Brand, "indicator without a resolvable brand stays brandless")
}

func TestDetect_MentionPrecedesPhraseIndicator(t *testing.T) {
	rs := RulesetFor(models.PlatformInstagram)

	sigs := Detect("New drop with @alo — link in bio", nil, []string{"aloyoga"}, rs)

	require.Len(t, sigs, 1)
	assert.Equal(t, "Alo", sigs[0].Brand, "first @mention wins over the tagged account")
}

func TestDetect_MentionPrecedesPhraseCapture(t *testing.T) {
	rs := RulesetFor(models.PlatformInstagram)

	// Both an @mention and a sponsor phrase appear; the @mention wins.
	sigs := Detect("Shoutout @gymshark fam, this look was sponsored by Nike today", nil, nil, rs)

	require.Len(t, sigs, 1)
	assert.Equal(t, "Gymshark", sigs[0].Brand)
}

func TestDetect_TaggedAccountPrecedesPhraseCapture(t *testing.T) {
	rs := RulesetFor(models.PlatformTikTok)

	sigs := Detect("obsessed! this was sponsored by Nike", nil, []string{"gymshark"}, rs)

	require.Len(t, sigs, 1)
	assert.Equal(t, "Gymshark", sigs[0].Brand)
	assert.Equal(t, models.MentionTaggedAccount, sigs[0].Kind)
}

func TestDetect_CaptureTrimsToFirstWordOnInstagram(t *testing.T) {
	rs := RulesetFor(models.PlatformInstagram)

	sigs := Detect("This look was sponsored by Nike today", nil, nil, rs)

	require.Len(t, sigs, 1)
	assert.Equal(t, "Nike", sigs[0].Brand)
}

func TestDetect_CaptureKeepsFullPhraseOnYouTube(t *testing.T) {
	rs := RulesetFor(models.PlatformYouTube)

	sigs := Detect("This video was sponsored by Blue Apron", nil, nil, rs)

	require.Len(t, sigs, 1)
	assert.Equal(t, "Blue Apron", sigs[0].Brand)
}

func TestDetect_TikTokHashtags(t *testing.T) {
	rs := RulesetFor(models.PlatformTikTok)

	sigs := Detect("you need this @glowrecipe", []string{"tiktokmademebuyit"}, nil, rs)

	require.Len(t, sigs, 1)
	assert.Equal(t, "Glowrecipe", sigs[0].Brand)
}

func TestDetect_Deterministic(t *testing.T) {
	rs := RulesetFor(models.PlatformYouTube)
	text := "Sponsored by NordVPN. Go to nordvpn.com and use code CREATOR for a discount. Also sponsored by NordVPN again."

	first := Detect(text, nil, nil, rs)
	second := Detect(text, nil, nil, rs)

	assert.Equal(t, first, second)
}

func TestCleanBrandName(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"simple", "nike", "Nike"},
		{"strips stop words", "the gymshark", "Gymshark"},
		{"strips punctuation", "H&M!", "H M"},
		{"title cases tokens", "blue APRON", "Blue Apron"},
		{"rejects empty", "!!!", ""},
		{"rejects single char", "a", ""},
		{"rejects too long", "this brand name is way too long to be real", ""},
		{"rejects app store", "App Store", ""},
		{"rejects bare bio", "bio", ""},
		{"rejects bare com", "com", ""},
		{"rejects research domain", "pubmed ncbi", ""},
		{"rejects trailing store", "Madfit Store", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanBrandName(tt.raw))
		})
	}
}

func TestNormalizeBrand_Idempotent(t *testing.T) {
	inputs := []string{"Nike", "NIKE!", "Blue Apron", "h&m", "  spaced  out  ", "nobull.com"}

	for _, in := range inputs {
		once := NormalizeBrand(in)
		twice := NormalizeBrand(once)
		assert.Equal(t, once, twice, "NormalizeBrand must be idempotent for %q", in)
	}
}

func TestNormalizeBrand_FoldsSpellings(t *testing.T) {
	assert.Equal(t, NormalizeBrand("NIKE"), NormalizeBrand("nike!"))
	assert.NotEqual(t, NormalizeBrand("Nike"), NormalizeBrand("Nike Golf"))
}

func TestResolveSponsorURL(t *testing.T) {
	tests := []struct {
		name     string
		window   string
		brand    string
		expected string
	}{
		{
			name:     "single relevant url",
			window:   "shop at https://ridge.com/creator today",
			brand:    "Ridge",
			expected: "https://ridge.com/creator",
		},
		{
			name:     "excluded social domain",
			window:   "follow me https://instagram.com/someone",
			brand:    "Someone",
			expected: "",
		},
		{
			name:     "closest url wins",
			window:   "https://far.com words words words words Ridge https://ridge.com more",
			brand:    "Ridge",
			expected: "https://ridge.com",
		},
		{
			name:     "shortener excluded",
			window:   "grab it https://bit.ly/abc",
			brand:    "Brand",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveSponsorURL(tt.window, tt.brand))
		})
	}
}
