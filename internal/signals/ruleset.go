package signals

import "github.com/scoutlabs/brandscout/internal/models"

// Ruleset holds the per-platform indicator lists used by Detect. All matching
// is done against case-folded text.
type Ruleset struct {
	Platform models.Platform

	// Hashtag substrings that flag a post as sponsored when they appear in
	// any supplied hashtag.
	SponsoredHashtags []string

	// Phrase indicators that flag the caption/description as sponsored.
	PhraseIndicators []string

	// KeepMultiWordCaptures keeps the full sponsor-phrase capture as the
	// brand name instead of trimming it to the leading token. Set for
	// YouTube, where descriptions spell out names like "Blue Apron".
	KeepMultiWordCaptures bool
}

var baseHashtags = []string{
	"ad", "sponsored", "partner", "partnership", "collab", "ambassador",
}

var basePhrases = []string{
	"#ad", "#sponsored", "#partner", "paid partnership",
	"sponsored by", "thanks to @", "use code", "promo code",
	"link in bio", "ambassador",
}

var tiktokHashtags = append(append([]string{}, baseHashtags...),
	"tiktokmademebuyit", "tiktokshop", "tiktokfinds", "tiktokmademebuythis",
)

var tiktokPhrases = append(append([]string{}, basePhrases...),
	"#tiktokmademebuyit", "#tiktokshop", "shop my link",
	"gifted by", "pr package", "collab with", "discount code",
	"get it on tiktok shop", "shop link", "affiliate link",
)

var youtubePhrases = append(append([]string{}, basePhrases...),
	"brought to you by", "is sponsoring", "special thanks to",
	"this video was sponsored by",
)

// RulesetFor returns the indicator lists for a platform. Unknown platforms
// get the base Instagram rules.
func RulesetFor(platform models.Platform) Ruleset {
	switch platform {
	case models.PlatformTikTok:
		return Ruleset{Platform: platform, SponsoredHashtags: tiktokHashtags, PhraseIndicators: tiktokPhrases}
	case models.PlatformYouTube:
		return Ruleset{Platform: platform, SponsoredHashtags: baseHashtags, PhraseIndicators: youtubePhrases, KeepMultiWordCaptures: true}
	default:
		return Ruleset{Platform: models.PlatformInstagram, SponsoredHashtags: baseHashtags, PhraseIndicators: basePhrases}
	}
}
