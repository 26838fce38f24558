// Package signals detects sponsorship indicators in creator content and
// resolves the brand behind them. Everything here is pure: no I/O, no clocks,
// deterministic output for a given input.
package signals

import (
	"regexp"
	"strings"

	"github.com/scoutlabs/brandscout/internal/models"
)

var mentionToken = regexp.MustCompile(`@([A-Za-z0-9_.]+)`)

// Phrase patterns whose capture is a brand candidate. Ordered roughly from
// most to least specific.
var sponsorCapturePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)this video was sponsored by ([^.\n#@!?]+)`),
	regexp.MustCompile(`(?i)sponsored by ([^.\n#@!?]+)`),
	regexp.MustCompile(`(?i)brought to you by ([^.\n#@!?]+)`),
	regexp.MustCompile(`(?i)thanks to ([^.\n#@!?]+?) for sponsoring`),
	regexp.MustCompile(`(?i)special thanks to ([^.\n#@!?]+)`),
	regexp.MustCompile(`(?i)partnership with ([^.\n#@!?]+)`),
	regexp.MustCompile(`(?i)thanks to ([^.\n#@!?]+)`),
}

var discountCodePattern = regexp.MustCompile(`(?i)(?:use|promo|discount) code[:\s]+([A-Za-z0-9]+)`)

// Patterns locating a brand-like token or domain near a discount code.
var codeContextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)visit ([a-z0-9-]+\.[a-z]{2,})`),
	regexp.MustCompile(`(?i)go to ([a-z0-9-]+\.[a-z]{2,})`),
	regexp.MustCompile(`(?i)check out ([a-z0-9-]+\.[a-z]{2,})`),
	regexp.MustCompile(`(?i)([a-z0-9-]+\.(?:com|co|io|net|org|shop))`),
	regexp.MustCompile(`(?i)get ([a-z][a-z ]+?) at `),
}

// codeWindow bounds how far around a discount code the brand/URL search goes.
const codeWindow = 150

// Detect scans one content item's text, hashtags and platform-supplied tagged
// accounts for sponsorship signals. Brand resolution for a flagged item is a
// precedence chain: the first @mention in the text, then the first tagged
// account, then a sponsor phrase capture. A flagged item whose brand cannot
// be resolved yields a single signal with an empty Brand; callers drop those
// rather than treating them as errors.
func Detect(text string, hashtags, taggedAccounts []string, rs Ruleset) []models.SponsorshipSignal {
	var out []models.SponsorshipSignal
	seen := make(map[string]bool)
	add := func(s models.SponsorshipSignal) {
		key := string(s.Kind) + "|" + NormalizeBrand(s.Brand) + "|" + s.DiscountCode
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, s)
	}

	// Discount codes are themselves sponsorship evidence and carry their own
	// brand-resolution path (a bounded window around the code).
	for _, m := range discountCodePattern.FindAllStringSubmatchIndex(text, -1) {
		code := strings.ToUpper(text[m[2]:m[3]])
		start := max(0, m[0]-codeWindow)
		end := min(len(text), m[1]+codeWindow)
		window := text[start:end]

		brand, domain := brandFromCodeContext(window)
		sig := models.SponsorshipSignal{
			Kind:         models.MentionDiscountCode,
			MatchedText:  text[m[0]:m[1]],
			Brand:        brand,
			DiscountCode: code,
		}
		if brand != "" {
			sig.SponsorURL = ResolveSponsorURL(window, brand)
			if sig.SponsorURL == "" && domain != "" && !isExcludedDomain(domain) {
				sig.SponsorURL = "https://" + strings.ToLower(domain)
			}
		}
		add(sig)
	}

	// Hashtags and boilerplate phrases flag the item; a branded phrase
	// capture flags it too when the indicator lists miss.
	kind, matched, flagged := detectIndicator(text, hashtags, rs)
	capBrand, capMatched, capURL := phraseCapture(text, rs)
	if !flagged && capBrand != "" {
		kind, matched, flagged = models.MentionSponsorPhrase, capMatched, true
	}

	if flagged {
		sig := models.SponsorshipSignal{Kind: kind, MatchedText: matched}
		if m := mentionToken.FindStringSubmatch(text); m != nil {
			sig.Brand = CleanBrandName(m[1])
		}
		if sig.Brand == "" && len(taggedAccounts) > 0 {
			if b := CleanBrandName(taggedAccounts[0]); b != "" {
				sig.Brand = b
				sig.Kind = models.MentionTaggedAccount
			}
		}
		if sig.Brand == "" && capBrand != "" {
			sig.Brand = capBrand
			sig.Kind = models.MentionSponsorPhrase
			sig.MatchedText = capMatched
			sig.SponsorURL = capURL
		}
		if sig.Brand != "" || !hasBrand(out) {
			add(sig)
		}
	}

	return out
}

// phraseCapture returns the brand captured by the first matching sponsor
// phrase, the matched text, and a sponsor URL resolved near the match.
// Instagram and TikTok captions trim the capture to its leading token;
// YouTube descriptions keep multi-word brand names.
func phraseCapture(text string, rs Ruleset) (brand, matched, sponsorURL string) {
	for _, p := range sponsorCapturePatterns {
		m := p.FindStringSubmatchIndex(text)
		if m == nil {
			continue
		}
		capture := text[m[2]:m[3]]
		if !rs.KeepMultiWordCaptures {
			capture = firstWord(capture)
		}
		b := CleanBrandName(capture)
		if b == "" {
			b = CleanBrandName(firstWord(capture))
		}
		if b == "" {
			continue
		}
		start := max(0, m[0]-codeWindow)
		end := min(len(text), m[1]+codeWindow)
		return b, strings.TrimSpace(text[m[0]:m[1]]), ResolveSponsorURL(text[start:end], b)
	}
	return "", "", ""
}

func detectIndicator(text string, hashtags []string, rs Ruleset) (models.MentionKind, string, bool) {
	for _, tag := range hashtags {
		lowerTag := strings.ToLower(tag)
		for _, sponsored := range rs.SponsoredHashtags {
			if strings.Contains(lowerTag, sponsored) {
				return models.MentionHashtag, "#" + tag, true
			}
		}
	}

	lower := strings.ToLower(text)
	for _, phrase := range rs.PhraseIndicators {
		if strings.Contains(lower, phrase) {
			return models.MentionSponsorPhrase, phrase, true
		}
	}

	return "", "", false
}

func brandFromCodeContext(window string) (brand, domain string) {
	for _, p := range codeContextPatterns {
		m := p.FindStringSubmatch(window)
		if m == nil {
			continue
		}
		capture := m[1]
		if strings.Contains(capture, ".") {
			if isExcludedDomain(capture) {
				continue
			}
			domain = capture
			capture = capture[:strings.Index(capture, ".")]
		}
		if b := CleanBrandName(capture); b != "" {
			return b, domain
		}
		domain = ""
	}
	return "", ""
}

func hasBrand(sigs []models.SponsorshipSignal) bool {
	for _, s := range sigs {
		if s.Brand != "" {
			return true
		}
	}
	return false
}

func firstWord(s string) string {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
