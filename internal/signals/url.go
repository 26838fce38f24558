package signals

import (
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`https?://([a-zA-Z0-9.-]+\.[a-z]{2,})(/[^\s]*)?`)

// Domains never resolved as a sponsor destination: social platforms, app
// stores, shorteners and generic marketplaces.
var excludedSponsorDomains = []string{
	"youtube.com", "youtu.be",
	"instagram.com", "twitter.com", "tiktok.com",
	"facebook.com", "linkedin.com",
	"patreon.com", "discord.gg",
	"apps.apple.com", "play.google.com",
	"bit.ly", "tinyurl.com", "goo.gl",
	"amazon.com", "amzn.to",
}

func isExcludedDomain(domain string) bool {
	d := strings.ToLower(domain)
	for _, ex := range excludedSponsorDomains {
		if strings.Contains(d, ex) {
			return true
		}
	}
	return false
}

// ResolveSponsorURL picks the sponsor URL from a context window around a
// brand mention. With several candidates it takes the one whose offset is
// closest to the brand name; excluded domains never resolve.
func ResolveSponsorURL(window, brand string) string {
	matches := urlPattern.FindAllStringSubmatchIndex(window, -1)

	type candidate struct {
		url    string
		offset int
	}
	var candidates []candidate
	for _, m := range matches {
		full := window[m[0]:m[1]]
		domain := window[m[2]:m[3]]
		if isExcludedDomain(domain) {
			continue
		}
		candidates = append(candidates, candidate{url: full, offset: m[0]})
	}

	if len(candidates) == 0 {
		return ""
	}
	if len(candidates) == 1 {
		return candidates[0].url
	}

	brandIdx := strings.Index(strings.ToLower(window), strings.ToLower(brand))
	if brandIdx < 0 {
		return candidates[0].url
	}

	best := candidates[0]
	bestDist := abs(best.offset - brandIdx)
	for _, c := range candidates[1:] {
		if d := abs(c.offset - brandIdx); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best.url
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
