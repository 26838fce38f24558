package signals

import (
	"regexp"
	"strings"
)

// Stop-words stripped from captured brand text before title-casing.
var brandStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "for": true, "and": true,
	"or": true, "but": true, "in": true, "on": true, "at": true,
	"to": true, "from": true,
}

// Generic or junk results that must never surface as a brand. Mostly app
// stores, research-database domains, shorteners and stray URL fragments.
var invalidBrandPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^apps?\s`),
	regexp.MustCompile(`(?i)^app store$`),
	regexp.MustCompile(`(?i)^play\s`),
	regexp.MustCompile(`(?i)^store\s`),
	regexp.MustCompile(`(?i)\sstore$`),
	regexp.MustCompile(`(?i)^shop\s`),
	regexp.MustCompile(`(?i)^shop$`),
	regexp.MustCompile(`(?i)\sapp$`),
	regexp.MustCompile(`(?i)^pmc\s`),
	regexp.MustCompile(`(?i)^pubmed`),
	regexp.MustCompile(`(?i)ncbi`),
	regexp.MustCompile(`(?i)nlm\snih`),
	regexp.MustCompile(`(?i)^get\s`),
	regexp.MustCompile(`(?i)^visit\s`),
	regexp.MustCompile(`(?i)^click\s`),
	regexp.MustCompile(`(?i)^link\s`),
	regexp.MustCompile(`(?i)^bio$`),
	regexp.MustCompile(`(?i)^com$`),
	regexp.MustCompile(`(?i)^https?$`),
	regexp.MustCompile(`(?i)^www$`),
	regexp.MustCompile(`(?i)^bit\sly$`),
	regexp.MustCompile(`(?i)^tinyurl`),
	regexp.MustCompile(`(?i)^youtube$`),
	regexp.MustCompile(`(?i)^instagram$`),
	regexp.MustCompile(`(?i)^tiktok$`),
	regexp.MustCompile(`(?i)^amazon$`),
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
var whitespace = regexp.MustCompile(`\s+`)

// CleanBrandName turns captured brand text into a presentable brand name:
// stop-words out, punctuation out, each token title-cased. Returns "" when
// the remainder is empty, too long, or matches the generic-term denylist.
func CleanBrandName(raw string) string {
	cleaned := nonAlnum.ReplaceAllString(raw, " ")

	var kept []string
	for _, tok := range strings.Fields(cleaned) {
		if brandStopWords[strings.ToLower(tok)] {
			continue
		}
		kept = append(kept, titleCase(tok))
	}

	name := strings.Join(kept, " ")
	if len(name) < 2 || len(name) > 30 {
		return ""
	}

	for _, p := range invalidBrandPatterns {
		if p.MatchString(name) {
			return ""
		}
	}

	return name
}

// NormalizeBrand produces the identity key mentions are grouped under:
// case-folded, punctuation stripped, whitespace collapsed. Idempotent.
// Known tradeoff: distinct brands with identical normalized spellings
// conflate, and suffixed variants ("Nike Golf") stay separate.
func NormalizeBrand(brand string) string {
	key := strings.ToLower(brand)
	key = nonAlnum.ReplaceAllString(key, " ")
	key = whitespace.ReplaceAllString(strings.TrimSpace(key), " ")
	return key
}

func titleCase(tok string) string {
	if tok == "" {
		return tok
	}
	return strings.ToUpper(tok[:1]) + strings.ToLower(tok[1:])
}
