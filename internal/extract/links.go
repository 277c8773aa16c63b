package extract

import "regexp"

// urlPattern matches http(s) URLs, used to pull links out of rendered
// plain bodies for newsletter/fyi tasks (spec §4.E "Link extraction").
var urlPattern = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

// extractLinks returns URLs found in text, deduplicated while
// preserving first-seen order, adapted from the teacher's
// filter.ExtractKeywordContext dedup-preserving-order scanning idiom.
func extractLinks(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
