package classify

import "strings"

// scorer ranks few-shot examples by word-overlap against the current
// message, adapted from the teacher's internal/filter.Scorer (weighted
// subject/body keyword-match ratio) — here the "keywords" are the
// words of the example itself rather than a fixed configured list,
// since few-shot ranking ranks one text against another, not a text
// against a static vocabulary.
type scorer struct {
	subjectWeight float64
	bodyWeight    float64
}

func newScorer() *scorer {
	return &scorer{subjectWeight: 2.0, bodyWeight: 1.0}
}

// score returns a 0..1 relevance score for candidate (subject, body)
// against the target (subject, body), weighted toward subject overlap
// the same way the teacher's Scorer weights subject over body matches.
func (s *scorer) score(targetSubject, targetBody, candSubject, candBody string) float64 {
	targetWords := wordSet(targetSubject + " " + targetBody)
	if len(targetWords) == 0 {
		return 0
	}

	subjectScore := overlapRatio(targetWords, wordSet(candSubject))
	bodyScore := overlapRatio(targetWords, wordSet(candBody))

	totalWeight := s.subjectWeight + s.bodyWeight
	weighted := (subjectScore*s.subjectWeight + bodyScore*s.bodyWeight) / totalWeight

	if subjectScore > 0 && bodyScore > 0 {
		weighted = min(1.0, weighted*1.2)
	}
	return weighted
}

func wordSet(text string) map[string]bool {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]bool, len(words))
	for _, w := range words {
		if len(w) > 2 {
			set[w] = true
		}
	}
	return set
}

func overlapRatio(target, candidate map[string]bool) float64 {
	if len(candidate) == 0 {
		return 0
	}
	matches := 0
	for w := range candidate {
		if target[w] {
			matches++
		}
	}
	return float64(matches) / float64(len(candidate))
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
