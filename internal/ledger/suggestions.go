package ledger

import (
	"context"
	"sort"
	"strings"

	"github.com/triagekit/emailtriage/internal/model"
)

// minSuggestionSamples is the smallest number of messages from one
// domain worth surfacing; below this a domain's rate is noise.
const minSuggestionSamples = 3

// SuggestedFilter names a sender domain with a high false-positive
// rate over the window, in the teacher's "AI-suggested filter" idiom
// (internal/tracker/learner.go suggestDomain/LearnFromFeedback).
type SuggestedFilter struct {
	Domain           string
	FalsePositives   int
	Samples          int
	FalsePositiveRate float64
}

// SenderResolver maps a message id to the sender's domain, supplied by
// the caller (the Ledger has no knowledge of message content).
type SenderResolver func(ctx context.Context, messageID string) (domain string, ok error)

// SuggestedFilters implements the SPEC_FULL read-only extension of the
// Accuracy Ledger: surface domains with a high false-positive rate so
// the Pipeline Scheduler can skip an obvious-spam conversation before
// spending an LLM call. This never overrides a classification result;
// it is strictly a pre-filter hint.
func (l *Ledger) SuggestedFilters(ctx context.Context, windowDays int, resolve SenderResolver, minRate float64) ([]SuggestedFilter, error) {
	since := l.now().AddDate(0, 0, -windowDays)
	events, err := l.store.Events(ctx, since)
	if err != nil {
		return nil, err
	}

	type tally struct {
		fp, total int
	}
	byDomain := make(map[string]*tally)

	// Count each message once, by its latest event in the window (as
	// RunningMetrics does): a corrected prediction is one false
	// positive, not a prediction plus a correction.
	latest := make(map[string]model.AccuracyEvent, len(events))
	for _, e := range events {
		prev, ok := latest[e.MessageID]
		if !ok || e.OccurredAt.After(prev.OccurredAt) {
			latest[e.MessageID] = e
		}
	}

	for _, e := range latest {
		domain, derr := resolve(ctx, e.MessageID)
		if derr != nil || domain == "" {
			continue
		}
		domain = strings.ToLower(domain)
		t, ok := byDomain[domain]
		if !ok {
			t = &tally{}
			byDomain[domain] = t
		}
		t.total++
		if e.ActualCategory != e.PredictedCategory {
			t.fp++
		}
	}

	var out []SuggestedFilter
	for domain, t := range byDomain {
		if t.total < minSuggestionSamples {
			continue
		}
		rate := float64(t.fp) / float64(t.total)
		if rate < minRate {
			continue
		}
		out = append(out, SuggestedFilter{
			Domain:            domain,
			FalsePositives:    t.fp,
			Samples:           t.total,
			FalsePositiveRate: rate,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].FalsePositiveRate > out[j].FalsePositiveRate })
	return out, nil
}
