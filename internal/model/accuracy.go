package model

import "time"

// AccuracyEvent is an immutable record of a predicted category versus
// the category that was ultimately confirmed correct (spec invariant
// I3: appended, never mutated). ActualCategory equals PredictedCategory
// unless the user corrected it.
type AccuracyEvent struct {
	MessageID        string
	PredictedCategory Category
	ActualCategory   Category
	Confidence       float64
	OccurredAt       time.Time
	SessionID        string
}

// CategoryMetrics holds the precision/recall/F1 breakdown for a single
// category over a metrics window (spec §4.G).
type CategoryMetrics struct {
	Precision float64
	Recall    float64
	F1        float64
	TP        int
	FP        int
	FN        int
}

// RunningMetrics is the result of Ledger.RunningMetrics: per-category
// breakdown plus the overall accuracy across all events in the window.
type RunningMetrics struct {
	PerCategory     map[Category]CategoryMetrics
	OverallAccuracy float64
}
