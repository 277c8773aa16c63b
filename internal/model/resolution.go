package model

import "time"

// ResolutionType records how a Task's lifecycle ended (or reopened).
type ResolutionType string

const (
	ResolutionCompleted ResolutionType = "completed"
	ResolutionDismissed ResolutionType = "dismissed"
	ResolutionDeferred  ResolutionType = "deferred"
	ResolutionReopened  ResolutionType = "reopened"
)

// Resolution is an append-only record of a Task lifecycle event (spec
// invariant I5: resolutions never mutate, they append).
type Resolution struct {
	TaskID           string
	ResolutionType   ResolutionType
	ResolutionNotes  string
	ResolvedAt       time.Time
	TaskAgeDays      int
}
