package model

import "time"

// EventFilter selects categorized events for listing.
type EventFilter struct {
	Source        []Source
	Category      []Category
	ReviewState   []ReviewState
	MinImportance int
	Since         time.Time
	Limit         int
	Offset        int
}

// ImportanceBucket groups scores for statistics: low 0-3, medium 4-6,
// high 7-10.
type ImportanceBucket string

const (
	BucketLow    ImportanceBucket = "low"
	BucketMedium ImportanceBucket = "medium"
	BucketHigh   ImportanceBucket = "high"
)

// BucketFor returns the importance bucket for a score.
func BucketFor(importance int) ImportanceBucket {
	switch {
	case importance >= 7:
		return BucketHigh
	case importance >= 4:
		return BucketMedium
	default:
		return BucketLow
	}
}

// Stats summarizes stored events over a period.
type Stats struct {
	Total       int                      `json:"total"`
	ByCategory  map[Category]int         `json:"by_category"`
	ByBucket    map[ImportanceBucket]int `json:"by_bucket"`
	ByState     map[ReviewState]int      `json:"by_state"`
	PeriodStart time.Time                `json:"period_start,omitempty"`
}
