package model

import "time"

// Category classifies a raw event for review. Values are ordered from
// generic to specific within each source; classification resolves ties
// toward the most specific value.
type Category string

const (
	CategoryGitCommit       Category = "git_commit"
	CategoryGitBranch       Category = "git_branch"
	CategoryCommandRun      Category = "command_run"
	CategoryFileCreated     Category = "file_created"
	CategoryFileModified    Category = "file_modified"
	CategoryFileDeleted     Category = "file_deleted"
	CategoryPatternDetected Category = "pattern_detected"
)

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// IsValid checks whether the category is a known value.
func (c Category) IsValid() bool {
	switch c {
	case CategoryGitCommit, CategoryGitBranch, CategoryCommandRun,
		CategoryFileCreated, CategoryFileModified, CategoryFileDeleted,
		CategoryPatternDetected:
		return true
	}
	return false
}

// DefaultCategory maps a source to the category used when the payload is
// empty or unparseable. Classification never discards an event.
func DefaultCategory(s Source) Category {
	switch s {
	case SourceVersionControl:
		return CategoryGitCommit
	case SourceFilesystem:
		return CategoryFileModified
	default:
		return CategoryCommandRun
	}
}

// ReviewState tracks where a categorized event sits in the review cycle.
type ReviewState string

const (
	ReviewPending  ReviewState = "pending"
	ReviewApproved ReviewState = "approved"
	ReviewEdited   ReviewState = "edited"
	ReviewSkipped  ReviewState = "skipped"
)

// String returns the string representation of the review state.
func (s ReviewState) String() string {
	return string(s)
}

// IsValid checks whether the review state is a known value.
func (s ReviewState) IsValid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewEdited, ReviewSkipped:
		return true
	}
	return false
}

// Importance bounds for categorized events.
const (
	MinImportance = 0
	MaxImportance = 10
)

// CategorizedEvent is the classified, scored, queryable derivative of a
// RawEvent. Exactly one exists per raw event id; review_state is the only
// field mutated after creation.
type CategorizedEvent struct {
	ID          string            `json:"id"`
	RawEventID  string            `json:"raw_event_id"`
	Source      Source            `json:"source"`
	Category    Category          `json:"category"`
	Importance  int               `json:"importance"`
	KeyFacts    map[string]string `json:"key_facts,omitempty"`
	ReviewState ReviewState       `json:"review_state"`
	ObservedAt  time.Time         `json:"observed_at"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Fact returns a key fact by name, or "" when absent.
func (e *CategorizedEvent) Fact(key string) string {
	if e.KeyFacts == nil {
		return ""
	}
	return e.KeyFacts[key]
}
