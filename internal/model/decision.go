package model

import "time"

// Outcome is a reviewer's disposition on one categorized event.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeEdited   Outcome = "edited"
	OutcomeSkipped  Outcome = "skipped"
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	return string(o)
}

// IsValid checks whether the outcome is a known value.
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeApproved, OutcomeEdited, OutcomeSkipped:
		return true
	}
	return false
}

// ReviewStateFor maps a decision outcome to the review state it leaves the
// event in.
func ReviewStateFor(o Outcome) ReviewState {
	switch o {
	case OutcomeApproved:
		return ReviewApproved
	case OutcomeEdited:
		return ReviewEdited
	case OutcomeSkipped:
		return ReviewSkipped
	}
	return ReviewPending
}

// Decision is one human disposition on a categorized event. At most one
// active decision exists per event; re-deciding replaces the prior record.
type Decision struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	Outcome    Outcome   `json:"outcome"`
	EditedText string    `json:"edited_text,omitempty"`
	DecidedBy  string    `json:"decided_by,omitempty"`
	DecidedAt  time.Time `json:"decided_at"`
}

// Curates reports whether this decision should produce a knowledge entry.
func (d *Decision) Curates() bool {
	return d.Outcome == OutcomeApproved || d.Outcome == OutcomeEdited
}
