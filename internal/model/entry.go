package model

import "time"

// KnowledgeEntry is the curated markdown artifact produced from an approved
// or edited decision. Entries are queued in the store until the external
// knowledge sink acknowledges delivery; they are never silently dropped.
type KnowledgeEntry struct {
	ID               string     `json:"id"`
	SourceDecisionID string     `json:"source_decision_id"`
	Title            string     `json:"title"`
	Body             string     `json:"body"`
	Tags             []string   `json:"tags,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`
	DeliveryAttempts int        `json:"delivery_attempts"`
}

// Delivered reports whether the entry has reached the knowledge sink.
func (e *KnowledgeEntry) Delivered() bool {
	return e.DeliveredAt != nil
}
