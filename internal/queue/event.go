// Package queue defines message payloads exchanged over the message broker.
package queue

// CaseEvent is published after a case report is created, updated or
// deleted. It carries enough information for downstream consumers (the
// audit log writer, surveillance analytics) without querying the primary
// database. The free-text address is intentionally excluded so the broker
// never carries PII beyond the submitting user's id.
type CaseEvent struct {
	Action      string  `json:"action"` // created | updated | deleted
	CaseID      uint64  `json:"case_id"`
	UserID      uint64  `json:"user_id"`
	DiseaseType string  `json:"disease_type"`
	Latitude    float64 `json:"latitude,omitempty"`
	Longitude   float64 `json:"longitude,omitempty"`
	OccurredAt  string  `json:"occurred_at"`
}
