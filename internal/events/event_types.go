package events

import (
	"time"

	"github.com/trafficwatch/problem-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventProblemCreated       EventType = "problem_created"
	EventProblemStatusChanged EventType = "problem_status_changed"
	EventProblemDeleted       EventType = "problem_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ProblemID string      `json:"problem_id"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ProblemCreatedPayload payload.
type ProblemCreatedPayload struct {
	Title       string                 `json:"title"`
	ProblemType string                 `json:"problem_type"`
	Priority    domain.ProblemPriority `json:"priority"`
	Status      domain.ProblemStatus   `json:"status"`
	Latitude    float64                `json:"latitude"`
	Longitude   float64                `json:"longitude"`
}

// ProblemStatusChangedPayload payload.
type ProblemStatusChangedPayload struct {
	OldStatus domain.ProblemStatus `json:"old_status"`
	NewStatus domain.ProblemStatus `json:"new_status"`
}

// ProblemDeletedPayload payload.
type ProblemDeletedPayload struct {
	Title string `json:"title"`
}
