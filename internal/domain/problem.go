package domain

import (
	"math"
	"time"
)

// ProblemStatus enumerates lifecycle states for traffic problems.
type ProblemStatus string

const (
	ProblemStatusPrimeceno   ProblemStatus = "primeceno"
	ProblemStatusPrijavljeno ProblemStatus = "prijavljeno"
	ProblemStatusReseno      ProblemStatus = "reseno"
)

// StatusFilterAll is the query sentinel meaning "no status restriction".
const StatusFilterAll = "svi"

// ProblemPriority enumerates urgency levels.
type ProblemPriority string

const (
	ProblemPriorityNizak   ProblemPriority = "nizak"
	ProblemPrioritySrednji ProblemPriority = "srednji"
	ProblemPriorityVisok   ProblemPriority = "visok"
)

var statusLabels = map[ProblemStatus]string{
	ProblemStatusPrimeceno:   "Primećeno",
	ProblemStatusPrijavljeno: "Prijavljeno",
	ProblemStatusReseno:      "Rešeno",
}

var validPriorities = map[ProblemPriority]bool{
	ProblemPriorityNizak:   true,
	ProblemPrioritySrednji: true,
	ProblemPriorityVisok:   true,
}

// ProblemTypes is the closed label set offered by the client. The data layer
// treats the type as advisory free text.
var ProblemTypes = []string{
	"Rupe na putu",
	"Radovi na putu",
	"Saobraćajna nezgoda",
	"Gužva / zastoj",
	"Neispravna signalizacija",
	"Nepropisno parkiranje",
	"Ostalo",
}

// Problem is a user-submitted traffic issue anchored to map coordinates.
type Problem struct {
	ID               string
	UserID           string
	Title            string
	Description      *string
	ProblemType      string
	ProposedSolution *string
	Priority         ProblemPriority
	Status           ProblemStatus
	Latitude         float64
	Longitude        float64
	ImageURL         *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Valid reports whether the status belongs to the closed set.
func (s ProblemStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the human-readable Serbian label for the status.
func (s ProblemStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Valid reports whether the priority belongs to the closed set. Priorities
// carry no separate display label; documents print the raw value.
func (p ProblemPriority) Valid() bool {
	return validPriorities[p]
}

// ParseStatusFilter interprets the raw status query value. An empty value or
// the "svi" sentinel means all statuses (nil filter). The second return value
// is false when the value is outside the closed set.
func ParseStatusFilter(raw string) (*ProblemStatus, bool) {
	if raw == "" || raw == StatusFilterAll {
		return nil, true
	}
	status := ProblemStatus(raw)
	if !status.Valid() {
		return nil, false
	}
	return &status, true
}

// FiniteCoordinate reports whether v is usable as a latitude or longitude.
func FiniteCoordinate(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
