package domain

import (
	"time"
)

type ShiftStatus string

const (
	ShiftDraft      ShiftStatus = "draft"
	ShiftScheduled  ShiftStatus = "scheduled"
	ShiftInProgress ShiftStatus = "in_progress"
	ShiftCompleted  ShiftStatus = "completed"
	ShiftCancelled  ShiftStatus = "cancelled"
)

// Committed reports whether a shift in this status occupies its worker's time.
// Only committed shifts participate in conflict detection.
func (s ShiftStatus) Committed() bool {
	return s == ShiftScheduled || s == ShiftInProgress
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Window is a half-open interval [Start, End) in absolute instants.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) Valid() bool {
	return w.Start.Before(w.End)
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Overlaps uses half-open semantics so that back-to-back windows do not collide.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Gap returns the distance between two disjoint windows, or zero if they overlap.
func (w Window) Gap(other Window) time.Duration {
	if w.Overlaps(other) {
		return 0
	}
	if w.End.After(other.Start) {
		return w.Start.Sub(other.End)
	}
	return other.Start.Sub(w.End)
}

type Shift struct {
	ID               string      `json:"id"`
	OrganizationID   string      `json:"organizationID"`
	WorkerID         *string     `json:"workerID"`
	ClientID         *string     `json:"clientID"`
	Window           Window      `json:"window"`
	RequiredSkills   []string    `json:"requiredSkills"`
	Location         *Location   `json:"location"`
	Status           ShiftStatus `json:"status"`
	SourceTemplateID *string     `json:"sourceTemplateID"`
	SourceSlot       *int32      `json:"sourceSlot"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
	Version          int32       `json:"-"`
}
