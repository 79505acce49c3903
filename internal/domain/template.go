package domain

import "time"

// TemplateSlot is one recurring weekly slot in a roster template. Slot identity
// within a template is its position in the Slots list.
type TemplateSlot struct {
	DayOfWeek       time.Weekday `json:"dayOfWeek"`
	StartTimeOfDay  string       `json:"startTimeOfDay"` // "15:04"
	DurationMinutes int32        `json:"durationMinutes"`
	RequiredSkills  []string     `json:"requiredSkills"`
	ClientID        *string      `json:"clientID"`
	WorkerID        *string      `json:"workerID"`
	Location        *Location    `json:"location"`
}

// RosterTemplate is an external input: its lifecycle is owned elsewhere, the
// engine only expands it into dated shifts.
type RosterTemplate struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organizationID"`
	Name           string         `json:"name"`
	Slots          []TemplateSlot `json:"slots"`
	CreatedAt      time.Time      `json:"createdAt"`
	Version        int32          `json:"-"`
}
