package domain

import "time"

type RejectedSlot struct {
	SlotIndex int32           `json:"slotIndex"`
	Window    Window          `json:"window"`
	Report    *ConflictReport `json:"report"`
}

// DeploymentReport is the partial-success result of a template rollout. Rejected
// entries are first-class data, not errors: one bad slot never blocks the rest.
type DeploymentReport struct {
	TemplateID string         `json:"templateID"`
	RangeStart time.Time      `json:"rangeStart"`
	RangeEnd   time.Time      `json:"rangeEnd"`
	Created    []string       `json:"created"`
	Rejected   []RejectedSlot `json:"rejected"`
	Duplicates int            `json:"duplicates"`
}
