package scheduling

import (
	"context"
	"time"

	"github.com/shiftline/scheduler/backend/internal/domain"
)

// ShiftStore is the narrow persistence interface the engine needs: org-scoped
// range queries plus conditional writes. The repository package provides the
// Postgres implementation; tests inject in-memory fakes.
type ShiftStore interface {
	GetShift(ctx context.Context, orgID, shiftID string) (*domain.Shift, error)

	// ListCommittedShifts returns the worker's scheduled/in-progress shifts
	// whose windows fall within win padded by pad on both sides, ordered by
	// window start. A non-empty excludeShiftID is left out of the result.
	ListCommittedShifts(ctx context.Context, orgID, workerID string, win domain.Window, pad time.Duration, excludeShiftID string) ([]*domain.Shift, error)

	// ListTemplateShifts returns non-cancelled shifts generated from the given
	// template whose windows start within win.
	ListTemplateShifts(ctx context.Context, orgID, templateID string, win domain.Window) ([]*domain.Shift, error)

	// InsertShift commits a new shift. With guardOverlap set, the write is
	// conditional: it fails with domain.ErrShiftOverlap if a committed shift
	// for the same worker overlaps at commit time. Check-then-commit is
	// serialized per (organization, worker).
	InsertShift(ctx context.Context, shift *domain.Shift, guardOverlap bool) error

	// UpdateShift commits a mutation under optimistic locking
	// (domain.ErrStaleVersion on a lost version race) and, with guardOverlap
	// set, the same conditional-write rule as InsertShift.
	UpdateShift(ctx context.Context, shift *domain.Shift, guardOverlap bool) error
}

// ProfileReader exposes the external worker-profile read model.
type ProfileReader interface {
	ListProfiles(ctx context.Context, orgID string) ([]*domain.WorkerProfile, error)
	GetProfile(ctx context.Context, orgID, workerID string) (*domain.WorkerProfile, error)
}

// TemplateReader exposes roster templates; their lifecycle is owned elsewhere.
type TemplateReader interface {
	GetTemplate(ctx context.Context, orgID, templateID string) (*domain.RosterTemplate, error)
}

// WindowResolver turns a slot's local day-of-week and time-of-day into absolute
// instants against the organization's configured timezone. The expander only
// ever sees resolved instants.
type WindowResolver interface {
	ExpandSlot(ctx context.Context, orgID string, slot domain.TemplateSlot, rangeStart, rangeEnd time.Time) ([]domain.Window, error)
}
