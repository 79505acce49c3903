package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/shiftline/scheduler/backend/internal/domain"
)

// Candidate describes the window being probed. ClientID and Location feed the
// soft-conflict rule; both are optional.
type Candidate struct {
	Window   domain.Window
	ClientID *string
	Location *domain.Location
}

// Detector answers "can this worker take this window?" as a pure query against
// the shift store. It never mutates state.
type Detector struct {
	store        ShiftStore
	travelBuffer time.Duration
}

func NewDetector(store ShiftStore, travelBuffer time.Duration) *Detector {
	return &Detector{
		store:        store,
		travelBuffer: travelBuffer,
	}
}

// CheckConflict reports every committed shift of the worker that collides with
// the candidate window. Overlapping windows are hard conflicts; disjoint
// windows closer than the travel buffer, for different clients and with both
// locations known, are soft conflicts. An empty report means the window is
// free. excludeShiftID lets an update-in-place ignore the shift being modified.
func (d *Detector) CheckConflict(ctx context.Context, orgID, workerID string, cand Candidate, excludeShiftID string) (*domain.ConflictReport, error) {
	if !cand.Window.Valid() {
		return nil, fmt.Errorf("%w: window start must be before window end", ErrInvalidRequest)
	}
	if orgID == "" || workerID == "" {
		return nil, fmt.Errorf("%w: organization and worker are required", ErrInvalidRequest)
	}

	// one padded range query, classification happens in memory
	shifts, err := d.store.ListCommittedShifts(ctx, orgID, workerID, cand.Window, d.travelBuffer, excludeShiftID)
	if err != nil {
		return nil, err
	}

	report := &domain.ConflictReport{Window: cand.Window}
	for _, shift := range shifts {
		switch {
		case shift.Window.Overlaps(cand.Window):
			report.Conflicts = append(report.Conflicts, domain.Conflict{Shift: shift, Severity: domain.ConflictHard})
		case d.isSoftConflict(cand, shift):
			report.Conflicts = append(report.Conflicts, domain.Conflict{Shift: shift, Severity: domain.ConflictSoft})
		}
	}

	return report, nil
}

// isSoftConflict: the worker likely cannot travel between two different client
// sites in time. Same-client back-to-back shifts are fine, as are shifts
// without a known location.
func (d *Detector) isSoftConflict(cand Candidate, shift *domain.Shift) bool {
	gap := cand.Window.Gap(shift.Window)
	if gap >= d.travelBuffer {
		return false
	}
	if cand.Location == nil || shift.Location == nil {
		return false
	}
	if cand.ClientID != nil && shift.ClientID != nil && *cand.ClientID == *shift.ClientID {
		return false
	}
	return true
}
