package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shiftline/scheduler/backend/internal/domain"
)

// ScheduleOptions is the caller-facing policy hook for conflict handling.
type ScheduleOptions struct {
	// Strict rejects soft conflicts as well as hard ones.
	Strict bool
	// AllowHardOverride commits even over hard conflicts. The conflicts are
	// still reported to the caller.
	AllowHardOverride bool
}

type LifecycleConfig struct {
	MaxCommitAttempts int
	Grace             time.Duration
}

// Lifecycle owns the shift status machine and mediates every mutation of a
// shift's window or worker through the conflict detector. No other component
// writes shifts.
type Lifecycle struct {
	store       ShiftStore
	detector    *Detector
	maxAttempts int
	grace       time.Duration
	now         func() time.Time
	newID       func() string
}

func NewLifecycle(store ShiftStore, detector *Detector, cfg LifecycleConfig) *Lifecycle {
	if cfg.MaxCommitAttempts <= 0 {
		cfg.MaxCommitAttempts = 3
	}
	return &Lifecycle{
		store:       store,
		detector:    detector,
		maxAttempts: cfg.MaxCommitAttempts,
		grace:       cfg.Grace,
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
}

var legalTransitions = map[domain.ShiftStatus][]domain.ShiftStatus{
	domain.ShiftDraft:      {domain.ShiftScheduled, domain.ShiftCancelled},
	domain.ShiftScheduled:  {domain.ShiftInProgress, domain.ShiftCancelled},
	domain.ShiftInProgress: {domain.ShiftCompleted, domain.ShiftCancelled},
}

func canTransition(from, to domain.ShiftStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CreateShift commits a new shift. With a worker assigned the shift is born
// Scheduled and goes through check-then-commit; without one it is a Draft and
// cannot conflict. The returned report carries any soft conflicts that were
// surfaced but did not block.
func (l *Lifecycle) CreateShift(ctx context.Context, shift *domain.Shift, opts ScheduleOptions) (*domain.ConflictReport, error) {
	if shift.OrganizationID == "" {
		return nil, fmt.Errorf("%w: organization is required", ErrInvalidRequest)
	}
	if !shift.Window.Valid() {
		return nil, fmt.Errorf("%w: window start must be before window end", ErrInvalidRequest)
	}
	if shift.ID == "" {
		shift.ID = l.newID()
	}

	if shift.WorkerID == nil {
		shift.Status = domain.ShiftDraft
		if err := l.store.InsertShift(ctx, shift, false); err != nil {
			return nil, err
		}
		return &domain.ConflictReport{Window: shift.Window}, nil
	}

	shift.Status = domain.ShiftScheduled
	cand := Candidate{Window: shift.Window, ClientID: shift.ClientID, Location: shift.Location}

	for attempt := 0; attempt < l.maxAttempts; attempt++ {
		report, err := l.detector.CheckConflict(ctx, shift.OrganizationID, *shift.WorkerID, cand, "")
		if err != nil {
			return nil, err
		}
		if blocked(report, opts) {
			return report, &ConflictError{Report: report}
		}

		err = l.store.InsertShift(ctx, shift, !opts.AllowHardOverride)
		if errors.Is(err, domain.ErrShiftOverlap) {
			// another commit won the race, re-run the check
			continue
		}
		if err != nil {
			return nil, err
		}
		return report, nil
	}

	return nil, ErrConcurrentModification
}

// RescheduleShift moves a shift's window and/or worker. Only Draft and
// Scheduled shifts can be rescheduled; the conflict check excludes the shift
// itself and is re-validated at commit time.
func (l *Lifecycle) RescheduleShift(ctx context.Context, orgID, shiftID string, newWindow *domain.Window, newWorkerID *string, opts ScheduleOptions) (*domain.Shift, *domain.ConflictReport, error) {
	if newWindow == nil && newWorkerID == nil {
		return nil, nil, fmt.Errorf("%w: nothing to reschedule", ErrInvalidRequest)
	}
	if newWindow != nil && !newWindow.Valid() {
		return nil, nil, fmt.Errorf("%w: window start must be before window end", ErrInvalidRequest)
	}

	for attempt := 0; attempt < l.maxAttempts; attempt++ {
		shift, err := l.getShift(ctx, orgID, shiftID)
		if err != nil {
			return nil, nil, err
		}
		if shift.Status != domain.ShiftDraft && shift.Status != domain.ShiftScheduled {
			return nil, nil, fmt.Errorf("%w: cannot reschedule a %s shift", ErrInvalidTransition, shift.Status)
		}

		if newWindow != nil {
			shift.Window = *newWindow
		}
		if newWorkerID != nil {
			if *newWorkerID == "" {
				shift.WorkerID = nil
			} else {
				shift.WorkerID = newWorkerID
			}
		}

		report := &domain.ConflictReport{Window: shift.Window}
		guard := false
		if shift.WorkerID != nil && shift.Status.Committed() {
			cand := Candidate{Window: shift.Window, ClientID: shift.ClientID, Location: shift.Location}
			report, err = l.detector.CheckConflict(ctx, orgID, *shift.WorkerID, cand, shift.ID)
			if err != nil {
				return nil, nil, err
			}
			if blocked(report, opts) {
				return nil, report, &ConflictError{Report: report}
			}
			guard = !opts.AllowHardOverride
		}

		err = l.store.UpdateShift(ctx, shift, guard)
		if errors.Is(err, domain.ErrShiftOverlap) || errors.Is(err, domain.ErrStaleVersion) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		return shift, report, nil
	}

	return nil, nil, ErrConcurrentModification
}

// ScheduleShift promotes a Draft to Scheduled. The draft must have a worker.
func (l *Lifecycle) ScheduleShift(ctx context.Context, orgID, shiftID string, opts ScheduleOptions) (*domain.Shift, *domain.ConflictReport, error) {
	for attempt := 0; attempt < l.maxAttempts; attempt++ {
		shift, err := l.getShift(ctx, orgID, shiftID)
		if err != nil {
			return nil, nil, err
		}
		if !canTransition(shift.Status, domain.ShiftScheduled) {
			return nil, nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, shift.Status, domain.ShiftScheduled)
		}
		if shift.WorkerID == nil {
			return nil, nil, fmt.Errorf("%w: cannot schedule a shift without a worker", ErrInvalidRequest)
		}

		cand := Candidate{Window: shift.Window, ClientID: shift.ClientID, Location: shift.Location}
		report, err := l.detector.CheckConflict(ctx, orgID, *shift.WorkerID, cand, shift.ID)
		if err != nil {
			return nil, nil, err
		}
		if blocked(report, opts) {
			return nil, report, &ConflictError{Report: report}
		}

		shift.Status = domain.ShiftScheduled
		err = l.store.UpdateShift(ctx, shift, !opts.AllowHardOverride)
		if errors.Is(err, domain.ErrShiftOverlap) || errors.Is(err, domain.ErrStaleVersion) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		return shift, report, nil
	}

	return nil, nil, ErrConcurrentModification
}

// StartShift marks a Scheduled shift InProgress. Triggered by the external
// time-tracking collaborator; the clock must be within
// [window start - grace, window end).
func (l *Lifecycle) StartShift(ctx context.Context, orgID, shiftID string) (*domain.Shift, error) {
	return l.transition(ctx, orgID, shiftID, domain.ShiftInProgress, func(shift *domain.Shift) error {
		now := l.now()
		if now.Before(shift.Window.Start.Add(-l.grace)) || !now.Before(shift.Window.End) {
			return fmt.Errorf("%w: shift can only start within its grace window", ErrInvalidTransition)
		}
		return nil
	})
}

// CompleteShift marks an InProgress shift Completed once actual work time has
// been recorded externally.
func (l *Lifecycle) CompleteShift(ctx context.Context, orgID, shiftID string) (*domain.Shift, error) {
	return l.transition(ctx, orgID, shiftID, domain.ShiftCompleted, nil)
}

// CancelShift is always permitted from Draft, Scheduled and InProgress.
// Freeing a slot can never create a new conflict, so no re-check is needed.
func (l *Lifecycle) CancelShift(ctx context.Context, orgID, shiftID string) (*domain.Shift, error) {
	return l.transition(ctx, orgID, shiftID, domain.ShiftCancelled, nil)
}

func (l *Lifecycle) transition(ctx context.Context, orgID, shiftID string, to domain.ShiftStatus, check func(*domain.Shift) error) (*domain.Shift, error) {
	for attempt := 0; attempt < l.maxAttempts; attempt++ {
		shift, err := l.getShift(ctx, orgID, shiftID)
		if err != nil {
			return nil, err
		}
		if !canTransition(shift.Status, to) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, shift.Status, to)
		}
		if check != nil {
			if err := check(shift); err != nil {
				return nil, err
			}
		}

		shift.Status = to
		err = l.store.UpdateShift(ctx, shift, false)
		if errors.Is(err, domain.ErrStaleVersion) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return shift, nil
	}

	return nil, ErrConcurrentModification
}

func (l *Lifecycle) getShift(ctx context.Context, orgID, shiftID string) (*domain.Shift, error) {
	shift, err := l.store.GetShift(ctx, orgID, shiftID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: shift %s", ErrNotFound, shiftID)
	}
	if err != nil {
		return nil, err
	}
	return shift, nil
}

func blocked(report *domain.ConflictReport, opts ScheduleOptions) bool {
	if report.HasHard() && !opts.AllowHardOverride {
		return true
	}
	if opts.Strict && report.HasSoft() {
		return true
	}
	return false
}
