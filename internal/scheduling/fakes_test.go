package scheduling

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shiftline/scheduler/backend/internal/domain"
)

// memStore is an in-memory ShiftStore with the same conditional-write contract
// as the Postgres adapter: check and commit are one atomic unit under the lock.
type memStore struct {
	mu     sync.Mutex
	shifts map[string]*domain.Shift
}

func newMemStore() *memStore {
	return &memStore{shifts: map[string]*domain.Shift{}}
}

func cloneShift(s *domain.Shift) *domain.Shift {
	c := *s
	return &c
}

func (m *memStore) GetShift(_ context.Context, orgID, shiftID string) (*domain.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.shifts[shiftID]
	if !ok || s.OrganizationID != orgID {
		return nil, domain.ErrNotFound
	}
	return cloneShift(s), nil
}

func (m *memStore) ListCommittedShifts(_ context.Context, orgID, workerID string, win domain.Window, pad time.Duration, excludeShiftID string) ([]*domain.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	padded := domain.Window{Start: win.Start.Add(-pad), End: win.End.Add(pad)}
	out := []*domain.Shift{}
	for _, s := range m.shifts {
		if s.OrganizationID != orgID || s.WorkerID == nil || *s.WorkerID != workerID {
			continue
		}
		if !s.Status.Committed() || s.ID == excludeShiftID {
			continue
		}
		if s.Window.Overlaps(padded) {
			out = append(out, cloneShift(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Window.Start.Equal(out[j].Window.Start) {
			return out[i].Window.Start.Before(out[j].Window.Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memStore) ListTemplateShifts(_ context.Context, orgID, templateID string, win domain.Window) ([]*domain.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*domain.Shift{}
	for _, s := range m.shifts {
		if s.OrganizationID != orgID || s.SourceTemplateID == nil || *s.SourceTemplateID != templateID {
			continue
		}
		if s.Status == domain.ShiftCancelled {
			continue
		}
		if s.Window.Start.Before(win.Start) || !s.Window.Start.Before(win.End) {
			continue
		}
		out = append(out, cloneShift(s))
	}
	return out, nil
}

func (m *memStore) overlapLocked(orgID, workerID string, win domain.Window, excludeShiftID string) bool {
	for _, s := range m.shifts {
		if s.OrganizationID != orgID || s.WorkerID == nil || *s.WorkerID != workerID {
			continue
		}
		if !s.Status.Committed() || s.ID == excludeShiftID {
			continue
		}
		if s.Window.Overlaps(win) {
			return true
		}
	}
	return false
}

func (m *memStore) InsertShift(_ context.Context, shift *domain.Shift, guardOverlap bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if guardOverlap && shift.WorkerID != nil && m.overlapLocked(shift.OrganizationID, *shift.WorkerID, shift.Window, shift.ID) {
		return domain.ErrShiftOverlap
	}

	now := time.Now().UTC()
	shift.CreatedAt = now
	shift.UpdatedAt = now
	shift.Version = 1
	m.shifts[shift.ID] = cloneShift(shift)
	return nil
}

func (m *memStore) UpdateShift(_ context.Context, shift *domain.Shift, guardOverlap bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.shifts[shift.ID]
	if !ok || current.OrganizationID != shift.OrganizationID {
		return domain.ErrNotFound
	}
	if current.Version != shift.Version {
		return domain.ErrStaleVersion
	}
	if guardOverlap && shift.WorkerID != nil && m.overlapLocked(shift.OrganizationID, *shift.WorkerID, shift.Window, shift.ID) {
		return domain.ErrShiftOverlap
	}

	shift.UpdatedAt = time.Now().UTC()
	shift.Version++
	m.shifts[shift.ID] = cloneShift(shift)
	return nil
}

// committedFor returns the worker's scheduled/in-progress shifts for invariant
// assertions.
func (m *memStore) committedFor(workerID string) []*domain.Shift {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*domain.Shift{}
	for _, s := range m.shifts {
		if s.WorkerID != nil && *s.WorkerID == workerID && s.Status.Committed() {
			out = append(out, cloneShift(s))
		}
	}
	return out
}

type fakeProfiles struct {
	profiles []*domain.WorkerProfile
}

func (f *fakeProfiles) ListProfiles(_ context.Context, orgID string) ([]*domain.WorkerProfile, error) {
	out := []*domain.WorkerProfile{}
	for _, p := range f.profiles {
		if p.OrganizationID == orgID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProfiles) GetProfile(_ context.Context, orgID, workerID string) (*domain.WorkerProfile, error) {
	for _, p := range f.profiles {
		if p.OrganizationID == orgID && p.ID == workerID {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

type fakeTemplates struct {
	templates map[string]*domain.RosterTemplate
}

func (f *fakeTemplates) GetTemplate(_ context.Context, orgID, templateID string) (*domain.RosterTemplate, error) {
	tpl, ok := f.templates[templateID]
	if !ok || tpl.OrganizationID != orgID {
		return nil, domain.ErrNotFound
	}
	return tpl, nil
}

// utcResolver expands slots against a fixed UTC "organization timezone".
type utcResolver struct{}

func (utcResolver) ExpandSlot(_ context.Context, _ string, slot domain.TemplateSlot, rangeStart, rangeEnd time.Time) ([]domain.Window, error) {
	startOfDay, err := time.Parse("15:04", slot.StartTimeOfDay)
	if err != nil {
		return nil, fmt.Errorf("bad slot time: %w", err)
	}

	windows := []domain.Window{}
	day := rangeStart.UTC().Truncate(24 * time.Hour)
	for ; day.Before(rangeEnd); day = day.AddDate(0, 0, 1) {
		if day.Weekday() != slot.DayOfWeek {
			continue
		}
		start := day.Add(time.Duration(startOfDay.Hour())*time.Hour + time.Duration(startOfDay.Minute())*time.Minute)
		if start.Before(rangeStart) || !start.Before(rangeEnd) {
			continue
		}
		windows = append(windows, domain.Window{
			Start: start,
			End:   start.Add(time.Duration(slot.DurationMinutes) * time.Minute),
		})
	}
	return windows, nil
}

func strptr(s string) *string { return &s }

func mustWindow(start, end string) domain.Window {
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		panic(err)
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		panic(err)
	}
	return domain.Window{Start: s, End: e}
}
