package scheduling

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shiftline/scheduler/backend/internal/domain"
	"github.com/stretchr/testify/require"
)

func newTestLifecycle(store *memStore) *Lifecycle {
	detector := NewDetector(store, 30*time.Minute)
	return NewLifecycle(store, detector, LifecycleConfig{
		MaxCommitAttempts: 3,
		Grace:             15 * time.Minute,
	})
}

func TestCreateShift_AssignedIsScheduled(t *testing.T) {
	store := newMemStore()
	lifecycle := newTestLifecycle(store)

	worker := testWorker
	shift := &domain.Shift{
		OrganizationID: testOrg,
		WorkerID:       &worker,
		Window:         mustWindow("2024-03-04T09:00:00Z", "2024-03-04T17:00:00Z"),
	}
	report, err := lifecycle.CreateShift(context.Background(), shift, ScheduleOptions{})
	require.NoError(t, err)
	require.True(t, report.Clean())
	require.Equal(t, domain.ShiftScheduled, shift.Status)
	require.NotEmpty(t, shift.ID)
	require.EqualValues(t, 1, shift.Version)
}

func TestCreateShift_UnassignedIsDraft(t *testing.T) {
	store := newMemStore()
	lifecycle := newTestLifecycle(store)

	shift := &domain.Shift{
		OrganizationID: testOrg,
		Window:         mustWindow("2024-03-04T09:00:00Z", "2024-03-04T17:00:00Z"),
	}
	_, err := lifecycle.CreateShift(context.Background(), shift, ScheduleOptions{})
	require.NoError(t, err)
	require.Equal(t, domain.ShiftDraft, shift.Status)
}

// A full-day shift for client A, then a colliding and a back-to-back request
// for client B.
func TestCreateShift_OverlapScenario(t *testing.T) {
	store := newMemStore()
	lifecycle := newTestLifecycle(store)
	seedCommitted(t, store, "day-shift", mustWindow("2024-03-04T09:00:00Z", "2024-03-04T17:00:00Z"), strptr("client-a"), nil)

	worker := testWorker

	colliding := &domain.Shift{
		OrganizationID: testOrg,
		WorkerID:       &worker,
		ClientID:       strptr("client-b"),
		Window:         mustWindow("2024-03-04T16:00:00Z", "2024-03-04T18:00:00Z"),
	}
	_, err := lifecycle.CreateShift(context.Background(), colliding, ScheduleOptions{})

	var confErr *ConflictError
	require.ErrorAs(t, err, &confErr)
	require.Len(t, confErr.Report.Conflicts, 1)
	require.Equal(t, "day-shift", confErr.Report.Conflicts[0].Shift.ID)
	require.Equal(t, domain.ConflictHard, confErr.Report.Conflicts[0].Severity)

	backToBack := &domain.Shift{
		OrganizationID: testOrg,
		WorkerID:       &worker,
		ClientID:       strptr("client-b"),
		Window:         mustWindow("2024-03-04T17:00:00Z", "2024-03-04T19:00:00Z"),
	}
	report, err := lifecycle.CreateShift(context.Background(), backToBack, ScheduleOptions{})
	require.NoError(t, err)
	require.True(t, report.Clean())
}

func TestCreateShift_StrictRejectsSoftConflict(t *testing.T) {
	store := newMemStore()
	lifecycle := newTestLifecycle(store)
	locA := &domain.Location{Latitude: -33.86, Longitude: 151.20}
	locB := &domain.Location{Latitude: -33.90, Longitude: 151.18}
	seedCommitted(t, store, "s1", mustWindow("2024-03-04T09:00:00Z", "2024-03-04T12:00:00Z"), strptr("client-a"), locA)

	worker := testWorker
	shift := &domain.Shift{
		OrganizationID: testOrg,
		WorkerID:       &worker,
		ClientID:       strptr("client-b"),
		Location:       locB,
		Window:         mustWindow("2024-03-04T12:10:00Z", "2024-03-04T15:00:00Z"),
	}

	_, err := lifecycle.CreateShift(context.Background(), shift, ScheduleOptions{Strict: true})
	var confErr *ConflictError
	require.ErrorAs(t, err, &confErr)
	require.True(t, confErr.Report.HasSoft())

	// the same request goes through without strict mode, conflict surfaced
	shift.ID = ""
	report, err := lifecycle.CreateShift(context.Background(), shift, ScheduleOptions{})
	require.NoError(t, err)
	require.True(t, report.HasSoft())
}

func TestCreateShift_HardOverrideCommits(t *testing.T) {
	store := newMemStore()
	lifecycle := newTestLifecycle(store)
	seedCommitted(t, store, "s1", mustWindow("2024-03-04T09:00:00Z", "2024-03-04T17:00:00Z"), nil, nil)

	worker := testWorker
	shift := &domain.Shift{
		OrganizationID: testOrg,
		WorkerID:       &worker,
		Window:         mustWindow("2024-03-04T16:00:00Z", "2024-03-04T18:00:00Z"),
	}
	report, err := lifecycle.CreateShift(context.Background(), shift, ScheduleOptions{AllowHardOverride: true})
	require.NoError(t, err)
	require.True(t, report.HasHard())
	require.Equal(t, domain.ShiftScheduled, shift.Status)
}

func TestCreateShift_NoDoubleBookingUnderConcurrency(t *testing.T) {
	store := newMemStore()
	lifecycle := newTestLifecycle(store)

	worker := testWorker
	const attempts = 32

	var wg sync.WaitGroup
	successes := make([]bool, attempts)
	for i := 0; i < attempts; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			shift := &domain.Shift{
				OrganizationID: testOrg,
				WorkerID:       &worker,
				Window:         mustWindow("2024-03-04T09:00:00Z", "2024-03-04T17:00:00Z"),
			}
			if _, err := lifecycle.CreateShift(context.Background(), shift, ScheduleOptions{}); err == nil {
				successes[i] = true
			}
		}()
	}
	wg.Wait()

	won := 0
	for _, ok := range successes {
		if ok {
			won++
		}
	}
	require.Equal(t, 1, won, "exactly one of the racing identical windows may commit")

	committed := store.committedFor(worker)
	for i := 0; i < len(committed); i++ {
		for j := i + 1; j < len(committed); j++ {
			require.False(t, committed[i].Window.Overlaps(committed[j].Window),
				"committed shifts %s and %s overlap", committed[i].ID, committed[j].ID)
		}
	}
}

func TestRescheduleShift_MoveWithinOwnWindow(t *testing.T) {
	store := newMemStore()
	lifecycle := newTestLifecycle(store)
	seedCommitted(t, store, "s1", mustWindow("2024-03-04T09:00:00Z", "2024-03-04T17:00:00Z"), nil, nil)

	// shrinking inside the old window only "conflicts" with the shift itself
	newWin := mustWindow("2024-03-04T10:00:00Z", "2024-03-04T16:00:00Z")
	updated, report, err := lifecycle.RescheduleShift(context.Background(), testOrg, "s1", &newWin, nil, ScheduleOptions{})
	require.NoError(t, err)
	require.True(t, report.Clean())
	require.Equal(t, newWin, updated.Window)
	require.EqualValues(t, 2, updated.Version)
}

func TestRescheduleShift_IntoConflict(t *testing.T) {
	store := newMemStore()
	lifecycle := newTestLifecycle(store)
	seedCommitted(t, store, "s1", mustWindow("2024-03-04T09:00:00Z", "2024-03-04T12:00:00Z"), nil, nil)
	seedCommitted(t, store, "s2", mustWindow("2024-03-04T13:00:00Z", "2024-03-04T17:00:00Z"), nil, nil)

	newWin := mustWindow("2024-03-04T11:00:00Z", "2024-03-04T14:00:00Z")
	_, _, err := lifecycle.RescheduleShift(context.Background(), testOrg, "s2", &newWin, nil, ScheduleOptions{})

	var confErr *ConflictError
	require.ErrorAs(t, err, &confErr)
	require.Equal(t, "s1", confErr.Report.Conflicts[0].Shift.ID)
}

func TestRescheduleShift_ReassignWorker(t *testing.T) {
	store := newMemStore()
	lifecycle := newTestLifecycle(store)
	seedCommitted(t, store, "s1", mustWindow("2024-03-04T09:00:00Z", "2024-03-04T12:00:00Z"), nil, nil)

	other := "worker-2"
	updated, report, err := lifecycle.RescheduleShift(context.Background(), testOrg, "s1", nil, &other, ScheduleOptions{})
	require.NoError(t, err)
	require.True(t, report.Clean())
	require.Equal(t, "worker-2", *updated.WorkerID)
}

func TestRescheduleShift_TerminalStatusRejected(t *testing.T) {
	store := newMemStore()
	lifecycle := newTestLifecycle(store)
	shift := seedCommitted(t, store, "s1", mustWindow("2024-03-04T09:00:00Z", "2024-03-04T12:00:00Z"), nil, nil)

	_, err := lifecycle.CancelShift(context.Background(), testOrg, shift.ID)
	require.NoError(t, err)

	newWin := mustWindow("2024-03-04T13:00:00Z", "2024-03-04T14:00:00Z")
	_, _, err = lifecycle.RescheduleShift(context.Background(), testOrg, shift.ID, &newWin, nil, ScheduleOptions{})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRescheduleShift_NotFound(t *testing.T) {
	lifecycle := newTestLifecycle(newMemStore())

	newWin := mustWindow("2024-03-04T13:00:00Z", "2024-03-04T14:00:00Z")
	_, _, err := lifecycle.RescheduleShift(context.Background(), testOrg, "missing", &newWin, nil, ScheduleOptions{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestScheduleShift_PromotesDraft(t *testing.T) {
	store := newMemStore()
	lifecycle := newTestLifecycle(store)

	worker := testWorker
	draft := &domain.Shift{
		ID:             "d1",
		OrganizationID: testOrg,
		WorkerID:       &worker,
		Window:         mustWindow("2024-03-04T09:00:00Z", "2024-03-04T12:00:00Z"),
		Status:         domain.ShiftDraft,
	}
	require.NoError(t, store.InsertShift(context.Background(), draft, false))

	updated, report, err := lifecycle.ScheduleShift(context.Background(), testOrg, "d1", ScheduleOptions{})
	require.NoError(t, err)
	require.True(t, report.Clean())
	require.Equal(t, domain.ShiftScheduled, updated.Status)
}

func TestScheduleShift_RequiresWorker(t *testing.T) {
	store := newMemStore()
	lifecycle := newTestLifecycle(store)

	draft := &domain.Shift{
		ID:             "d1",
		OrganizationID: testOrg,
		Window:         mustWindow("2024-03-04T09:00:00Z", "2024-03-04T12:00:00Z"),
		Status:         domain.ShiftDraft,
	}
	require.NoError(t, store.InsertShift(context.Background(), draft, false))

	_, _, err := lifecycle.ScheduleShift(context.Background(), testOrg, "d1", ScheduleOptions{})
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestStartShift_GraceWindow(t *testing.T) {
	tests := []struct {
		name    string
		now     string
		wantErr bool
	}{
		{name: "before grace", now: "2024-03-04T08:40:00Z", wantErr: true},
		{name: "inside grace", now: "2024-03-04T08:50:00Z", wantErr: false},
		{name: "mid shift", now: "2024-03-04T12:00:00Z", wantErr: false},
		{name: "after end", now: "2024-03-04T17:00:00Z", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			lifecycle := newTestLifecycle(store)
			now, err := time.Parse(time.RFC3339, tt.now)
			require.NoError(t, err)
			lifecycle.now = func() time.Time { return now }

			seedCommitted(t, store, "s1", mustWindow("2024-03-04T09:00:00Z", "2024-03-04T17:00:00Z"), nil, nil)

			updated, err := lifecycle.StartShift(context.Background(), testOrg, "s1")
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTransition)
				return
			}
			require.NoError(t, err)
			require.Equal(t, domain.ShiftInProgress, updated.Status)
		})
	}
}

func TestLifecycle_TerminalStatesAreFinal(t *testing.T) {
	store := newMemStore()
	lifecycle := newTestLifecycle(store)
	lifecycle.now = func() time.Time {
		now, _ := time.Parse(time.RFC3339, "2024-03-04T09:00:00Z")
		return now
	}

	seedCommitted(t, store, "s1", mustWindow("2024-03-04T09:00:00Z", "2024-03-04T17:00:00Z"), nil, nil)

	_, err := lifecycle.StartShift(context.Background(), testOrg, "s1")
	require.NoError(t, err)
	_, err = lifecycle.CompleteShift(context.Background(), testOrg, "s1")
	require.NoError(t, err)

	_, err = lifecycle.CancelShift(context.Background(), testOrg, "s1")
	require.ErrorIs(t, err, ErrInvalidTransition)
	_, err = lifecycle.StartShift(context.Background(), testOrg, "s1")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestLifecycle_CancelFromEveryLiveState(t *testing.T) {
	store := newMemStore()
	lifecycle := newTestLifecycle(store)
	lifecycle.now = func() time.Time {
		now, _ := time.Parse(time.RFC3339, "2024-03-04T09:00:00Z")
		return now
	}

	worker := testWorker
	for i, prep := range []func(id string){
		func(id string) { // draft
			shift := &domain.Shift{ID: id, OrganizationID: testOrg, Window: mustWindow("2024-03-04T09:00:00Z", "2024-03-04T12:00:00Z"), Status: domain.ShiftDraft}
			require.NoError(t, store.InsertShift(context.Background(), shift, false))
		},
		func(id string) { // scheduled
			shift := &domain.Shift{ID: id, OrganizationID: testOrg, WorkerID: &worker, Window: mustWindow("2024-03-05T09:00:00Z", "2024-03-05T12:00:00Z"), Status: domain.ShiftScheduled}
			require.NoError(t, store.InsertShift(context.Background(), shift, true))
		},
		func(id string) { // in progress
			shift := &domain.Shift{ID: id, OrganizationID: testOrg, WorkerID: &worker, Window: mustWindow("2024-03-04T08:00:00Z", "2024-03-04T12:00:00Z"), Status: domain.ShiftInProgress}
			require.NoError(t, store.InsertShift(context.Background(), shift, true))
		},
	} {
		id := fmt.Sprintf("cancel-%d", i)
		prep(id)
		updated, err := lifecycle.CancelShift(context.Background(), testOrg, id)
		require.NoError(t, err)
		require.Equal(t, domain.ShiftCancelled, updated.Status)
	}
}

func TestCreateShift_InvalidWindow(t *testing.T) {
	lifecycle := newTestLifecycle(newMemStore())

	worker := testWorker
	shift := &domain.Shift{
		OrganizationID: testOrg,
		WorkerID:       &worker,
		Window:         mustWindow("2024-03-04T17:00:00Z", "2024-03-04T09:00:00Z"),
	}
	_, err := lifecycle.CreateShift(context.Background(), shift, ScheduleOptions{})
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestCancelShift_AfterConcurrentUpdate(t *testing.T) {
	store := newMemStore()
	lifecycle := newTestLifecycle(store)
	seedCommitted(t, store, "s1", mustWindow("2024-03-04T09:00:00Z", "2024-03-04T12:00:00Z"), nil, nil)

	// another writer bumps the version between our reads
	shift, err := store.GetShift(context.Background(), testOrg, "s1")
	require.NoError(t, err)
	require.NoError(t, store.UpdateShift(context.Background(), shift, false))

	cancelled, err := lifecycle.CancelShift(context.Background(), testOrg, "s1")
	require.NoError(t, err)
	require.Equal(t, domain.ShiftCancelled, cancelled.Status)
	require.EqualValues(t, 3, cancelled.Version)
}
