package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func win(t *testing.T, start, end string) Window {
	t.Helper()
	s, err := time.Parse(time.RFC3339, start)
	require.NoError(t, err)
	e, err := time.Parse(time.RFC3339, end)
	require.NoError(t, err)
	return Window{Start: s, End: e}
}

func TestWindowOverlaps(t *testing.T) {
	base := win(t, "2024-03-04T10:00:00Z", "2024-03-04T12:00:00Z")

	tests := []struct {
		name  string
		other Window
		want  bool
	}{
		{name: "identical", other: base, want: true},
		{name: "contained", other: win(t, "2024-03-04T10:30:00Z", "2024-03-04T11:30:00Z"), want: true},
		{name: "overlap at start", other: win(t, "2024-03-04T09:00:00Z", "2024-03-04T10:01:00Z"), want: true},
		{name: "overlap at end", other: win(t, "2024-03-04T11:59:00Z", "2024-03-04T13:00:00Z"), want: true},
		{name: "back to back before", other: win(t, "2024-03-04T08:00:00Z", "2024-03-04T10:00:00Z"), want: false},
		{name: "back to back after", other: win(t, "2024-03-04T12:00:00Z", "2024-03-04T14:00:00Z"), want: false},
		{name: "disjoint", other: win(t, "2024-03-04T14:00:00Z", "2024-03-04T16:00:00Z"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, base.Overlaps(tt.other))
			require.Equal(t, tt.want, tt.other.Overlaps(base))
		})
	}
}

func TestWindowGap(t *testing.T) {
	a := win(t, "2024-03-04T10:00:00Z", "2024-03-04T12:00:00Z")
	b := win(t, "2024-03-04T12:45:00Z", "2024-03-04T14:00:00Z")

	require.Equal(t, 45*time.Minute, a.Gap(b))
	require.Equal(t, 45*time.Minute, b.Gap(a))
	require.Equal(t, time.Duration(0), a.Gap(a))
}

func TestWindowValid(t *testing.T) {
	require.True(t, win(t, "2024-03-04T10:00:00Z", "2024-03-04T10:01:00Z").Valid())
	require.False(t, win(t, "2024-03-04T10:00:00Z", "2024-03-04T10:00:00Z").Valid())
	require.False(t, win(t, "2024-03-04T12:00:00Z", "2024-03-04T10:00:00Z").Valid())
}

func TestShiftStatusCommitted(t *testing.T) {
	require.True(t, ShiftScheduled.Committed())
	require.True(t, ShiftInProgress.Committed())
	require.False(t, ShiftDraft.Committed())
	require.False(t, ShiftCompleted.Committed())
	require.False(t, ShiftCancelled.Committed())
}
