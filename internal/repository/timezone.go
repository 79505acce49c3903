package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shiftline/scheduler/backend/internal/domain"
)

// ExpandSlot resolves each occurrence of the slot's weekday within
// [rangeStart, rangeEnd) into absolute instants against the organization's
// configured IANA timezone. Wall-clock times survive DST transitions because
// the instant is built in the organization's location.
func (r *Repository) ExpandSlot(ctx context.Context, orgID string, slot domain.TemplateSlot, rangeStart, rangeEnd time.Time) ([]domain.Window, error) {
	tzName, err := r.organizationTimezone(ctx, orgID)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("organization %s has invalid timezone %q: %w", orgID, tzName, err)
	}

	startOfDay, err := time.Parse("15:04", slot.StartTimeOfDay)
	if err != nil {
		return nil, fmt.Errorf("slot start time %q is not HH:MM: %w", slot.StartTimeOfDay, err)
	}
	duration := time.Duration(slot.DurationMinutes) * time.Minute

	windows := []domain.Window{}
	day := rangeStart.In(loc)
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)

	for ; day.Before(rangeEnd); day = day.AddDate(0, 0, 1) {
		if day.Weekday() != slot.DayOfWeek {
			continue
		}
		start := time.Date(day.Year(), day.Month(), day.Day(), startOfDay.Hour(), startOfDay.Minute(), 0, 0, loc)
		if start.Before(rangeStart) || !start.Before(rangeEnd) {
			continue
		}
		windows = append(windows, domain.Window{
			Start: start.UTC(),
			End:   start.Add(duration).UTC(),
		})
	}

	return windows, nil
}

func (r *Repository) organizationTimezone(ctx context.Context, orgID string) (string, error) {
	query := `SELECT timezone FROM organizations WHERE id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	var tz string
	err := r.dbpool.QueryRowContext(ctx, query, orgID).Scan(&tz)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}

	return tz, nil
}
