package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/shiftline/scheduler/backend/internal/domain"
)

const shiftColumns = `
	id,
	organization_id,
	worker_id,
	client_id,
	window_start,
	window_end,
	required_skills,
	latitude,
	longitude,
	status,
	source_template_id,
	source_slot,
	created_at,
	updated_at,
	version
`

func (r *Repository) GetShift(ctx context.Context, orgID, shiftID string) (*domain.Shift, error) {
	query := `
		SELECT ` + shiftColumns + `
		FROM shifts
		WHERE id = $1 AND organization_id = $2
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	shift, err := scanShift(r.dbpool.QueryRowContext(ctx, query, shiftID, orgID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return shift, nil
}

func (r *Repository) ListCommittedShifts(ctx context.Context, orgID, workerID string, win domain.Window, pad time.Duration, excludeShiftID string) ([]*domain.Shift, error) {
	query := `
		SELECT ` + shiftColumns + `
		FROM shifts
		WHERE organization_id = $1
			AND worker_id = $2
			AND status IN ('scheduled', 'in_progress')
			AND window_start < $3
			AND window_end > $4
			AND id <> $5
		ORDER BY window_start, id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	params := []any{
		orgID,
		workerID,
		win.End.Add(pad),
		win.Start.Add(-pad),
		excludeShiftID,
	}

	rows, err := r.dbpool.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectShifts(rows)
}

func (r *Repository) ListTemplateShifts(ctx context.Context, orgID, templateID string, win domain.Window) ([]*domain.Shift, error) {
	query := `
		SELECT ` + shiftColumns + `
		FROM shifts
		WHERE organization_id = $1
			AND source_template_id = $2
			AND status <> 'cancelled'
			AND window_start >= $3
			AND window_start < $4
		ORDER BY window_start, id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, orgID, templateID, win.Start, win.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectShifts(rows)
}

// InsertShift commits a new shift inside a transaction. With guardOverlap set,
// writes for the same (organization, worker) are serialized through a
// transaction-scoped advisory lock so the overlap check and the insert form
// one atomic unit.
func (r *Repository) InsertShift(ctx context.Context, shift *domain.Shift, guardOverlap bool) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if guardOverlap && shift.WorkerID != nil {
		overlap, err := lockAndCheckOverlap(ctx, tx, shift.OrganizationID, *shift.WorkerID, shift.Window, shift.ID)
		if err != nil {
			return err
		}
		if overlap {
			return domain.ErrShiftOverlap
		}
	}

	query := `
		INSERT INTO shifts (
			id,
			organization_id,
			worker_id,
			client_id,
			window_start,
			window_end,
			required_skills,
			latitude,
			longitude,
			status,
			source_template_id,
			source_slot
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at, version
	`

	skills, err := json.Marshal(shift.RequiredSkills)
	if err != nil {
		return err
	}

	var lat, lng *float64
	if shift.Location != nil {
		lat, lng = &shift.Location.Latitude, &shift.Location.Longitude
	}

	params := []any{
		shift.ID,
		shift.OrganizationID,
		shift.WorkerID,
		shift.ClientID,
		shift.Window.Start,
		shift.Window.End,
		skills,
		lat,
		lng,
		string(shift.Status),
		shift.SourceTemplateID,
		shift.SourceSlot,
	}
	dst := []any{&shift.CreatedAt, &shift.UpdatedAt, &shift.Version}
	if err := tx.QueryRowContext(ctx, query, params...).Scan(dst...); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateShift commits a mutation under optimistic locking, with the same
// conditional-write discipline as InsertShift when guardOverlap is set.
func (r *Repository) UpdateShift(ctx context.Context, shift *domain.Shift, guardOverlap bool) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if guardOverlap && shift.WorkerID != nil {
		overlap, err := lockAndCheckOverlap(ctx, tx, shift.OrganizationID, *shift.WorkerID, shift.Window, shift.ID)
		if err != nil {
			return err
		}
		if overlap {
			return domain.ErrShiftOverlap
		}
	}

	query := `
		UPDATE shifts
		SET
			worker_id = $1,
			client_id = $2,
			window_start = $3,
			window_end = $4,
			required_skills = $5,
			latitude = $6,
			longitude = $7,
			status = $8,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $9 AND organization_id = $10 AND version = $11
		RETURNING updated_at, version
	`

	skills, err := json.Marshal(shift.RequiredSkills)
	if err != nil {
		return err
	}

	var lat, lng *float64
	if shift.Location != nil {
		lat, lng = &shift.Location.Latitude, &shift.Location.Longitude
	}

	params := []any{
		shift.WorkerID,
		shift.ClientID,
		shift.Window.Start,
		shift.Window.End,
		skills,
		lat,
		lng,
		string(shift.Status),
		shift.ID,
		shift.OrganizationID,
		shift.Version,
	}

	err = tx.QueryRowContext(ctx, query, params...).Scan(&shift.UpdatedAt, &shift.Version)
	if errors.Is(err, sql.ErrNoRows) {
		// no row matched: either the shift is gone or the version is stale
		var exists bool
		checkQuery := `SELECT EXISTS (SELECT 1 FROM shifts WHERE id = $1 AND organization_id = $2)`
		if err := tx.QueryRowContext(ctx, checkQuery, shift.ID, shift.OrganizationID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrStaleVersion
	}
	if err != nil {
		return err
	}

	return tx.Commit()
}

// lockAndCheckOverlap takes the per-worker advisory lock for the rest of the
// transaction, then probes for committed overlapping shifts. Readers never
// take this lock, so conflict queries do not block behind writers.
func lockAndCheckOverlap(ctx context.Context, tx *sql.Tx, orgID, workerID string, win domain.Window, excludeShiftID string) (bool, error) {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2))`, orgID, workerID); err != nil {
		return false, err
	}

	query := `
		SELECT EXISTS (
			SELECT 1 FROM shifts
			WHERE organization_id = $1
				AND worker_id = $2
				AND status IN ('scheduled', 'in_progress')
				AND window_start < $3
				AND window_end > $4
				AND id <> $5
		)
	`

	var overlap bool
	if err := tx.QueryRowContext(ctx, query, orgID, workerID, win.End, win.Start, excludeShiftID).Scan(&overlap); err != nil {
		return false, err
	}

	return overlap, nil
}

type rowScanner interface {
	Scan(dst ...any) error
}

func scanShift(row rowScanner) (*domain.Shift, error) {
	var shift domain.Shift
	var workerID, clientID, sourceTemplateID sql.NullString
	var lat, lng sql.NullFloat64
	var sourceSlot sql.NullInt32
	var skills []byte
	var status string

	dst := []any{
		&shift.ID,
		&shift.OrganizationID,
		&workerID,
		&clientID,
		&shift.Window.Start,
		&shift.Window.End,
		&skills,
		&lat,
		&lng,
		&status,
		&sourceTemplateID,
		&sourceSlot,
		&shift.CreatedAt,
		&shift.UpdatedAt,
		&shift.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	shift.Status = domain.ShiftStatus(status)
	if workerID.Valid {
		shift.WorkerID = &workerID.String
	}
	if clientID.Valid {
		shift.ClientID = &clientID.String
	}
	if sourceTemplateID.Valid {
		shift.SourceTemplateID = &sourceTemplateID.String
	}
	if sourceSlot.Valid {
		shift.SourceSlot = &sourceSlot.Int32
	}
	if lat.Valid && lng.Valid {
		shift.Location = &domain.Location{Latitude: lat.Float64, Longitude: lng.Float64}
	}
	if len(skills) > 0 {
		if err := json.Unmarshal(skills, &shift.RequiredSkills); err != nil {
			return nil, err
		}
	}

	return &shift, nil
}

func collectShifts(rows *sql.Rows) ([]*domain.Shift, error) {
	shifts := []*domain.Shift{}
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}
