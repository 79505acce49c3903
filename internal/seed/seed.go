package seed

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/shiftline/scheduler/backend/internal/domain"
)

// The organization, worker-profile and roster-template tables are owned by
// external collaborators in production; the seeder fills them directly so the
// engine has something to schedule against in development.

func InsertOrganization(ctx context.Context, db *sql.DB, orgID, name, timezone string) error {
	query := `
		INSERT INTO organizations (id, name, timezone)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := db.ExecContext(ctx, query, orgID, name, timezone)
	return err
}

func InsertWorker(ctx context.Context, db *sql.DB, worker *domain.WorkerProfile) error {
	query := `
		INSERT INTO worker_profiles (
			id,
			organization_id,
			full_name,
			skills,
			latitude,
			longitude,
			committed_hours,
			target_hours
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	skills, err := json.Marshal(worker.Skills)
	if err != nil {
		return err
	}

	var lat, lng *float64
	if worker.Location != nil {
		lat, lng = &worker.Location.Latitude, &worker.Location.Longitude
	}

	params := []any{
		worker.ID,
		worker.OrganizationID,
		worker.FullName,
		skills,
		lat,
		lng,
		worker.CommittedHours,
		worker.TargetHours,
	}
	_, err = db.ExecContext(ctx, query, params...)
	return err
}

func InsertTemplate(ctx context.Context, db *sql.DB, tpl *domain.RosterTemplate) error {
	query := `
		INSERT INTO roster_templates (id, organization_id, name, slots)
		VALUES ($1, $2, $3, $4)
	`

	slots, err := json.Marshal(tpl.Slots)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, query, tpl.ID, tpl.OrganizationID, tpl.Name, slots)
	return err
}
