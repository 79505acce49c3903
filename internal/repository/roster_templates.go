package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/shiftline/scheduler/backend/internal/domain"
)

func (r *Repository) GetTemplate(ctx context.Context, orgID, templateID string) (*domain.RosterTemplate, error) {
	query := `
		SELECT
			id,
			organization_id,
			name,
			slots,
			created_at,
			version
		FROM roster_templates
		WHERE id = $1 AND organization_id = $2
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	tpl := &domain.RosterTemplate{}
	var slots []byte

	dst := []any{
		&tpl.ID,
		&tpl.OrganizationID,
		&tpl.Name,
		&slots,
		&tpl.CreatedAt,
		&tpl.Version,
	}
	err := r.dbpool.QueryRowContext(ctx, query, templateID, orgID).Scan(dst...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if len(slots) > 0 {
		if err := json.Unmarshal(slots, &tpl.Slots); err != nil {
			return nil, err
		}
	}

	return tpl, nil
}
