package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shiftline/scheduler/backend/internal/domain"
)

const profileColumns = `
	id,
	organization_id,
	full_name,
	skills,
	latitude,
	longitude,
	committed_hours,
	target_hours
`

func (r *Repository) ListProfiles(ctx context.Context, orgID string) ([]*domain.WorkerProfile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM worker_profiles
		WHERE organization_id = $1
		ORDER BY id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := []*domain.WorkerProfile{}
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// GetProfile reads through a Redis cache. Profiles are owned by the external
// user-management system and queried per matching request, so a short TTL is
// enough; cache failures degrade to the database.
func (r *Repository) GetProfile(ctx context.Context, orgID, workerID string) (*domain.WorkerProfile, error) {
	cacheKey := profileCacheKey(orgID, workerID)

	cached, err := r.rdb.Get(ctx, cacheKey).Bytes()
	if err == nil {
		profile := &domain.WorkerProfile{}
		if err := json.Unmarshal(cached, profile); err == nil {
			return profile, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		slog.Warn("profile cache read failed", "key", cacheKey, "error", err)
	}

	query := `
		SELECT ` + profileColumns + `
		FROM worker_profiles
		WHERE id = $1 AND organization_id = $2
	`

	qctx, cancel := r.queryContext(ctx)
	defer cancel()

	profile, err := scanProfile(r.dbpool.QueryRowContext(qctx, query, workerID, orgID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(profile); err == nil {
		ttl := time.Duration(r.cfg.Redis.ProfileCacheTTL) * time.Second
		if err := r.rdb.Set(ctx, cacheKey, encoded, ttl).Err(); err != nil {
			slog.Warn("profile cache write failed", "key", cacheKey, "error", err)
		}
	}

	return profile, nil
}

func profileCacheKey(orgID, workerID string) string {
	return fmt.Sprintf("worker-profile:%s:%s", orgID, workerID)
}

func scanProfile(row rowScanner) (*domain.WorkerProfile, error) {
	var profile domain.WorkerProfile
	var lat, lng sql.NullFloat64
	var skills []byte

	dst := []any{
		&profile.ID,
		&profile.OrganizationID,
		&profile.FullName,
		&skills,
		&lat,
		&lng,
		&profile.CommittedHours,
		&profile.TargetHours,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if lat.Valid && lng.Valid {
		profile.Location = &domain.Location{Latitude: lat.Float64, Longitude: lng.Float64}
	}
	if len(skills) > 0 {
		if err := json.Unmarshal(skills, &profile.Skills); err != nil {
			return nil, err
		}
	}

	return &profile, nil
}
