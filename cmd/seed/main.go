package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shiftline/scheduler/backend/internal/config"
	"github.com/shiftline/scheduler/backend/internal/repository"
	"github.com/shiftline/scheduler/backend/internal/scheduling"
	"github.com/shiftline/scheduler/backend/internal/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var orgs int
	var workers int
	var shifts int

	flag.IntVar(&orgs, "orgs", 0, "number of organizations to seed (0 uses SEED_ORGANIZATIONS)")
	flag.IntVar(&workers, "workers", 0, "workers per organization (0 uses SEED_WORKERS)")
	flag.IntVar(&shifts, "shifts", 0, "shifts per organization (0 uses SEED_SHIFTS)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if orgs <= 0 {
		orgs = cfg.Seed.Organizations
	}
	if workers <= 0 {
		workers = cfg.Seed.Workers
	}
	if shifts <= 0 {
		shifts = cfg.Seed.Shifts
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	pingCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		return
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	repo := repository.NewRepository(cfg, dbpool, rdb)
	detector := scheduling.NewDetector(repo, time.Duration(cfg.Scheduling.TravelBufferMinutes)*time.Minute)
	lifecycle := scheduling.NewLifecycle(repo, detector, scheduling.LifecycleConfig{
		MaxCommitAttempts: cfg.Scheduling.MaxCommitAttempts,
		Grace:             time.Duration(cfg.Scheduling.GraceMinutes) * time.Minute,
	})

	ctx := context.Background()

	for o := 0; o < orgs; o++ {
		orgID := uuid.NewString()
		orgName := fmt.Sprintf("org-%02d", o+1)
		if err := seed.InsertOrganization(ctx, dbpool, orgID, orgName, seed.RandomTimezone()); err != nil {
			logger.Error("failed to seed organization", "error", err)
			return
		}

		workerIDs := make([]string, 0, workers)
		for i := 0; i < workers; i++ {
			worker := seed.RandomWorker(orgID)
			if err := seed.InsertWorker(ctx, dbpool, worker); err != nil {
				logger.Error("failed to seed worker", "error", err)
				return
			}
			workerIDs = append(workerIDs, worker.ID)
		}

		clientIDs := []string{uuid.NewString(), uuid.NewString(), uuid.NewString()}

		tpl := seed.RandomTemplate(orgID, clientIDs, workerIDs)
		if err := seed.InsertTemplate(ctx, dbpool, tpl); err != nil {
			logger.Error("failed to seed roster template", "error", err)
			return
		}

		// shifts go through the lifecycle controller so the seeded data obeys
		// the no-double-booking invariant; colliding candidates are skipped
		created, skipped := 0, 0
		base := time.Now().UTC().AddDate(0, 0, 1)
		for i := 0; i < shifts; i++ {
			shift := seed.RandomShift(orgID, workerIDs, clientIDs, base)
			_, err := lifecycle.CreateShift(ctx, shift, scheduling.ScheduleOptions{})

			var confErr *scheduling.ConflictError
			switch {
			case errors.As(err, &confErr):
				skipped++
			case errors.Is(err, scheduling.ErrConcurrentModification):
				skipped++
			case err != nil:
				logger.Error("failed to seed shift", "error", err)
				return
			default:
				created++
			}
		}

		logger.Info("organization seeded",
			"organizationID", orgID,
			"workers", len(workerIDs),
			"templateID", tpl.ID,
			"shiftsCreated", created,
			"shiftsSkipped", skipped,
		)
	}
}
