package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/shiftline/scheduler/backend/internal/config"
	"github.com/shiftline/scheduler/backend/internal/queue"
	"github.com/shiftline/scheduler/backend/internal/repository"
	"github.com/shiftline/scheduler/backend/internal/scheduling"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * configuration
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * database
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancelPing()

	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		return
	}

	/**********************************************
	 * redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	/**********************************************
	 * engine
	 **********************************************/
	repo := repository.NewRepository(cfg, dbpool, rdb)
	detector := scheduling.NewDetector(repo, time.Duration(cfg.Scheduling.TravelBufferMinutes)*time.Minute)
	lifecycle := scheduling.NewLifecycle(repo, detector, scheduling.LifecycleConfig{
		MaxCommitAttempts: cfg.Scheduling.MaxCommitAttempts,
		Grace:             time.Duration(cfg.Scheduling.GraceMinutes) * time.Minute,
	})
	expander := scheduling.NewExpander(repo, repo, lifecycle, repo, scheduling.ExpanderConfig{
		Concurrency: cfg.Scheduling.DeployConcurrency,
	})

	/**********************************************
	 * rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("failed to open channel", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	if err := queue.DeclareQueues(ch); err != nil {
		logger.Error("failed to declare queues", slog.String("error", err.Error()))
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	msgs, err := ch.Consume(
		queue.JobQueue,
		"",
		false, // manual ack so a crashed deploy is redelivered
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("failed to consume messages", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgs:
				handleJob(ctx, cfg, expander, ch, msg)
			}
		}
	}()

	<-sigChan
	logger.Info("shutting down deployer...")
	cancel()
	wg.Wait()
	logger.Info("deployer stopped")
}

func handleJob(ctx context.Context, cfg *config.Config, expander *scheduling.Expander, ch *amqp.Channel, msg amqp.Delivery) {
	var job queue.DeploymentJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		slog.Error("failed to decode deployment job", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}

	slog.Info("deploying template",
		"jobID", job.JobID,
		"organizationID", job.OrganizationID,
		"templateID", job.TemplateID,
		"rangeStart", job.RangeStart,
		"rangeEnd", job.RangeEnd,
	)

	opts := scheduling.ScheduleOptions{Strict: job.Strict, AllowHardOverride: job.AllowHardOverride}
	report, err := expander.DeployTemplate(ctx, job.OrganizationID, job.TemplateID, job.RangeStart, job.RangeEnd, opts)
	if err != nil {
		slog.Error("deployment failed", "jobID", job.JobID, slog.String("error", err.Error()))
		// invalid jobs are dead-lettered, not retried forever
		_ = msg.Nack(false, false)
		return
	}

	slog.Info("deployment finished",
		"jobID", job.JobID,
		"created", len(report.Created),
		"rejected", len(report.Rejected),
		"duplicates", report.Duplicates,
	)

	publishCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	outcome := queue.DeploymentOutcome{JobID: job.JobID, Report: report}
	if err := queue.PublishOutcome(publishCtx, ch, outcome); err != nil {
		slog.Error("failed to publish deployment outcome", "jobID", job.JobID, slog.String("error", err.Error()))
		_ = msg.Nack(false, true)
		return
	}

	_ = msg.Ack(false)
}
