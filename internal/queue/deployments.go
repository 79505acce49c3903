package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shiftline/scheduler/backend/internal/domain"
)

const (
	// JobQueue carries deployment requests from the API to the deployer worker.
	JobQueue = "deploy_jobs"
	// ReportQueue carries finished DeploymentReports back out for the caller's
	// plumbing to pick up.
	ReportQueue = "deploy_reports"
)

// DeploymentJob is the wire form of an asynchronous DeployTemplate request.
type DeploymentJob struct {
	JobID             string    `json:"jobID"`
	OrganizationID    string    `json:"organizationID"`
	TemplateID        string    `json:"templateID"`
	RangeStart        time.Time `json:"rangeStart"`
	RangeEnd          time.Time `json:"rangeEnd"`
	Strict            bool      `json:"strict"`
	AllowHardOverride bool      `json:"allowHardOverride"`
}

// DeploymentOutcome pairs a job with its report.
type DeploymentOutcome struct {
	JobID  string                   `json:"jobID"`
	Report *domain.DeploymentReport `json:"report"`
}

// DeclareQueues makes both queues durable; idempotent on both ends.
func DeclareQueues(ch *amqp.Channel) error {
	for _, name := range []string{JobQueue, ReportQueue} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return err
		}
	}
	return nil
}

func PublishJob(ctx context.Context, ch *amqp.Channel, job DeploymentJob) error {
	return publishJSON(ctx, ch, JobQueue, job)
}

func PublishOutcome(ctx context.Context, ch *amqp.Channel, outcome DeploymentOutcome) error {
	return publishJSON(ctx, ch, ReportQueue, outcome)
}

func publishJSON(ctx context.Context, ch *amqp.Channel, queueName string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(
		ctx,
		"",
		queueName,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
