package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shiftline/scheduler/backend/internal/queue"
	"github.com/shiftline/scheduler/backend/internal/scheduling"
)

type deploymentRequest struct {
	TemplateID        string    `json:"templateID" validate:"required"`
	RangeStart        time.Time `json:"rangeStart" validate:"required"`
	RangeEnd          time.Time `json:"rangeEnd" validate:"required"`
	Strict            bool      `json:"strict"`
	AllowHardOverride bool      `json:"allowHardOverride"`
}

func (h *Handler) DeployTemplate(w http.ResponseWriter, r *http.Request) {
	var req deploymentRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	orgID := r.Context().Value(OrgCtxKey).(string)
	opts := scheduling.ScheduleOptions{Strict: req.Strict, AllowHardOverride: req.AllowHardOverride}

	report, err := h.expander.DeployTemplate(r.Context(), orgID, req.TemplateID, req.RangeStart, req.RangeEnd, opts)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "template deployed", report)
}

// EnqueueDeployment hands a bulk rollout to the deployer worker. Large
// templates over long ranges do not need to hold an HTTP request open.
func (h *Handler) EnqueueDeployment(w http.ResponseWriter, r *http.Request) {
	var req deploymentRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	orgID := r.Context().Value(OrgCtxKey).(string)
	job := queue.DeploymentJob{
		JobID:             uuid.NewString(),
		OrganizationID:    orgID,
		TemplateID:        req.TemplateID,
		RangeStart:        req.RangeStart,
		RangeEnd:          req.RangeEnd,
		Strict:            req.Strict,
		AllowHardOverride: req.AllowHardOverride,
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := queue.PublishJob(ctx, h.deployChannel, job); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "deployment enqueued", map[string]string{"jobID": job.JobID})
}
