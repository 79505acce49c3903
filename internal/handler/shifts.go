package handler

import (
	"net/http"
	"time"

	"github.com/shiftline/scheduler/backend/internal/domain"
	"github.com/shiftline/scheduler/backend/internal/scheduling"
)

type windowRequest struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required"`
}

func (wr windowRequest) toDomain() domain.Window {
	return domain.Window{Start: wr.Start, End: wr.End}
}

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WorkerID          *string          `json:"workerID"`
		ClientID          *string          `json:"clientID"`
		Window            windowRequest    `json:"window" validate:"required"`
		RequiredSkills    []string         `json:"requiredSkills"`
		Location          *domain.Location `json:"location"`
		Strict            bool             `json:"strict"`
		AllowHardOverride bool             `json:"allowHardOverride"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	orgID := r.Context().Value(OrgCtxKey).(string)
	shift := &domain.Shift{
		OrganizationID: orgID,
		WorkerID:       req.WorkerID,
		ClientID:       req.ClientID,
		Window:         req.Window.toDomain(),
		RequiredSkills: req.RequiredSkills,
		Location:       req.Location,
	}

	opts := scheduling.ScheduleOptions{Strict: req.Strict, AllowHardOverride: req.AllowHardOverride}
	report, err := h.lifecycle.CreateShift(r.Context(), shift, opts)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift created", map[string]any{
		"shift":  shift,
		"report": report,
	})
}

func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtxKey).(*domain.Shift)

	h.successResponse(w, r, "shift fetched", shift)
}

func (h *Handler) RescheduleShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Window            *windowRequest `json:"window"`
		WorkerID          *string        `json:"workerID"`
		Strict            bool           `json:"strict"`
		AllowHardOverride bool           `json:"allowHardOverride"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	orgID := r.Context().Value(OrgCtxKey).(string)
	shift := r.Context().Value(ShiftCtxKey).(*domain.Shift)

	var newWindow *domain.Window
	if req.Window != nil {
		win := req.Window.toDomain()
		newWindow = &win
	}

	opts := scheduling.ScheduleOptions{Strict: req.Strict, AllowHardOverride: req.AllowHardOverride}
	updated, report, err := h.lifecycle.RescheduleShift(r.Context(), orgID, shift.ID, newWindow, req.WorkerID, opts)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift rescheduled", map[string]any{
		"shift":  updated,
		"report": report,
	})
}

func (h *Handler) ScheduleShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Strict            bool `json:"strict"`
		AllowHardOverride bool `json:"allowHardOverride"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	orgID := r.Context().Value(OrgCtxKey).(string)
	shift := r.Context().Value(ShiftCtxKey).(*domain.Shift)

	opts := scheduling.ScheduleOptions{Strict: req.Strict, AllowHardOverride: req.AllowHardOverride}
	updated, report, err := h.lifecycle.ScheduleShift(r.Context(), orgID, shift.ID, opts)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift scheduled", map[string]any{
		"shift":  updated,
		"report": report,
	})
}

func (h *Handler) StartShift(w http.ResponseWriter, r *http.Request) {
	orgID := r.Context().Value(OrgCtxKey).(string)
	shift := r.Context().Value(ShiftCtxKey).(*domain.Shift)

	updated, err := h.lifecycle.StartShift(r.Context(), orgID, shift.ID)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift started", updated)
}

func (h *Handler) CompleteShift(w http.ResponseWriter, r *http.Request) {
	orgID := r.Context().Value(OrgCtxKey).(string)
	shift := r.Context().Value(ShiftCtxKey).(*domain.Shift)

	updated, err := h.lifecycle.CompleteShift(r.Context(), orgID, shift.ID)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift completed", updated)
}

func (h *Handler) CancelShift(w http.ResponseWriter, r *http.Request) {
	orgID := r.Context().Value(OrgCtxKey).(string)
	shift := r.Context().Value(ShiftCtxKey).(*domain.Shift)

	updated, err := h.lifecycle.CancelShift(r.Context(), orgID, shift.ID)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "shift cancelled", updated)
}

func (h *Handler) CheckConflict(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WorkerID       string           `json:"workerID" validate:"required"`
		Window         windowRequest    `json:"window" validate:"required"`
		ClientID       *string          `json:"clientID"`
		Location       *domain.Location `json:"location"`
		ExcludeShiftID string           `json:"excludeShiftID"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	orgID := r.Context().Value(OrgCtxKey).(string)
	cand := scheduling.Candidate{
		Window:   req.Window.toDomain(),
		ClientID: req.ClientID,
		Location: req.Location,
	}

	report, err := h.detector.CheckConflict(r.Context(), orgID, req.WorkerID, cand, req.ExcludeShiftID)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "conflict check done", report)
}
