package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shiftline/scheduler/backend/internal/scheduling"
)

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	slog.Error("internal server error", "method", r.Method, "path", r.URL.Path, "error", err)
}

func (h *Handler) readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
	Data    any    `json:"data"`
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, msg string) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: false,
		Message: msg,
		Data:    nil,
	})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		h.errorResponse(w, r, err.Error())
		return
	}

	h.errorResponse(w, r, validationErrors[0].Translate(h.translator))
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.writeJSON(w, r, http.StatusInternalServerError, Response{
		Success: false,
		Message: "internal server error",
		Data:    nil,
	})
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

// engineError maps the engine's typed errors onto the response envelope. The
// conflict report, when present, rides along in data so the caller can show
// the human scheduler what collided.
func (h *Handler) engineError(w http.ResponseWriter, r *http.Request, err error) {
	var confErr *scheduling.ConflictError

	switch {
	case errors.As(err, &confErr):
		h.writeJSON(w, r, http.StatusOK, Response{
			Success: false,
			Message: confErr.Error(),
			Kind:    "HardConflict",
			Data:    confErr.Report,
		})
	case errors.Is(err, scheduling.ErrInvalidRequest):
		h.writeJSON(w, r, http.StatusOK, Response{
			Success: false,
			Message: err.Error(),
			Kind:    "InvalidRequest",
		})
	case errors.Is(err, scheduling.ErrNotFound):
		h.writeJSON(w, r, http.StatusOK, Response{
			Success: false,
			Message: err.Error(),
			Kind:    "NotFound",
		})
	case errors.Is(err, scheduling.ErrInvalidTransition):
		h.writeJSON(w, r, http.StatusOK, Response{
			Success: false,
			Message: err.Error(),
			Kind:    "InvalidTransition",
		})
	case errors.Is(err, scheduling.ErrConcurrentModification):
		h.writeJSON(w, r, http.StatusOK, Response{
			Success: false,
			Message: "the shift was modified concurrently, re-fetch and retry",
			Kind:    "ConcurrentModification",
		})
	default:
		h.internalServerError(w, r, err)
	}
}
