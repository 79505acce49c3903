package handler

import (
	"net/http"

	"github.com/shiftline/scheduler/backend/internal/domain"
)

func (h *Handler) FindBestMatches(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Window         windowRequest    `json:"window" validate:"required"`
		RequiredSkills []string         `json:"requiredSkills"`
		Location       *domain.Location `json:"location"`
		Limit          int              `json:"limit"`
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
	requirements := domain.ShiftRequirements{
		Window:         req.Window.toDomain(),
		RequiredSkills: req.RequiredSkills,
		Location:       req.Location,
	}

	matches, err := h.matcher.FindBestMatches(r.Context(), orgID, requirements, req.Limit)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "matches ranked", matches)
}
