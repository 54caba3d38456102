package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/domain"
	"github.com/AliAon/FixFixnanz-sub000/internal/sync"
)

// DashboardHandler serves the dashboard view state and the selection
// operations that mutate it. Every response carrying data returns the
// full view state so the frontend renders from one consistent snapshot.
type DashboardHandler struct {
	controller *sync.Controller
	logger     *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler instance
func NewDashboardHandler(controller *sync.Controller, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{controller: controller, logger: logger}
}

// GetState returns the current dashboard snapshot.
func (h *DashboardHandler) GetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.controller.ViewState())
}

// SelectPipeline switches the dashboard to a different pipeline and
// runs the full load sequence. The response is the post-switch state;
// a fetch failure still returns 200 with the error embedded, because
// the dashboard renders the empty state rather than a failure page.
func (h *DashboardHandler) SelectPipeline(w http.ResponseWriter, r *http.Request) {
	var req domain.SelectPipelineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	if req.Type != "" {
		if err := h.controller.LoadPipelines(r.Context(), req.Type); err != nil {
			h.logger.Warn("pipeline list refresh failed during switch", zap.Error(err))
		}
	}

	if err := h.controller.SelectPipeline(r.Context(), req.PipelineID); err != nil {
		h.logger.Warn("pipeline switch failed",
			zap.String("pipeline_id", req.PipelineID),
			zap.Error(err),
		)
	}

	respondJSON(w, http.StatusOK, h.controller.ViewState())
}

// SelectStage activates a stage filter and loads its contacts.
func (h *DashboardHandler) SelectStage(w http.ResponseWriter, r *http.Request) {
	var req domain.SelectStageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := h.controller.SelectStage(r.Context(), req.StageID); err != nil {
		h.logger.Warn("stage selection failed",
			zap.String("stage_id", req.StageID),
			zap.Error(err),
		)
	}

	respondJSON(w, http.StatusOK, h.controller.ViewState())
}

// ToggleSelection flips one contact row checkbox.
func (h *DashboardHandler) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	var req domain.ToggleSelectionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	h.controller.ToggleContact(req.ContactID)
	respondJSON(w, http.StatusOK, h.controller.ViewState())
}

// ToggleAllSelection applies the select-all checkbox over the visible
// contacts.
func (h *DashboardHandler) ToggleAllSelection(w http.ResponseWriter, r *http.Request) {
	h.controller.ToggleAllContacts()
	respondJSON(w, http.StatusOK, h.controller.ViewState())
}

// RefreshCounts triggers an authoritative stage-count recompute.
func (h *DashboardHandler) RefreshCounts(w http.ResponseWriter, r *http.Request) {
	h.controller.RefreshCounts(r.Context())
	respondJSON(w, http.StatusOK, h.controller.ViewState())
}
