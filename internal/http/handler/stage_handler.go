package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/domain"
	"github.com/AliAon/FixFixnanz-sub000/internal/store"
)

// StageHandler handles HTTP requests for stage management within the
// active pipeline.
type StageHandler struct {
	stages *store.StageStore
	logger *zap.Logger
}

// NewStageHandler creates a new StageHandler instance
func NewStageHandler(stages *store.StageStore, logger *zap.Logger) *StageHandler {
	return &StageHandler{stages: stages, logger: logger}
}

// List returns the active pipeline's stages in position order.
func (h *StageHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.stages.Snapshot())
}

// Create adds a stage to a pipeline.
func (h *StageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateStageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	stage, err := h.stages.Create(r.Context(), &req)
	if err != nil {
		respondRemoteError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, stage)
}

// Update renames, recolors or repositions a stage.
func (h *StageHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req domain.UpdateStageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	stage, err := h.stages.Update(r.Context(), id, &req)
	if err != nil {
		respondRemoteError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stage)
}

// Delete removes a stage by id.
func (h *StageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.stages.Delete(r.Context(), id); err != nil {
		respondRemoteError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
