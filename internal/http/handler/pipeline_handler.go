package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/domain"
	"github.com/AliAon/FixFixnanz-sub000/internal/store"
)

// validPipelineTypes contains all valid pipeline type values
var validPipelineTypes = map[string]bool{
	string(domain.PipelineTypeNormal):   true,
	string(domain.PipelineTypeLeadpool): true,
	string(domain.PipelineTypeMeta):     true,
	string(domain.PipelineTypeAgency):   true,
	string(domain.PipelineTypeProfile):  true,
}

// PipelineHandler handles HTTP requests for pipeline management
type PipelineHandler struct {
	pipelines *store.PipelineStore
	logger    *zap.Logger
}

// NewPipelineHandler creates a new PipelineHandler instance
func NewPipelineHandler(pipelines *store.PipelineStore, logger *zap.Logger) *PipelineHandler {
	return &PipelineHandler{pipelines: pipelines, logger: logger}
}

// List refreshes and returns the consultant's pipelines for one type
// partition. Type defaults to "normal"; agency pipelines are never
// mixed into the default listing.
func (h *PipelineHandler) List(w http.ResponseWriter, r *http.Request) {
	pipelineType := r.URL.Query().Get("type")
	if pipelineType == "" {
		pipelineType = string(domain.PipelineTypeNormal)
	}
	if !validPipelineTypes[pipelineType] {
		respondWithError(w, http.StatusBadRequest, "invalid pipeline type: must be one of normal, leadpool, meta, agency, profile")
		return
	}

	if err := h.pipelines.FetchAll(r.Context(), domain.PipelineType(pipelineType)); err != nil {
		respondRemoteError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.pipelines.Snapshot())
}

// Create creates a pipeline.
func (h *PipelineHandler) Create(w http.ResponseWriter, r *http.Request) {
	var pipeline domain.Pipeline
	if err := decodeJSON(r, &pipeline); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if pipeline.Name == "" {
		respondWithError(w, http.StatusBadRequest, "name is required")
		return
	}

	created, err := h.pipelines.Create(r.Context(), &pipeline)
	if err != nil {
		respondRemoteError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// Update updates a pipeline by id.
func (h *PipelineHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var pipeline domain.Pipeline
	if err := decodeJSON(r, &pipeline); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.pipelines.Update(r.Context(), id, &pipeline)
	if err != nil {
		respondRemoteError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// Delete deletes a pipeline by id.
func (h *PipelineHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.pipelines.Delete(r.Context(), id); err != nil {
		respondRemoteError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
