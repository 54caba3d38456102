package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/domain"
	"github.com/AliAon/FixFixnanz-sub000/internal/sync"
)

// ContactHandler handles the quick-add contact form.
type ContactHandler struct {
	controller *sync.Controller
	logger     *zap.Logger
}

// NewContactHandler creates a new ContactHandler instance
func NewContactHandler(controller *sync.Controller, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{controller: controller, logger: logger}
}

// Create creates one contact in a known stage. The stage's count is
// bumped optimistically; the periodic recount makes it authoritative.
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateContactRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	record, err := h.controller.CreateContact(r.Context(), &req)
	if err != nil {
		respondRemoteError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, record)
}
