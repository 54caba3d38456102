package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/domain"
	"github.com/AliAon/FixFixnanz-sub000/internal/sync"
)

// TransferHandler handles bulk customer transfers into agency pipelines.
type TransferHandler struct {
	controller *sync.Controller
	logger     *zap.Logger
}

// NewTransferHandler creates a new TransferHandler instance
func NewTransferHandler(controller *sync.Controller, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{controller: controller, logger: logger}
}

// Transfer moves the selected customers into a stage of an agency
// pipeline. The response carries the target pipeline id so the frontend
// can navigate to it.
func (h *TransferHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req domain.TransferRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.controller.Transfer(r.Context(), &req)
	if err != nil {
		respondRemoteError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
