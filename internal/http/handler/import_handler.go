package handler

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/importer"
	"github.com/AliAon/FixFixnanz-sub000/internal/sync"
)

// ImportHandler handles bulk contact imports from spreadsheet uploads.
type ImportHandler struct {
	importer    *importer.Importer
	controller  *sync.Controller
	maxUploadMB int64
	logger      *zap.Logger
}

// NewImportHandler creates a new ImportHandler instance
func NewImportHandler(imp *importer.Importer, controller *sync.Controller, maxUploadMB int64, logger *zap.Logger) *ImportHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 20
	}
	return &ImportHandler{
		importer:    imp,
		controller:  controller,
		maxUploadMB: maxUploadMB,
		logger:      logger,
	}
}

// Upload accepts a multipart form with a "file" part plus pipeline_id
// and stage_id fields. Disallowed file types are rejected here without
// any upstream call.
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadMB*1024*1024)

	if err := r.ParseMultipartForm(h.maxUploadMB * 1024 * 1024); err != nil {
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB))
		return
	}

	pipelineID := r.FormValue("pipeline_id")
	stageID := r.FormValue("stage_id")
	if pipelineID == "" || stageID == "" {
		respondWithError(w, http.StatusBadRequest, "pipeline_id and stage_id are required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	result, err := h.importer.Import(
		r.Context(),
		header.Filename,
		header.Header.Get("Content-Type"),
		file,
		pipelineID,
		stageID,
	)
	if err != nil {
		var unsupported *importer.ErrUnsupportedFileType
		if errors.As(err, &unsupported) {
			respondWithError(w, http.StatusUnsupportedMediaType, unsupported.Error())
			return
		}
		respondRemoteError(w, err)
		return
	}

	h.controller.RecordImport(r.Context(), result)
	respondJSON(w, http.StatusOK, result)
}
