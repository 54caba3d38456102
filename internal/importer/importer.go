// Package importer handles bulk contact imports from spreadsheet files.
// File validation happens locally, before any bytes travel: a file with
// a disallowed type is rejected with a notification and the remote API
// is never called for it.
package importer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/domain"
	"github.com/AliAon/FixFixnanz-sub000/internal/notify"
	"github.com/AliAon/FixFixnanz-sub000/internal/storage"
)

// allowedExtensions are the spreadsheet types the upstream import
// endpoint accepts. The gate is extension-first with a MIME cross-check
// because browsers are inconsistent about spreadsheet content types.
var allowedExtensions = map[string]struct{}{
	".csv":  {},
	".xls":  {},
	".xlsx": {},
}

var allowedContentTypes = map[string]struct{}{
	"text/csv":                 {},
	"application/csv":          {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
	"application/octet-stream": {},
	"": {},
}

// ErrUnsupportedFileType rejects a file before upload.
type ErrUnsupportedFileType struct {
	Filename string
}

func (e *ErrUnsupportedFileType) Error() string {
	return fmt.Sprintf("unsupported file type: %s (allowed: .csv, .xls, .xlsx)", e.Filename)
}

// UploadAPI is the slice of the remote client the importer needs.
type UploadAPI interface {
	ImportContacts(ctx context.Context, filename, contentType string, data io.Reader, pipelineID, stageID string) (*domain.ImportResult, error)
}

// Importer validates, archives and uploads import spreadsheets.
type Importer struct {
	api      UploadAPI
	archive  storage.Archive
	notifier notify.Notifier
	logger   *zap.Logger
	maxSize  int64
}

// New creates an importer. maxSizeMB bounds the accepted file size;
// zero means the default of 20 MB.
func New(api UploadAPI, archive storage.Archive, notifier notify.Notifier, logger *zap.Logger, maxSizeMB int64) *Importer {
	if maxSizeMB <= 0 {
		maxSizeMB = 20
	}
	return &Importer{
		api:      api,
		archive:  archive,
		notifier: notifier,
		logger:   logger,
		maxSize:  maxSizeMB << 20,
	}
}

// Import runs the full sequence for one file: local type gate, size
// gate, archive, upload. Rejections notify and return before any remote
// call.
func (i *Importer) Import(ctx context.Context, filename, contentType string, data io.Reader, pipelineID, stageID string) (*domain.ImportResult, error) {
	if err := i.validate(filename, contentType); err != nil {
		i.notifier.Error("Only CSV and Excel files can be imported")
		return nil, err
	}

	// Buffer once so the same bytes feed the archive and the upload.
	buf := &bytes.Buffer{}
	n, err := io.Copy(buf, io.LimitReader(data, i.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	if n > i.maxSize {
		i.notifier.Error("Import file is too large")
		return nil, fmt.Errorf("import file exceeds %d bytes", i.maxSize)
	}

	storagePath, size, err := i.archive.Store(ctx, filename, contentType, bytes.NewReader(buf.Bytes()))
	if err != nil {
		// Archiving is best-effort; the import itself still proceeds.
		i.logger.Warn("failed to archive import file",
			zap.String("filename", filename),
			zap.Error(err),
		)
	} else {
		i.logger.Info("import file archived",
			zap.String("filename", filename),
			zap.String("storage_path", storagePath),
			zap.Int64("size", size),
		)
	}

	result, err := i.api.ImportContacts(ctx, filename, contentType, bytes.NewReader(buf.Bytes()), pipelineID, stageID)
	if err != nil {
		i.notifier.Error(domain.UserMessage(err))
		return nil, err
	}
	if result.StageID == "" {
		result.StageID = stageID
	}

	i.notifier.Success(fmt.Sprintf("%d contacts imported", result.ImportedCount))
	return result, nil
}

func (i *Importer) validate(filename, contentType string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return &ErrUnsupportedFileType{Filename: filename}
	}

	mediaType := contentType
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = mediaType[:idx]
	}
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))
	if _, ok := allowedContentTypes[mediaType]; !ok {
		return &ErrUnsupportedFileType{Filename: filename}
	}
	return nil
}
