package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/domain"
	"github.com/AliAon/FixFixnanz-sub000/internal/importer"
)

type stubUploadAPI struct {
	calls int
}

func (s *stubUploadAPI) ImportContacts(ctx context.Context, filename, contentType string, data io.Reader, pipelineID, stageID string) (*domain.ImportResult, error) {
	s.calls++
	return &domain.ImportResult{StageID: stageID, ImportedCount: 1}, nil
}

type stubArchive struct{}

func (stubArchive) Store(ctx context.Context, filename string, contentType string, data io.Reader) (string, int64, error) {
	return "stub/" + filename, 0, nil
}
func (stubArchive) Open(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(nil)), nil
}
func (stubArchive) Delete(ctx context.Context, storagePath string) error { return nil }

type stubNotifier struct{}

func (stubNotifier) Success(string) {}
func (stubNotifier) Error(string)   {}
func (stubNotifier) Warning(string) {}

func multipartUpload(t *testing.T, filename string, fields map[string]string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("name,email\n"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func newImportHandler(api importer.UploadAPI) *ImportHandler {
	imp := importer.New(api, stubArchive{}, stubNotifier{}, zap.NewNop(), 1)
	return NewImportHandler(imp, nil, 1, zap.NewNop())
}

func TestImportHandler_MissingFieldsRejected(t *testing.T) {
	api := &stubUploadAPI{}
	h := newImportHandler(api)

	req := multipartUpload(t, "leads.csv", map[string]string{"pipeline_id": "p1"})
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, api.calls)
}

func TestImportHandler_MissingFileRejected(t *testing.T) {
	api := &stubUploadAPI{}
	h := newImportHandler(api)

	req := multipartUpload(t, "", map[string]string{"pipeline_id": "p1", "stage_id": "s1"})
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, api.calls)
}

func TestImportHandler_DisallowedTypeIs415WithoutUpstreamCall(t *testing.T) {
	api := &stubUploadAPI{}
	h := newImportHandler(api)

	req := multipartUpload(t, "notes.txt", map[string]string{"pipeline_id": "p1", "stage_id": "s1"})
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, 0, api.calls)
}
