package importer

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/domain"
)

type fakeUploadAPI struct {
	calls    int
	lastName string
	lastBody string
	result   *domain.ImportResult
	err      error
}

func (f *fakeUploadAPI) ImportContacts(ctx context.Context, filename, contentType string, data io.Reader, pipelineID, stageID string) (*domain.ImportResult, error) {
	f.calls++
	f.lastName = filename
	body, _ := io.ReadAll(data)
	f.lastBody = string(body)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &domain.ImportResult{StageID: stageID, ImportedCount: 1}, nil
}

type fakeArchive struct {
	stored   int
	lastName string
	lastBody string
	err      error
}

func (f *fakeArchive) Store(ctx context.Context, filename string, contentType string, data io.Reader) (string, int64, error) {
	if f.err != nil {
		return "", 0, f.err
	}
	f.stored++
	f.lastName = filename
	body, _ := io.ReadAll(data)
	f.lastBody = string(body)
	return "aa/bb/" + filename, int64(len(body)), nil
}

func (f *fakeArchive) Open(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader([]byte(f.lastBody))), nil
}

func (f *fakeArchive) Delete(ctx context.Context, storagePath string) error { return nil }

type fakeNotifier struct {
	errors    []string
	successes []string
}

func (n *fakeNotifier) Success(msg string) { n.successes = append(n.successes, msg) }
func (n *fakeNotifier) Error(msg string)   { n.errors = append(n.errors, msg) }
func (n *fakeNotifier) Warning(msg string) {}

func TestImporter_RejectsDisallowedExtensionLocally(t *testing.T) {
	api := &fakeUploadAPI{}
	notifier := &fakeNotifier{}
	imp := New(api, &fakeArchive{}, notifier, zap.NewNop(), 1)

	_, err := imp.Import(context.Background(), "notes.txt", "text/plain", strings.NewReader("hello"), "p1", "s1")

	var unsupported *ErrUnsupportedFileType
	require.ErrorAs(t, err, &unsupported)
	// The rejection never reaches the remote API.
	assert.Equal(t, 0, api.calls)
	assert.Len(t, notifier.errors, 1)
}

func TestImporter_RejectsMismatchedContentType(t *testing.T) {
	api := &fakeUploadAPI{}
	imp := New(api, &fakeArchive{}, &fakeNotifier{}, zap.NewNop(), 1)

	_, err := imp.Import(context.Background(), "leads.csv", "application/pdf", strings.NewReader("x"), "p1", "s1")

	var unsupported *ErrUnsupportedFileType
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, 0, api.calls)
}

func TestImporter_AcceptsSpreadsheetTypes(t *testing.T) {
	cases := []struct {
		filename    string
		contentType string
	}{
		{"leads.csv", "text/csv"},
		{"leads.CSV", "text/csv; charset=utf-8"},
		{"leads.xls", "application/vnd.ms-excel"},
		{"leads.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"leads.csv", ""},
		{"leads.xlsx", "application/octet-stream"},
	}

	for _, c := range cases {
		api := &fakeUploadAPI{}
		imp := New(api, &fakeArchive{}, &fakeNotifier{}, zap.NewNop(), 1)

		_, err := imp.Import(context.Background(), c.filename, c.contentType, strings.NewReader("data"), "p1", "s1")
		require.NoError(t, err, c.filename)
		assert.Equal(t, 1, api.calls, c.filename)
	}
}

func TestImporter_ArchivesBeforeUpload(t *testing.T) {
	api := &fakeUploadAPI{}
	archive := &fakeArchive{}
	imp := New(api, archive, &fakeNotifier{}, zap.NewNop(), 1)

	content := "name,email\nAnna,a@example.com\n"
	result, err := imp.Import(context.Background(), "leads.csv", "text/csv", strings.NewReader(content), "p1", "s1")
	require.NoError(t, err)

	assert.Equal(t, 1, archive.stored)
	assert.Equal(t, content, archive.lastBody)
	// The upload sees the same bytes the archive kept.
	assert.Equal(t, content, api.lastBody)
	assert.Equal(t, "s1", result.StageID)
}

func TestImporter_ArchiveFailureDoesNotBlockImport(t *testing.T) {
	api := &fakeUploadAPI{}
	archive := &fakeArchive{err: io.ErrClosedPipe}
	imp := New(api, archive, &fakeNotifier{}, zap.NewNop(), 1)

	_, err := imp.Import(context.Background(), "leads.csv", "text/csv", strings.NewReader("x"), "p1", "s1")

	require.NoError(t, err)
	assert.Equal(t, 1, api.calls)
}

func TestImporter_UploadFailureNotifiesEnvelopeMessage(t *testing.T) {
	api := &fakeUploadAPI{err: &domain.RemoteError{Status: 422, Message: "Datei konnte nicht verarbeitet werden"}}
	notifier := &fakeNotifier{}
	imp := New(api, &fakeArchive{}, notifier, zap.NewNop(), 1)

	_, err := imp.Import(context.Background(), "leads.csv", "text/csv", strings.NewReader("x"), "p1", "s1")

	require.Error(t, err)
	require.Len(t, notifier.errors, 1)
	assert.Equal(t, "Datei konnte nicht verarbeitet werden", notifier.errors[0])
}

func TestImporter_OversizedFileRejected(t *testing.T) {
	api := &fakeUploadAPI{}
	imp := New(api, &fakeArchive{}, &fakeNotifier{}, zap.NewNop(), 1)

	big := strings.NewReader(strings.Repeat("a", 1<<20+1))
	_, err := imp.Import(context.Background(), "leads.csv", "text/csv", big, "p1", "s1")

	require.Error(t, err)
	assert.Equal(t, 0, api.calls)
}

func TestImporter_ResultStageDefaultsToRequest(t *testing.T) {
	api := &fakeUploadAPI{result: &domain.ImportResult{ImportedCount: 5}}
	imp := New(api, &fakeArchive{}, &fakeNotifier{}, zap.NewNop(), 1)

	result, err := imp.Import(context.Background(), "leads.csv", "text/csv", strings.NewReader("x"), "p1", "s9")
	require.NoError(t, err)
	assert.Equal(t, "s9", result.StageID)
	assert.Equal(t, 5, result.ImportedCount)
}
