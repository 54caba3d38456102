package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BlobArchive keeps import files in an Azure Blob Storage container.
type BlobArchive struct {
	client        *azblob.Client
	containerName string
	logger        *zap.Logger
}

// NewBlobArchive connects to the storage account and ensures the
// container exists.
func NewBlobArchive(connectionString, containerName string, logger *zap.Logger) (*BlobArchive, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	_, err = client.CreateContainer(context.Background(), containerName, nil)
	if err != nil && !strings.Contains(err.Error(), "ContainerAlreadyExists") {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	logger.Info("import archive container ready",
		zap.String("container", containerName),
	)

	return &BlobArchive{
		client:        client,
		containerName: containerName,
		logger:        logger,
	}, nil
}

// Store uploads the file under a fresh uuid blob name, keeping the
// original extension.
func (a *BlobArchive) Store(ctx context.Context, filename string, contentType string, data io.Reader) (string, int64, error) {
	fileID := uuid.New().String()
	blobName := fileID + filepath.Ext(filename)

	uploadOptions := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &contentType,
		},
	}

	reader := &countingReader{r: data}

	if _, err := a.client.UploadStream(ctx, a.containerName, blobName, reader, uploadOptions); err != nil {
		return "", 0, fmt.Errorf("failed to upload blob: %w", err)
	}

	a.logger.Info("import file archived",
		zap.String("blob_name", blobName),
		zap.String("original_filename", filename),
		zap.Int64("size", reader.count),
	)

	return blobName, reader.count, nil
}

// countingReader wraps an io.Reader and counts the bytes read through it.
type countingReader struct {
	r     io.Reader
	count int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.count += int64(n)
	return n, err
}

// Open streams an archived blob.
func (a *BlobArchive) Open(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	resp, err := a.client.DownloadStream(ctx, a.containerName, storagePath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	return resp.Body, nil
}

// Delete removes an archived blob. A missing blob is not an error.
func (a *BlobArchive) Delete(ctx context.Context, storagePath string) error {
	_, err := a.client.DeleteBlob(ctx, a.containerName, storagePath, nil)
	if err != nil {
		if strings.Contains(err.Error(), "BlobNotFound") {
			return nil
		}
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}
