// Package storage archives accepted import spreadsheets. Every file
// that passes the local import gate is kept, either on disk or in Azure
// Blob Storage, so a disputed bulk import can be replayed against the
// exact bytes that were sent.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/config"
)

// Archive stores and retrieves import files by an opaque storage path.
type Archive interface {
	Store(ctx context.Context, filename string, contentType string, data io.Reader) (string, int64, error)
	Open(ctx context.Context, storagePath string) (io.ReadCloser, error)
	Delete(ctx context.Context, storagePath string) error
}

// NewArchive creates an archive for the configured mode: "local" keeps
// files on the local filesystem, "azure" in Azure Blob Storage.
func NewArchive(cfg *config.StorageConfig, logger *zap.Logger) (Archive, error) {
	switch cfg.Mode {
	case "local":
		return NewLocalArchive(cfg.LocalBasePath)
	case "azure", "cloud":
		if cfg.CloudConnectionString == "" {
			return nil, fmt.Errorf("cloud connection string required for azure archive")
		}
		return NewBlobArchive(cfg.CloudConnectionString, cfg.CloudContainer, logger)
	default:
		return nil, fmt.Errorf("unsupported archive mode: %s", cfg.Mode)
	}
}

// LocalArchive keeps import files on the local filesystem, fanned out
// under two levels of uuid-prefix directories.
type LocalArchive struct {
	basePath string
}

// NewLocalArchive creates the base directory if needed.
func NewLocalArchive(basePath string) (*LocalArchive, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &LocalArchive{basePath: basePath}, nil
}

// Store writes the file under a fresh uuid, keeping the original
// extension, and returns the relative storage path and byte size.
func (a *LocalArchive) Store(ctx context.Context, filename string, contentType string, data io.Reader) (string, int64, error) {
	fileID := uuid.New().String()
	ext := filepath.Ext(filename)
	storagePath := filepath.Join(fileID[:2], fileID[2:4], fileID+ext)
	fullPath := filepath.Join(a.basePath, storagePath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, data)
	if err != nil {
		os.Remove(fullPath)
		return "", 0, fmt.Errorf("failed to write file: %w", err)
	}

	return storagePath, size, nil
}

// Open returns the archived file for reading.
func (a *LocalArchive) Open(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	fullPath := filepath.Join(a.basePath, storagePath)

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", storagePath)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes an archived file. Deleting a missing file is not an
// error.
func (a *LocalArchive) Delete(ctx context.Context, storagePath string) error {
	fullPath := filepath.Join(a.basePath, storagePath)

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
