package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"alfredoptarigan/resume-parser/internal/models"
)

// StorageService keeps the original upload bytes. Files are written once
// under generated names and never overwritten.
type StorageService interface {
	SaveFile(ctx context.Context, docID uuid.UUID, docType models.DocumentType, data []byte) (string, error)
	DeleteFile(ctx context.Context, storedPath string) error
	EnsureUploadDir(ctx context.Context) error
}

type storageService struct {
	uploadPath string
}

func NewStorageService(uploadPath string) StorageService {
	return &storageService{
		uploadPath: uploadPath,
	}
}

// storedName is the write-once name of a document's blob.
func storedName(docID uuid.UUID, docType models.DocumentType) string {
	return fmt.Sprintf("%s.%s", docID.String(), docType)
}

func (s *storageService) EnsureUploadDir(ctx context.Context) error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	return nil
}

func (s *storageService) SaveFile(ctx context.Context, docID uuid.UUID, docType models.DocumentType, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	filePath := filepath.Join(s.uploadPath, storedName(docID, docType))

	// O_EXCL keeps an existing blob from being replaced
	dst, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err := dst.Write(data); err != nil {
		dst.Close()
		os.Remove(filePath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return filePath, nil
}

func (s *storageService) DeleteFile(ctx context.Context, storedPath string) error {
	if err := os.Remove(storedPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
