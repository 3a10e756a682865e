package services

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"alfredoptarigan/resume-parser/internal/config"
	"alfredoptarigan/resume-parser/internal/models"
)

type minioStorageService struct {
	client *minio.Client
	bucket string
	region string
}

// NewMinIOStorageService stores uploads in an S3-compatible bucket. The
// stored path is the object key.
func NewMinIOStorageService(cfg config.MinIOConfig) (StorageService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &minioStorageService{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
	}, nil
}

func (m *minioStorageService) EnsureUploadDir(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %q: %w", m.bucket, err)
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region}); err != nil {
		return fmt.Errorf("failed to create bucket %q: %w", m.bucket, err)
	}
	log.Printf("✅ Bucket '%s' created", m.bucket)
	return nil
}

func (m *minioStorageService) SaveFile(ctx context.Context, docID uuid.UUID, docType models.DocumentType, data []byte) (string, error) {
	key := "resumes/" + storedName(docID, docType)

	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: ContentTypeFor(docType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %q: %w", key, err)
	}

	return key, nil
}

func (m *minioStorageService) DeleteFile(ctx context.Context, storedPath string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, storedPath, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %q: %w", storedPath, err)
	}
	return nil
}
