package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alfredoptarigan/resume-parser/internal/common"
	"alfredoptarigan/resume-parser/internal/models"
)

// ResumeRepository is the persistence gateway for uploads and their
// extraction results. Records are immutable once saved.
type ResumeRepository interface {
	Save(ctx context.Context, doc *models.UploadedDocument, record *models.ResumeRecord) error
	Get(ctx context.Context, documentID uuid.UUID) (*models.ResumeRecord, error)
	ListRecent(ctx context.Context, limit int) ([]models.ResumeRecord, error)
}

type resumeRepository struct {
	db *gorm.DB
}

func NewResumeRepository(db *gorm.DB) ResumeRepository {
	return &resumeRepository{db: db}
}

// Save implements ResumeRepository. Both rows are written in a single
// transaction; on any failure neither is visible.
func (r *resumeRepository) Save(ctx context.Context, doc *models.UploadedDocument, record *models.ResumeRecord) error {
	if doc == nil || record == nil {
		return common.NewError(common.ErrPersistence, "document and record are required", nil)
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.DocumentID = doc.ID

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return fmt.Errorf("failed to create document: %w", err)
		}
		if err := tx.Omit(clause.Associations).Create(record).Error; err != nil {
			return fmt.Errorf("failed to create resume record: %w", err)
		}
		return nil
	})
	if err != nil {
		return common.NewError(common.ErrPersistence, "failed to save resume", err)
	}

	record.Document = *doc
	return nil
}

// Get implements ResumeRepository.
func (r *resumeRepository) Get(ctx context.Context, documentID uuid.UUID) (*models.ResumeRecord, error) {
	var record models.ResumeRecord
	err := r.db.WithContext(ctx).
		Preload("Document").
		Where("document_id = ?", documentID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewError(common.ErrNotFound, fmt.Sprintf("no resume for document %s", documentID), nil)
		}
		return nil, common.NewError(common.ErrPersistence, "failed to find resume", err)
	}

	return &record, nil
}

// ListRecent implements ResumeRepository.
func (r *resumeRepository) ListRecent(ctx context.Context, limit int) ([]models.ResumeRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	var records []models.ResumeRecord
	err := r.db.WithContext(ctx).
		Preload("Document").
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, common.NewError(common.ErrPersistence, "failed to list resumes", err)
	}

	return records, nil
}
