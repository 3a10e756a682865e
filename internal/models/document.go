package models

import (
	"time"

	"github.com/google/uuid"
)

type DocumentType string

const (
	DocumentTypePDF     DocumentType = "pdf"
	DocumentTypeDOCX    DocumentType = "docx"
	DocumentTypeUnknown DocumentType = ""
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// UploadedDocument is the immutable record of an accepted upload.
type UploadedDocument struct {
	ID               uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	OriginalFilename string       `gorm:"type:text;not null" json:"original_filename"`
	StoredPath       string       `gorm:"type:text;not null" json:"stored_path"`
	ContentType      string       `gorm:"type:text" json:"content_type"`
	DocumentType     DocumentType `gorm:"type:varchar(16);not null" json:"document_type"`
	FileSize         int64        `json:"file_size"`
	UploadIP         string       `gorm:"type:varchar(64)" json:"upload_ip,omitempty"`
	UserAgent        string       `gorm:"type:text" json:"user_agent,omitempty"`
	CreatedAt        time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

func (UploadedDocument) TableName() string {
	return "uploaded_documents"
}
