package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ContactInfo struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
}

type WorkExperience struct {
	Role             string   `json:"role"`
	Company          string   `json:"company"`
	Duration         string   `json:"duration,omitempty"`
	Responsibilities []string `json:"responsibilities"`
}

type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year,omitempty"`
	GPA         string `json:"gpa,omitempty"`
}

// ResumeData is the structured profile extracted from one resume.
type ResumeData struct {
	ContactInfo    ContactInfo      `json:"contact_info"`
	Summary        string           `json:"summary,omitempty"`
	WorkExperience []WorkExperience `json:"work_experience"`
	Education      []Education      `json:"education"`
	Skills         []string         `json:"skills"`
	Certifications []string         `json:"certifications"`
}

// ResumeRecord stores the extraction result for exactly one uploaded document.
type ResumeRecord struct {
	ID         uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID uuid.UUID                      `gorm:"type:uuid;not null;uniqueIndex" json:"document_id"`
	Data       datatypes.JSONType[ResumeData] `json:"data"`
	ChunkCount int                            `json:"chunk_count"`
	Model      string                         `gorm:"type:text" json:"model"`
	CreatedAt  time.Time                      `gorm:"autoCreateTime" json:"created_at"`

	Document UploadedDocument `gorm:"foreignKey:DocumentID" json:"document"`
}

func (ResumeRecord) TableName() string {
	return "resume_records"
}
