package models

import "time"

type UploadResponse struct {
	DocumentID          string     `json:"document_id"`
	Message             string     `json:"message"`
	ExtractedResumeData ResumeData `json:"extracted_resume_data"`
}

type ResumeResponse struct {
	DocumentID    string     `json:"document_id"`
	Filename      string     `json:"filename"`
	ExtractedData ResumeData `json:"extracted_data"`
	CreatedAt     time.Time  `json:"created_at"`
}

type SimilarProfile struct {
	DocumentID string  `json:"document_id"`
	Name       string  `json:"name,omitempty"`
	Score      float32 `json:"score"`
}

type SimilarResponse struct {
	DocumentID string           `json:"document_id"`
	Matches    []SimilarProfile `json:"matches"`
}

type ErrorResponse struct {
	Error  string       `json:"error"`
	Detail string       `json:"detail"`
	Fields []FieldIssue `json:"fields,omitempty"`
}

type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
