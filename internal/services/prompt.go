package services

import (
	"fmt"

	"alfredoptarigan/resume-parser/internal/models"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildSystemPrompt creates the instruction shared by every extraction call
func (pb *PromptBuilder) BuildSystemPrompt() string {
	return `You are an expert resume parser with extensive experience in extracting structured information from resumes and CVs.

Extract the following information from the resume text you are given:

1. Contact Information: full name, email, phone number and location (city, state/country).
2. Professional Summary: the summary, objective or profile statement if present.
3. Work Experience: every position with job title (role), company, duration as written and the key responsibilities or achievements as a list.
4. Education: every qualification with degree, institution, year of completion and GPA if stated.
5. Skills: a flat list of technical and soft skills.
6. Certifications: professional certifications or licenses, one entry each.

Rules:
- Only use information present in the text. Never invent values.
- If a value is missing or unclear, use null for single values and an empty list for lists.
- List work experience most recent first and education highest degree first.
- Return ONLY a JSON object matching the provided schema, with no text before or after it.`
}

// BuildExtractionPrompt creates the user prompt for one chunk of resume text
func (pb *PromptBuilder) BuildExtractionPrompt(chunk models.TextChunk, totalChunks int) string {
	if totalChunks <= 1 {
		return fmt.Sprintf(`Please extract structured information from the following resume text:

<resume_text>
%s
</resume_text>

Remember to return ONLY the JSON object.`, chunk.Text)
	}

	return fmt.Sprintf(`The resume is too long for a single request and was split into %d parts.
This is part %d of %d. Its beginning may repeat the end of the previous part.
Extract only what appears in this part; leave anything not present empty.

<resume_text>
%s
</resume_text>

Remember to return ONLY the JSON object.`, totalChunks, chunk.Index+1, totalChunks, chunk.Text)
}
