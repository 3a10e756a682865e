package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"google.golang.org/genai"

	"alfredoptarigan/resume-parser/internal/common"
	"alfredoptarigan/resume-parser/internal/models"
)

const resumeSchemaURL = "resume.schema.json"

// ResumeJSONSchema returns the JSON Schema (draft 2020-12 subset) every LLM
// response must satisfy. It is sent to providers as the structured output
// constraint and used locally to validate what comes back.
func ResumeJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"contact_info": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"name":     nullableString("Full name of the candidate"),
					"email":    nullableString("Email address"),
					"phone":    nullableString("Phone number"),
					"location": nullableString("City, region or country"),
				},
			},
			"summary": nullableString("Professional summary, objective or profile statement"),
			"work_experience": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"role":     map[string]any{"type": "string", "description": "Job title"},
						"company":  map[string]any{"type": "string", "description": "Employer name"},
						"duration": nullableString("Employment period as written"),
						"responsibilities": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
					},
					"required": []string{"role", "company"},
				},
			},
			"education": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"degree":      map[string]any{"type": "string", "description": "Degree or qualification"},
						"institution": map[string]any{"type": "string", "description": "School or university"},
						"year":        nullableString("Year of completion"),
						"gpa":         nullableString("Grade point average as written"),
					},
					"required": []string{"degree", "institution"},
				},
			},
			"skills": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"certifications": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []string{"contact_info", "work_experience", "education", "skills", "certifications"},
	}
}

func nullableString(description string) map[string]any {
	return map[string]any{
		"type":        []string{"string", "null"},
		"description": description,
	}
}

// ResumeGenaiSchema mirrors ResumeJSONSchema for Gemini's response schema.
func ResumeGenaiSchema() *genai.Schema {
	str := func(description string, nullable bool) *genai.Schema {
		s := &genai.Schema{Type: genai.TypeString, Description: description}
		if nullable {
			s.Nullable = genai.Ptr(true)
		}
		return s
	}
	strArray := &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"contact_info": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":     str("Full name of the candidate", true),
					"email":    str("Email address", true),
					"phone":    str("Phone number", true),
					"location": str("City, region or country", true),
				},
			},
			"summary": str("Professional summary, objective or profile statement", true),
			"work_experience": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"role":             str("Job title", false),
						"company":          str("Employer name", false),
						"duration":         str("Employment period as written", true),
						"responsibilities": strArray,
					},
					Required: []string{"role", "company"},
				},
			},
			"education": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"degree":      str("Degree or qualification", false),
						"institution": str("School or university", false),
						"year":        str("Year of completion", true),
						"gpa":         str("Grade point average as written", true),
					},
					Required: []string{"degree", "institution"},
				},
			},
			"skills":         strArray,
			"certifications": strArray,
		},
		Required: []string{"contact_info", "work_experience", "education", "skills", "certifications"},
	}
}

var compiledResumeSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	raw, err := json.Marshal(ResumeJSONSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(resumeSchemaURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile(resumeSchemaURL)
})

// ParseResumeResponse turns a raw LLM response into normalized ResumeData.
// Any schema violation yields an ExtractionValidationFailure listing the
// offending fields.
func ParseResumeResponse(response string) (*models.ResumeData, error) {
	payload := extractJSON(response)

	var doc any
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, common.NewError(common.ErrExtractionValidationFailure, "response is not valid JSON", err).
			WithFields([]common.FieldError{{Field: "$", Message: err.Error()}})
	}

	schema, err := compiledResumeSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile resume schema: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return nil, common.NewError(common.ErrExtractionValidationFailure, "response failed validation", err)
		}
		return nil, common.NewError(common.ErrExtractionValidationFailure, "response does not match the resume schema", nil).
			WithFields(validationFields(ve))
	}

	var data models.ResumeData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, common.NewError(common.ErrExtractionValidationFailure, "failed to decode response", err).
			WithFields([]common.FieldError{{Field: "$", Message: err.Error()}})
	}

	normalizeResume(&data)
	return &data, nil
}

// validationFields flattens the validation tree into its leaf errors.
func validationFields(ve *jsonschema.ValidationError) []common.FieldError {
	var fields []common.FieldError
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			fields = append(fields, common.FieldError{
				Field:   fieldPath(e.InstanceLocation),
				Message: e.Message,
			})
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(ve)

	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return fields
}

// fieldPath turns a JSON pointer such as /work_experience/0/role into
// work_experience[0].role.
func fieldPath(pointer string) string {
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return "$"
	}

	var b strings.Builder
	for i, token := range strings.Split(pointer, "/") {
		token = strings.NewReplacer("~1", "/", "~0", "~").Replace(token)
		if isIndex(token) {
			fmt.Fprintf(&b, "[%s]", token)
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(token)
	}
	return b.String()
}

func isIndex(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// normalizeResume trims every string, drops entries with no content and
// replaces nil slices with empty ones.
func normalizeResume(data *models.ResumeData) {
	data.ContactInfo.Name = strings.TrimSpace(data.ContactInfo.Name)
	data.ContactInfo.Email = strings.TrimSpace(data.ContactInfo.Email)
	data.ContactInfo.Phone = strings.TrimSpace(data.ContactInfo.Phone)
	data.ContactInfo.Location = strings.TrimSpace(data.ContactInfo.Location)
	data.Summary = strings.TrimSpace(data.Summary)

	work := make([]models.WorkExperience, 0, len(data.WorkExperience))
	for _, w := range data.WorkExperience {
		w.Role = strings.TrimSpace(w.Role)
		w.Company = strings.TrimSpace(w.Company)
		w.Duration = strings.TrimSpace(w.Duration)
		w.Responsibilities = cleanStrings(w.Responsibilities)
		if w.Role == "" && w.Company == "" && w.Duration == "" && len(w.Responsibilities) == 0 {
			continue
		}
		work = append(work, w)
	}
	data.WorkExperience = work

	education := make([]models.Education, 0, len(data.Education))
	for _, e := range data.Education {
		e.Degree = strings.TrimSpace(e.Degree)
		e.Institution = strings.TrimSpace(e.Institution)
		e.Year = strings.TrimSpace(e.Year)
		e.GPA = strings.TrimSpace(e.GPA)
		if e.Degree == "" && e.Institution == "" && e.Year == "" && e.GPA == "" {
			continue
		}
		education = append(education, e)
	}
	data.Education = education

	data.Skills = cleanStrings(data.Skills)
	data.Certifications = cleanStrings(data.Certifications)
}

func cleanStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// extractJSON strips markdown fences and any prose around the outermost
// JSON object.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		return text[start : end+1]
	}

	return strings.TrimSpace(text)
}
