package services

import (
	"slices"
	"strings"
	"testing"

	"alfredoptarigan/resume-parser/internal/models"
)

func TestMergeResumeData(t *testing.T) {
	first := &models.ResumeData{
		ContactInfo: models.ContactInfo{Name: "Jane Doe", Phone: ""},
		WorkExperience: []models.WorkExperience{
			{Role: "Engineer", Company: "Acme", Duration: "2020 - Present", Responsibilities: []string{"Built APIs"}},
			{Role: "Intern", Company: "Globex"},
		},
		Education:      []models.Education{{Degree: "BSc", Institution: "MIT"}},
		Skills:         []string{"Go", "python", "SQL"},
		Certifications: []string{"CKA"},
	}
	second := &models.ResumeData{
		ContactInfo: models.ContactInfo{Name: "J. Doe", Email: "jane@x.com", Phone: "555-0100"},
		Summary:     "Backend engineer.",
		WorkExperience: []models.WorkExperience{
			// repeated by chunk overlap
			{Role: "intern", Company: "GLOBEX"},
			{Role: "Engineer", Company: "Initech"},
		},
		Education:      []models.Education{{Degree: "bsc", Institution: "mit"}, {Degree: "MSc", Institution: "ETH"}},
		Skills:         []string{"Python", "Kubernetes", "go"},
		Certifications: []string{"cka", "AWS SAA"},
	}
	third := &models.ResumeData{Summary: "Ignored because a summary was already found."}

	merged := mergeResumeData([]*models.ResumeData{first, nil, second, third})

	wantContact := models.ContactInfo{Name: "Jane Doe", Email: "jane@x.com", Phone: "555-0100"}
	if merged.ContactInfo != wantContact {
		t.Errorf("contact = %+v, want %+v", merged.ContactInfo, wantContact)
	}
	if merged.Summary != "Backend engineer." {
		t.Errorf("summary = %q", merged.Summary)
	}

	var roles []string
	for _, w := range merged.WorkExperience {
		roles = append(roles, w.Role+"@"+w.Company)
	}
	if want := []string{"Engineer@Acme", "Intern@Globex", "Engineer@Initech"}; !slices.Equal(roles, want) {
		t.Errorf("work = %v, want %v", roles, want)
	}

	if len(merged.Education) != 2 || merged.Education[1].Degree != "MSc" {
		t.Errorf("education = %+v", merged.Education)
	}
	if want := []string{"Go", "python", "SQL", "Kubernetes"}; !slices.Equal(merged.Skills, want) {
		t.Errorf("skills = %v, want %v", merged.Skills, want)
	}
	if want := []string{"CKA", "AWS SAA"}; !slices.Equal(merged.Certifications, want) {
		t.Errorf("certifications = %v, want %v", merged.Certifications, want)
	}
}

func TestMergeResumeData_SetProperties(t *testing.T) {
	parts := []*models.ResumeData{
		{Skills: []string{"Go", "GO", "Rust", "rust "}, Certifications: []string{"A", "a"}},
		{Skills: []string{"Docker", "go"}, Certifications: []string{"B"}},
		{Skills: []string{"RUST", "docker", "Terraform"}, Certifications: []string{"b", "A"}},
	}

	merged := mergeResumeData(parts)

	for _, field := range []struct {
		name   string
		values []string
		inputs func(*models.ResumeData) []string
	}{
		{"skills", merged.Skills, func(d *models.ResumeData) []string { return d.Skills }},
		{"certifications", merged.Certifications, func(d *models.ResumeData) []string { return d.Certifications }},
	} {
		seen := map[string]bool{}
		for _, v := range field.values {
			key := strings.ToLower(strings.TrimSpace(v))
			if seen[key] {
				t.Errorf("%s: duplicate %q in %v", field.name, v, field.values)
			}
			seen[key] = true
		}

		total := 0
		for _, p := range parts {
			total += len(field.inputs(p))
		}
		if len(field.values) > total {
			t.Errorf("%s: merged size %d exceeds input size %d", field.name, len(field.values), total)
		}
	}
}

func TestMergeResumeData_EmptyInput(t *testing.T) {
	merged := mergeResumeData(nil)
	if merged.Skills == nil || merged.WorkExperience == nil || merged.Education == nil || merged.Certifications == nil {
		t.Errorf("lists must be non-nil: %+v", merged)
	}
}
