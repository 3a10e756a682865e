package services

import (
	"strings"

	"alfredoptarigan/resume-parser/internal/models"
)

// mergeResumeData combines per-chunk results in chunk order.
//
// Contact fields and the summary take the first non-empty value. Work and
// education entries are concatenated; exact repeats, which chunk overlap
// produces, keep only their first occurrence. Skills and certifications are
// unioned case-insensitively, keeping the first spelling seen.
func mergeResumeData(parts []*models.ResumeData) models.ResumeData {
	merged := models.ResumeData{
		WorkExperience: []models.WorkExperience{},
		Education:      []models.Education{},
		Skills:         []string{},
		Certifications: []string{},
	}

	seenWork := make(map[string]struct{})
	seenEducation := make(map[string]struct{})
	seenSkills := make(map[string]struct{})
	seenCerts := make(map[string]struct{})

	for _, part := range parts {
		if part == nil {
			continue
		}

		firstNonEmpty(&merged.ContactInfo.Name, part.ContactInfo.Name)
		firstNonEmpty(&merged.ContactInfo.Email, part.ContactInfo.Email)
		firstNonEmpty(&merged.ContactInfo.Phone, part.ContactInfo.Phone)
		firstNonEmpty(&merged.ContactInfo.Location, part.ContactInfo.Location)
		firstNonEmpty(&merged.Summary, part.Summary)

		for _, w := range part.WorkExperience {
			key := foldKey(w.Role, w.Company, w.Duration, strings.Join(w.Responsibilities, "\x1f"))
			if _, ok := seenWork[key]; ok {
				continue
			}
			seenWork[key] = struct{}{}
			merged.WorkExperience = append(merged.WorkExperience, w)
		}

		for _, ed := range part.Education {
			key := foldKey(ed.Degree, ed.Institution, ed.Year, ed.GPA)
			if _, ok := seenEducation[key]; ok {
				continue
			}
			seenEducation[key] = struct{}{}
			merged.Education = append(merged.Education, ed)
		}

		merged.Skills = unionFold(merged.Skills, part.Skills, seenSkills)
		merged.Certifications = unionFold(merged.Certifications, part.Certifications, seenCerts)
	}

	return merged
}

func firstNonEmpty(dst *string, value string) {
	if *dst == "" && value != "" {
		*dst = value
	}
}

func foldKey(fields ...string) string {
	for i, f := range fields {
		fields[i] = strings.ToLower(strings.TrimSpace(f))
	}
	return strings.Join(fields, "\x1e")
}

func unionFold(dst, values []string, seen map[string]struct{}) []string {
	for _, v := range values {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}
