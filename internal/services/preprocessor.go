package services

import (
	"regexp"
	"strings"
	"unicode"

	"alfredoptarigan/resume-parser/internal/common"
)

// Preprocessor normalizes raw extracted text before it reaches the LLM.
type Preprocessor interface {
	Clean(raw string) (string, error)
}

type preprocessor struct{}

func NewPreprocessor() Preprocessor {
	return &preprocessor{}
}

var (
	repeatedDots      = regexp.MustCompile(`\.{2,}`)
	repeatedBangs     = regexp.MustCompile(`!{2,}`)
	repeatedQuestions = regexp.MustCompile(`\?{2,}`)

	noiseLines = []*regexp.Regexp{
		regexp.MustCompile(`^\d{1,3}$`),
		regexp.MustCompile(`(?i)^page \d+( of \d+)?$`),
		regexp.MustCompile(`(?i)^-+ ?page \d+ ?-+$`),
		regexp.MustCompile(`(?i)^references (are )?available (up)?on request\.?$`),
	}

	typography = strings.NewReplacer(
		"“", `"`, "”", `"`, "„", `"`,
		"‘", "'", "’", "'", "‚", "'",
		"–", "-", "—", "-", "−", "-",
		"•", "-", "●", "-", "…", ".",
	)
)

// Clean implements Preprocessor. Cleaning is idempotent.
func (p *preprocessor) Clean(raw string) (string, error) {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = typography.Replace(text)
	text = strings.Map(normalizeRune, text)

	text = repeatedDots.ReplaceAllString(text, ".")
	text = repeatedBangs.ReplaceAllString(text, "!")
	text = repeatedQuestions.ReplaceAllString(text, "?")

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	blank := false

	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" && isNoiseLine(line) {
			continue
		}

		if line == "" {
			blank = len(cleaned) > 0
			continue
		}
		if blank {
			cleaned = append(cleaned, "")
			blank = false
		}
		cleaned = append(cleaned, line)
	}

	result := strings.Join(cleaned, "\n")
	if result == "" {
		return "", common.NewError(common.ErrEmptyDocument, "document has no text after cleaning", nil)
	}

	return result, nil
}

func normalizeRune(r rune) rune {
	switch {
	case r == '\n':
		return r
	case r == '\r' || r == '\f' || r == '\v' || r == '\u2028' || r == '\u2029':
		return '\n'
	case unicode.IsSpace(r):
		return ' '
	case unicode.IsControl(r) || unicode.Is(unicode.Cf, r):
		return -1
	}
	return r
}

func isNoiseLine(line string) bool {
	for _, pattern := range noiseLines {
		if pattern.MatchString(line) {
			return true
		}
	}
	return false
}
