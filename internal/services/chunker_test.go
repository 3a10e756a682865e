package services

import (
	"slices"
	"strings"
	"testing"
	"unicode/utf8"

	"alfredoptarigan/resume-parser/internal/models"
)

func reconstruct(chunks []models.TextChunk) string {
	var b strings.Builder
	for _, c := range chunks {
		runes := []rune(c.Text)
		b.WriteString(string(runes[c.Overlap:]))
	}
	return b.String()
}

func longResumeText() string {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("Senior Engineer at Acme Corporation. Built distributed payment systems in Go. ")
		b.WriteString("Led a team of five engineers and improved latency by forty percent.")
		if i%3 == 2 {
			b.WriteString("\n\n")
		} else {
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String())
}

func TestTextChunker_ShortTextIsSingleChunk(t *testing.T) {
	chunker := NewTextChunker(100, 100, 10)

	chunks := slices.Collect(chunker.Chunks("Jane Doe\nSkills: Go, Python"))
	if len(chunks) != 1 {
		t.Fatalf("len = %d, want 1", len(chunks))
	}
	if chunks[0].Text != "Jane Doe\nSkills: Go, Python" || chunks[0].Overlap != 0 || chunks[0].Index != 0 {
		t.Errorf("chunk = %+v", chunks[0])
	}
	if chunks[0].ApproxTokens != 7 {
		t.Errorf("ApproxTokens = %d, want 7", chunks[0].ApproxTokens)
	}
}

func TestTextChunker_EmptyText(t *testing.T) {
	chunks := slices.Collect(NewTextChunker(100, 100, 10).Chunks(""))
	if len(chunks) != 0 {
		t.Fatalf("len = %d, want 0", len(chunks))
	}
}

func TestTextChunker_BoundsAndReconstruction(t *testing.T) {
	text := longResumeText()

	tests := []struct {
		name    string
		max     int
		overlap int
	}{
		{"no overlap", 500, 0},
		{"with overlap", 500, 120},
		{"small chunks", 64, 16},
		{"overlap larger than half", 200, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := slices.Collect(NewTextChunker(tt.max, tt.max, tt.overlap).Chunks(text))
			if len(chunks) < 2 {
				t.Fatalf("expected multiple chunks, got %d", len(chunks))
			}

			for i, c := range chunks {
				if n := utf8.RuneCountInString(c.Text); n > tt.max {
					t.Errorf("chunk %d has %d runes, limit %d", i, n, tt.max)
				}
				if c.Index != i {
					t.Errorf("chunk %d has index %d", i, c.Index)
				}
				if i == 0 && c.Overlap != 0 {
					t.Errorf("first chunk overlap = %d", c.Overlap)
				}
				if i > 0 {
					prev := []rune(chunks[i-1].Text)
					head := []rune(c.Text)[:c.Overlap]
					if string(prev[len(prev)-c.Overlap:]) != string(head) {
						t.Errorf("chunk %d overlap does not match previous tail", i)
					}
				}
			}

			if got := reconstruct(chunks); got != text {
				t.Errorf("reconstruction mismatch:\n got %q\nwant %q", got, text)
			}
		})
	}
}

func TestTextChunker_PrefersParagraphBreaks(t *testing.T) {
	para := strings.Repeat("word ", 30) + "end."
	text := para + "\n\n" + para + "\n\n" + para

	chunks := slices.Collect(NewTextChunker(300, 300, 0).Chunks(text))
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Text, "end.\n\n") {
		t.Errorf("first chunk should end at a paragraph break, got %q", chunks[0].Text)
	}
}

func TestTextChunker_PrefersSentenceOverMidWord(t *testing.T) {
	text := strings.Repeat("Alpha beta gamma. ", 20)

	chunks := slices.Collect(NewTextChunker(100, 100, 0).Chunks(text))
	for i, c := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(c.Text, ". ") {
			t.Errorf("chunk %d should end after a sentence, got %q", i, c.Text)
		}
	}
}

func TestTextChunker_HardCutWithoutWhitespace(t *testing.T) {
	text := strings.Repeat("é", 250)

	chunks := slices.Collect(NewTextChunker(100, 100, 0).Chunks(text))
	if len(chunks) != 3 {
		t.Fatalf("len = %d, want 3", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c.Text); n > 100 {
			t.Errorf("chunk %d has %d runes", i, n)
		}
	}
	if reconstruct(chunks) != text {
		t.Error("reconstruction mismatch")
	}
}

func TestTextChunker_IsRestartable(t *testing.T) {
	seq := NewTextChunker(200, 200, 40).Chunks(longResumeText())

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if !slices.Equal(first, second) {
		t.Error("ranging twice produced different chunks")
	}
}

func TestTextChunker_StopsEarly(t *testing.T) {
	seen := 0
	for range NewTextChunker(100, 100, 0).Chunks(longResumeText()) {
		seen++
		if seen == 2 {
			break
		}
	}
	if seen != 2 {
		t.Errorf("seen = %d, want 2", seen)
	}
}

func TestTextChunker_SplitsOnlyAboveThreshold(t *testing.T) {
	chunker := NewTextChunker(1000, 300, 50)

	below := strings.Repeat("Built payment systems in Go. ", 40)[:900]
	chunks := slices.Collect(chunker.Chunks(below))
	if len(chunks) != 1 || chunks[0].Text != below {
		t.Fatalf("text under the threshold split into %d chunks", len(chunks))
	}

	above := longResumeText()
	if utf8.RuneCountInString(above) <= 1000 {
		t.Fatalf("fixture too short: %d runes", utf8.RuneCountInString(above))
	}
	chunks = slices.Collect(chunker.Chunks(above))
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c.Text); n > 300 {
			t.Errorf("chunk %d has %d runes, limit 300", i, n)
		}
	}
	if reconstruct(chunks) != above {
		t.Error("reconstruction mismatch")
	}
}

func TestNewTextChunker_ThresholdBelowChunkSize(t *testing.T) {
	text := strings.Repeat("word ", 50)

	chunks := slices.Collect(NewTextChunker(10, 400, 0).Chunks(text))
	if len(chunks) != 1 {
		t.Fatalf("len = %d, want 1 when the threshold is raised to the chunk size", len(chunks))
	}
}
