package models

// TextChunk is a bounded slice of cleaned resume text. Overlap counts the
// leading runes repeated from the end of the previous chunk.
type TextChunk struct {
	Index        int
	Text         string
	ApproxTokens int
	Overlap      int
}
