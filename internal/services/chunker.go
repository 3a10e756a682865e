package services

import (
	"iter"
	"unicode"

	"alfredoptarigan/resume-parser/internal/models"
)

const (
	defaultChunkThreshold = 8000
	defaultMaxChunkChars  = 4000
)

// TextChunker splits cleaned text into bounded chunks.
type TextChunker interface {
	Chunks(text string) iter.Seq[models.TextChunk]
}

type textChunker struct {
	threshold     int
	maxChunkChars int
	overlap       int
}

// NewTextChunker returns a chunker that leaves text of up to threshold runes
// whole and splits longer text into chunks of at most maxChunkChars runes.
func NewTextChunker(threshold, maxChunkChars, overlap int) TextChunker {
	if maxChunkChars <= 0 {
		maxChunkChars = defaultMaxChunkChars
	}
	if threshold <= 0 {
		threshold = defaultChunkThreshold
	}
	if threshold < maxChunkChars {
		threshold = maxChunkChars
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkChars {
		overlap = maxChunkChars / 4
	}

	return &textChunker{
		threshold:     threshold,
		maxChunkChars: maxChunkChars,
		overlap:       overlap,
	}
}

// Chunks implements TextChunker. The sequence is lazy and can be ranged over
// any number of times. A single chunk never exceeds threshold runes, a split
// chunk never exceeds maxChunkChars runes, and dropping each chunk's leading
// Overlap runes and concatenating reproduces text.
func (tc *textChunker) Chunks(text string) iter.Seq[models.TextChunk] {
	return func(yield func(models.TextChunk) bool) {
		runes := []rune(text)
		if len(runes) == 0 {
			return
		}
		if len(runes) <= tc.threshold {
			yield(newTextChunk(0, runes, 0))
			return
		}

		start, overlap, index := 0, 0, 0
		for {
			end := start + tc.maxChunkChars
			if end >= len(runes) {
				yield(newTextChunk(index, runes[start:], overlap))
				return
			}

			floor := start + max(tc.maxChunkChars/2, overlap+1)
			cut := findCut(runes, floor, end)
			if !yield(newTextChunk(index, runes[start:cut], overlap)) {
				return
			}

			next := tc.overlapStart(runes, start, cut)
			overlap = cut - next
			start = next
			index++
		}
	}
}

func newTextChunk(index int, runes []rune, overlap int) models.TextChunk {
	return models.TextChunk{
		Index:        index,
		Text:         string(runes),
		ApproxTokens: (len(runes) + 3) / 4,
		Overlap:      overlap,
	}
}

// findCut returns the exclusive end of the chunk, preferring a paragraph
// break, then a line break, then a sentence end, then any space. The cut
// never falls below floor; without a boundary the chunk is cut at end.
func findCut(runes []rune, floor, end int) int {
	if floor > end {
		floor = end
	}

	boundaries := []func(i int) bool{
		func(i int) bool { return runes[i-1] == '\n' && i >= 2 && runes[i-2] == '\n' },
		func(i int) bool { return runes[i-1] == '\n' },
		func(i int) bool {
			return runes[i-1] == ' ' && i >= 2 && (runes[i-2] == '.' || runes[i-2] == '!' || runes[i-2] == '?')
		},
		func(i int) bool { return unicode.IsSpace(runes[i-1]) },
	}

	for _, isBoundary := range boundaries {
		for i := end; i >= floor && i > 0; i-- {
			if isBoundary(i) {
				return i
			}
		}
	}

	return end
}

// overlapStart picks where the next chunk begins so it repeats up to
// tc.overlap runes of the previous one, starting on a word boundary.
func (tc *textChunker) overlapStart(runes []rune, start, cut int) int {
	overlap := min(tc.overlap, (cut-start)/2)
	if overlap <= 0 {
		return cut
	}

	next := cut - overlap
	for next < cut && !unicode.IsSpace(runes[next-1]) {
		next++
	}
	return next
}
