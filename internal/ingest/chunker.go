package ingest

import (
	"unicode"
)

// Default splitter geometry, matching the index configuration the policy
// documents were embedded with.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Chunk is a bounded span of a source document. Start is the rune offset of
// the span within the document.
type Chunk struct {
	DocID string
	Start int
	Text  string
}

// Split cuts text into overlapping windows of at most size runes, stepping
// by size-overlap. Cuts prefer the last whitespace inside the window so
// words are not bisected mid-token; a window with no whitespace is cut hard.
func Split(docID, text string, size, overlap int) []Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
	}

	runes := []rune(text)
	var chunks []Chunk

	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else {
			// Walk back to the nearest whitespace for a clean boundary,
			// but never sacrifice more than the overlap.
			cut := end
			for cut > start+size-overlap && !unicode.IsSpace(runes[cut-1]) {
				cut--
			}
			if cut > start+size-overlap {
				end = cut
			}
		}

		// Trim by index so Start names the first retained rune.
		ts, te := start, end
		for ts < te && unicode.IsSpace(runes[ts]) {
			ts++
		}
		for te > ts && unicode.IsSpace(runes[te-1]) {
			te--
		}
		if ts < te {
			chunks = append(chunks, Chunk{DocID: docID, Start: ts, Text: string(runes[ts:te])})
		}

		if end == len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}
