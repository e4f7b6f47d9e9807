// Package chunker splits raw document text into overlapping retrievable
// units. Splitting prefers paragraph and sentence boundaries over hard
// truncation so that a retrieved chunk reads as coherent prose.
package chunker

import (
	"strings"
)

// DefaultChunkSize is the default maximum chunk length in characters.
const DefaultChunkSize = 1500

// DefaultOverlap is the default number of overlapping characters
// carried from the end of one chunk into the next.
const DefaultOverlap = 200

// Piece is one chunk of text with its page provenance.
type Piece struct {
	// Text is the chunk content.
	Text string

	// Page is the 1-based page the chunk starts on, or 0 when the
	// input carried no page markers.
	Page int
}

// Chunker splits document text into bounded, overlapping pieces.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithChunkSize sets the maximum chunk length in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Split chunks the document text. Form-feed characters (\f) mark page
// boundaries and set page provenance on the pieces that follow them.
//
// Empty or whitespace-only input yields zero pieces, not an error.
// Input no longer than the chunk size yields exactly one piece.
func (c *Chunker) Split(text string) []Piece {
	paged := strings.Contains(text, "\f")

	var pieces []Piece
	page := 0
	if paged {
		page = 1
	}

	for _, pageText := range strings.Split(text, "\f") {
		for _, body := range c.splitText(pageText) {
			pieces = append(pieces, Piece{Text: body, Page: page})
		}
		if paged {
			page++
		}
	}

	return pieces
}

// splitText splits one page worth of text into overlapping chunks.
func (c *Chunker) splitText(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	var chunks []string
	start := 0

	for start < len(runes) {
		end := start + c.chunkSize
		if end >= len(runes) {
			chunks = append(chunks, strings.TrimSpace(string(runes[start:])))
			break
		}

		// Prefer a paragraph break, then a sentence end, as long as
		// the boundary falls in the latter half of the window. An
		// earlier boundary would leave chunks far below target size;
		// truncating at the limit is better.
		cut := boundary(runes[start:end])
		if cut > 0 {
			end = start + cut
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := end - c.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// boundary returns the cut position just after the last paragraph break
// or sentence terminator in the window, or 0 when no boundary falls in
// the latter half of the window.
func boundary(window []rune) int {
	half := len(window) / 2

	if cut := lastIndexAfter(window, half, isParagraphBreak); cut > 0 {
		return cut
	}
	return lastIndexAfter(window, half, isSentenceEnd)
}

// lastIndexAfter scans the window backwards down to floor and returns
// the position just after the first rune satisfying match, or 0.
func lastIndexAfter(window []rune, floor int, match func([]rune, int) bool) int {
	for i := len(window) - 1; i > floor; i-- {
		if match(window, i) {
			return i + 1
		}
	}
	return 0
}

// isParagraphBreak reports a newline directly following another newline
// (ignoring interleaved spaces and carriage returns).
func isParagraphBreak(window []rune, i int) bool {
	if window[i] != '\n' {
		return false
	}
	for j := i - 1; j >= 0; j-- {
		switch window[j] {
		case ' ', '\t', '\r':
			continue
		case '\n':
			return true
		default:
			return false
		}
	}
	return false
}

// isSentenceEnd reports a sentence terminator followed by whitespace.
func isSentenceEnd(window []rune, i int) bool {
	switch window[i] {
	case '.', '!', '?':
	default:
		return false
	}
	return i+1 < len(window) && (window[i+1] == ' ' || window[i+1] == '\n' || window[i+1] == '\t')
}
