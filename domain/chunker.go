package domain

import (
	"strings"
	"unicode"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters
// between consecutive chunks.
const DefaultChunkOverlap = 200

// Chunker defines the interface for splitting cleaned text into ordered,
// size-bounded chunks.
type Chunker interface {
	Chunk(text, url, domain string) []Chunk
}

// TextChunker implements Chunker with a fixed character window and overlap.
// Chunking is deterministic and side-effect-free: the same text and
// configuration always produce the same boundaries and count.
type TextChunker struct {
	size    int
	overlap int
}

// ChunkerOption configures a TextChunker.
type ChunkerOption func(*TextChunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) ChunkerOption {
	return func(c *TextChunker) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) ChunkerOption {
	return func(c *TextChunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// NewTextChunker creates a new TextChunker with the given options.
func NewTextChunker(opts ...ChunkerOption) *TextChunker {
	c := &TextChunker{
		size:    DefaultChunkSize,
		overlap: DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.size {
		c.overlap = c.size / 4
	}

	return c
}

// Chunk splits text into overlapping windows, preferring to break at the last
// whitespace in the back half of a window so words stay intact. Empty or
// whitespace-only input yields zero chunks.
func (c *TextChunker) Chunk(text, url, domain string) []Chunk {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	runes := []rune(trimmed)
	estimated := len(runes)/(c.size-c.overlap) + 1
	chunks := make([]Chunk, 0, estimated)

	start := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			end = len(runes)
		} else if i := lastBreak(runes, start+c.size/2, end); i > 0 {
			end = i
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			chunks = append(chunks, Chunk{
				URL:        url,
				Domain:     domain,
				ChunkIndex: len(chunks),
				Text:       piece,
			})
		}

		if end == len(runes) {
			break
		}
		next := end - c.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// lastBreak returns the position just after the last whitespace rune in
// runes[floor:end), or 0 when that window contains no whitespace.
func lastBreak(runes []rune, floor, end int) int {
	for i := end - 1; i >= floor; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return 0
}
