// Package chunker splits document text into overlapping spans for embedding.
package chunker

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Default window parameters, sized for ~500-word chunks with a 50-word overlap.
const (
	DefaultSize    = 500
	DefaultOverlap = 50
)

// ErrInvalidConfig indicates a chunking configuration that cannot make progress.
var ErrInvalidConfig = errors.New("invalid chunker configuration")

// validate rejects window parameters that would loop or produce empty chunks.
func validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidConfig, size)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: overlap %d must be non-negative", ErrInvalidConfig, overlap)
	}
	if overlap >= size {
		return fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", ErrInvalidConfig, overlap, size)
	}
	return nil
}

// Words splits text into overlapping windows of whitespace-separated words.
// Each window holds at most size words and starts size-overlap words after
// the previous window's start; the final window may be shorter. Empty or
// whitespace-only text yields no chunks.
func Words(text string, size, overlap int) ([]string, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	step := size - overlap
	var chunks []string
	for i := 0; i < len(words); i += step {
		end := min(i+size, len(words))
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks, nil
}

// Characters splits text into overlapping windows of at most size characters.
// The right edge of each window backs off to the nearest preceding whitespace
// so no chunk splits a word, and the next window starts overlap characters
// before the truncated end. The requested overlap is therefore approximate
// near word boundaries.
func Characters(text string, size, overlap int) ([]string, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}

	runes := []rune(text)
	if len(strings.TrimSpace(text)) == 0 {
		return nil, nil
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, strings.TrimSpace(string(runes[start:])))
			break
		}

		// Back off to the last whitespace inside the window so the cut
		// never lands mid-word. A window with no whitespace (one long
		// word) is cut hard to guarantee progress.
		cut := end
		for cut > start && !unicode.IsSpace(runes[cut]) {
			cut--
		}
		if cut == start {
			cut = end
		}

		chunk := strings.TrimSpace(string(runes[start:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks, nil
}
