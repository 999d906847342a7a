package chunker

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// TestWords_SlidingWindow verifies the window advances by size-overlap.
func TestWords_SlidingWindow(t *testing.T) {
	chunks, err := Words("A B C D E F", 3, 1)
	if err != nil {
		t.Fatalf("Words failed: %v", err)
	}

	want := []string{"A B C", "C D E", "E F"}
	if !reflect.DeepEqual(chunks, want) {
		t.Errorf("Expected %v, got %v", want, chunks)
	}
}

// TestWords_EmptyText verifies empty and whitespace-only input yields no chunks.
func TestWords_EmptyText(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t  \n"} {
		chunks, err := Words(input, 3, 1)
		if err != nil {
			t.Fatalf("Words(%q) failed: %v", input, err)
		}
		if len(chunks) != 0 {
			t.Errorf("Words(%q): expected no chunks, got %v", input, chunks)
		}
	}
}

// TestWords_InvalidConfig verifies zero-progress configurations fail fast.
func TestWords_InvalidConfig(t *testing.T) {
	cases := []struct {
		name          string
		size, overlap int
	}{
		{"overlap equals size", 3, 3},
		{"overlap exceeds size", 3, 5},
		{"zero size", 0, 0},
		{"negative size", -1, 0},
		{"negative overlap", 3, -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Words("some text here", tc.size, tc.overlap)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

// TestWords_ChunkBounds verifies no chunk exceeds the window size and the
// concatenation reconstructs the original token sequence.
func TestWords_ChunkBounds(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog again and again until done"
	size, overlap := 4, 2

	chunks, err := Words(text, size, overlap)
	if err != nil {
		t.Fatalf("Words failed: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("Expected non-empty chunk sequence")
	}

	for i, chunk := range chunks {
		if n := len(strings.Fields(chunk)); n > size {
			t.Errorf("Chunk %d has %d words, exceeds size %d", i, n, size)
		}
	}

	// Reconstruct: first chunk whole, then the non-overlapping tail of each.
	var rebuilt []string
	for i, chunk := range chunks {
		words := strings.Fields(chunk)
		if i == 0 {
			rebuilt = append(rebuilt, words...)
			continue
		}
		rebuilt = append(rebuilt, words[overlap:]...)
	}
	if got, want := strings.Join(rebuilt, " "), strings.Join(strings.Fields(text), " "); got != want {
		t.Errorf("Reconstruction mismatch:\n got %q\nwant %q", got, want)
	}
}

// TestCharacters_WordBoundary verifies no chunk splits a word.
func TestCharacters_WordBoundary(t *testing.T) {
	text := "alpha beta gamma delta epsilon zeta"
	chunks, err := Characters(text, 12, 4)
	if err != nil {
		t.Fatalf("Characters failed: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("Expected non-empty chunk sequence")
	}

	words := map[string]bool{}
	for _, w := range strings.Fields(text) {
		words[w] = true
	}
	for i, chunk := range chunks {
		for _, w := range strings.Fields(chunk) {
			if !words[w] {
				t.Errorf("Chunk %d contains split word %q", i, w)
			}
		}
	}
}

// TestCharacters_LongWord verifies a word longer than the window still makes progress.
func TestCharacters_LongWord(t *testing.T) {
	text := strings.Repeat("x", 50)
	chunks, err := Characters(text, 10, 2)
	if err != nil {
		t.Fatalf("Characters failed: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("Expected chunks for unbroken text")
	}
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	if total < len(text) {
		t.Errorf("Chunks cover %d of %d characters", total, len(text))
	}
}

// TestCharacters_Empty verifies empty input yields no chunks.
func TestCharacters_Empty(t *testing.T) {
	chunks, err := Characters("", 10, 2)
	if err != nil {
		t.Fatalf("Characters failed: %v", err)
	}
	if chunks != nil {
		t.Errorf("Expected nil chunks, got %v", chunks)
	}
}

// TestCharacters_InvalidConfig verifies the shared validation applies.
func TestCharacters_InvalidConfig(t *testing.T) {
	_, err := Characters("text", 5, 5)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}
