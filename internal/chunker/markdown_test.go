package chunker

import (
	"strings"
	"testing"
)

// TestMarkdown_SectionBoundaries verifies chunks align with H1/H2 sections.
func TestMarkdown_SectionBoundaries(t *testing.T) {
	input := `# Getting Started

Introduction text here.

## Installation

Install steps here.

## Configuration

Config details here.
`

	md := NewMarkdown()
	chunks, err := md.Chunk(input, 100, 10)
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}

	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d: %v", len(chunks), chunks)
	}
	if !strings.Contains(chunks[0], "Introduction text here") {
		t.Errorf("Chunk 0 missing intro content: %q", chunks[0])
	}
	if strings.Contains(chunks[0], "Install steps") {
		t.Errorf("Chunk 0 leaked subsection content: %q", chunks[0])
	}
	if !strings.Contains(chunks[1], "Install steps here") {
		t.Errorf("Chunk 1 missing install content: %q", chunks[1])
	}
	if !strings.Contains(chunks[2], "Config details here") {
		t.Errorf("Chunk 2 missing config content: %q", chunks[2])
	}
}

// TestMarkdown_NoHeaders verifies headerless documents become one section.
func TestMarkdown_NoHeaders(t *testing.T) {
	input := "Just plain text content.\n\nWith two paragraphs."

	md := NewMarkdown()
	chunks, err := md.Chunk(input, 100, 10)
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0], "two paragraphs") {
		t.Errorf("Chunk missing content: %q", chunks[0])
	}
}

// TestMarkdown_OversizedSection verifies large sections re-split into windows.
func TestMarkdown_OversizedSection(t *testing.T) {
	var body strings.Builder
	for i := 0; i < 30; i++ {
		body.WriteString("word ")
	}
	input := "# Big Section\n\n" + body.String()

	md := NewMarkdown()
	chunks, err := md.Chunk(input, 10, 2)
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("Expected oversized section to split, got %d chunks", len(chunks))
	}
	for i, chunk := range chunks {
		if n := len(strings.Fields(chunk)); n > 10 {
			t.Errorf("Chunk %d has %d words, exceeds window", i, n)
		}
	}
}

// TestMarkdown_Empty verifies empty input yields no chunks.
func TestMarkdown_Empty(t *testing.T) {
	md := NewMarkdown()
	chunks, err := md.Chunk("", 10, 2)
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if chunks != nil {
		t.Errorf("Expected nil chunks, got %v", chunks)
	}
}
