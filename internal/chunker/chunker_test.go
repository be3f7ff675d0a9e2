package chunker

import (
	"strings"
	"testing"
)

func TestSplitOverlap(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	chunks := Split(text, Options{MaxWords: 4, Overlap: 1})

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0].Text == chunks[1].Text {
		t.Fatal("expected overlap but not identical chunks")
	}
	if chunks[0].WordCount != 4 {
		t.Fatalf("expected word count 4, got %d", chunks[0].WordCount)
	}
	// Last word of chunk 0 is the first word of chunk 1.
	if !strings.HasPrefix(chunks[1].Text, "four") {
		t.Errorf("expected second chunk to start at the overlap word, got %q", chunks[1].Text)
	}
}

func TestSplitEmptyInput(t *testing.T) {
	chunks := Split("", Options{MaxWords: 10})
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty input, got %d", len(chunks))
	}
}

func TestSplitNoOverlap(t *testing.T) {
	text := "one two three four five six"
	chunks := Split(text, Options{MaxWords: 3, Overlap: 0})

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "one two three" {
		t.Errorf("unexpected first chunk: %q", chunks[0].Text)
	}
	if chunks[1].Text != "four five six" {
		t.Errorf("unexpected second chunk: %q", chunks[1].Text)
	}
}

func TestSplitIndexesAreSequential(t *testing.T) {
	text := strings.Repeat("word ", 50)
	chunks := Split(text, Options{MaxWords: 10, Overlap: 2})

	for i, c := range chunks {
		if c.Index != i {
			t.Fatalf("expected chunk index %d, got %d", i, c.Index)
		}
	}
}

func TestSplitDefaults(t *testing.T) {
	text := strings.Repeat("test ", 1200)
	chunks := Split(text, Options{})

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks with default options, got %d", len(chunks))
	}
	for _, c := range chunks {
		if c.WordCount > 500 {
			t.Errorf("chunk exceeded default max words (500): got %d", c.WordCount)
		}
	}
}

func TestSplitOverlapLargerThanWindow(t *testing.T) {
	text := "one two three four five six"
	// Degenerate overlap falls back to non-overlapping windows instead of looping.
	chunks := Split(text, Options{MaxWords: 2, Overlap: 5})

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
}
