package textclean

import (
	"strings"
	"testing"
)

func TestCleanCollapsesWhitespace(t *testing.T) {
	in := "Section 1\t\tCoverage\n\n\n\nSection 2   Exclusions"
	out, stats := Clean(in)

	if strings.Contains(out, "\t") {
		t.Error("expected tabs to be removed")
	}
	if strings.Contains(out, "   ") {
		t.Error("expected space runs to be collapsed")
	}
	if strings.Contains(out, "\n\n\n") {
		t.Error("expected blank-line runs to be collapsed")
	}
	if stats.OriginalChars != len(in) {
		t.Errorf("expected original chars %d, got %d", len(in), stats.OriginalChars)
	}
	if stats.CleanedChars != len(out) {
		t.Errorf("expected cleaned chars %d, got %d", len(out), stats.CleanedChars)
	}
	if stats.CharsRemoved != stats.OriginalChars-stats.CleanedChars {
		t.Error("chars removed does not match original minus cleaned")
	}
}

func TestCleanTrims(t *testing.T) {
	out, _ := Clean("   hello world \n")
	if out != "hello world" {
		t.Errorf("expected trimmed text, got %q", out)
	}
}

func TestCleanEmpty(t *testing.T) {
	out, stats := Clean("")
	if out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
	if stats.ReductionPercent != 0 {
		t.Errorf("expected 0 reduction for empty input, got %f", stats.ReductionPercent)
	}
}

func TestCleanWhitespaceOnly(t *testing.T) {
	out, stats := Clean(" \t \n\n ")
	if out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
	if stats.ReductionPercent != 100 {
		t.Errorf("expected 100%% reduction, got %f", stats.ReductionPercent)
	}
}

func TestTruncate(t *testing.T) {
	text := strings.Repeat("a", 100)

	out := Truncate(text, 40)
	if !strings.HasPrefix(out, strings.Repeat("a", 40)) {
		t.Error("expected truncated prefix to be preserved")
	}
	if !strings.Contains(out, "truncated 60 characters") {
		t.Errorf("expected truncation marker with dropped count, got %q", out)
	}
}

func TestTruncateNoOp(t *testing.T) {
	if got := Truncate("short", 100); got != "short" {
		t.Errorf("expected text under the limit to pass through, got %q", got)
	}
	if got := Truncate("anything", 0); got != "anything" {
		t.Errorf("expected zero limit to disable truncation, got %q", got)
	}
}
