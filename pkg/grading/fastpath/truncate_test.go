package fastpath

import (
	"strings"
	"testing"
)

func TestTruncateAtBoundaryShortTextUntouched(t *testing.T) {
	text := "short answer."
	if got := TruncateAtBoundary(text, 100); got != text {
		t.Errorf("expected text unchanged, got %q", got)
	}
}

func TestTruncateAtBoundaryPrefersSentence(t *testing.T) {
	text := "First sentence here. Second sentence follows. Third sentence is long enough to cross the budget mark entirely."
	got := TruncateAtBoundary(text, 60)

	if len([]rune(got)) > 60 {
		t.Fatalf("result exceeds budget: %d runes", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "follows.") {
		t.Errorf("expected cut at sentence boundary, got %q", got)
	}
}

func TestTruncateAtBoundaryNeverMidWord(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 20)
	got := TruncateAtBoundary(text, 50)

	for _, word := range strings.Fields(got) {
		switch word {
		case "alpha", "beta", "gamma", "delta":
		default:
			t.Errorf("word cut mid-way: %q", word)
		}
	}
}

func TestSplitChunksParagraphs(t *testing.T) {
	text := "answer one\n\nanswer two\n\nanswer three"
	chunks := SplitChunks(text, 3)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0] != "answer one" || chunks[2] != "answer three" {
		t.Errorf("unexpected chunk contents: %v", chunks)
	}
}

func TestSplitChunksFallsBackToLines(t *testing.T) {
	text := "line one\nline two\nline three\nline four"
	chunks := SplitChunks(text, 2)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0], "line one") || !strings.Contains(chunks[1], "line four") {
		t.Errorf("unexpected grouping: %v", chunks)
	}
}

func TestSplitChunksPadsWhenShort(t *testing.T) {
	chunks := SplitChunks("only line", 3)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0] != "only line" || chunks[1] != "" || chunks[2] != "" {
		t.Errorf("unexpected padding: %v", chunks)
	}
}
