package fastpath

import "strings"

// TruncateAtBoundary trims text to at most budget runes, preferring to
// cut at a sentence or line boundary and never mid-word. The boundary
// search is bounded to the last quarter of the budget so a pathological
// input without punctuation still truncates near the budget.
func TruncateAtBoundary(text string, budget int) string {
	if budget <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}

	cut := string(runes[:budget])
	floor := budget - budget/4

	best := -1
	for _, sep := range []string{"\n", ". ", "? ", "! "} {
		if idx := strings.LastIndex(cut, sep); idx > best {
			best = idx + len(sep)
		}
	}
	if best >= floor {
		return strings.TrimRight(cut[:best], " \n")
	}

	if idx := strings.LastIndexByte(cut, ' '); idx >= floor {
		return cut[:idx]
	}
	return cut
}

// SplitChunks divides text into n chunks for index-based assignment.
// Paragraph boundaries are preferred; when there are not enough
// paragraphs the text is regrouped into fixed-size line groups.
func SplitChunks(text string, n int) []string {
	if n <= 0 {
		return nil
	}

	paragraphs := splitNonEmpty(text, "\n\n")
	if len(paragraphs) >= n {
		return regroup(paragraphs, n)
	}

	lines := splitNonEmpty(text, "\n")
	if len(lines) >= n {
		return regroup(lines, n)
	}

	// Fewer parts than questions: pad with empty chunks so indexes
	// stay aligned.
	chunks := make([]string, n)
	copy(chunks, lines)
	return chunks
}

func splitNonEmpty(text, sep string) []string {
	var out []string
	for _, part := range strings.Split(text, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func regroup(parts []string, n int) []string {
	chunks := make([]string, n)
	per := len(parts) / n
	extra := len(parts) % n
	idx := 0
	for i := 0; i < n; i++ {
		take := per
		if i < extra {
			take++
		}
		chunks[i] = strings.Join(parts[idx:idx+take], "\n")
		idx += take
	}
	return chunks
}
