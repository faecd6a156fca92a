package fastpath

import "strings"

// HeuristicScore rates an answer against the model answer on lexical
// overlap and length, returning a percentage in [0,100]. It is a
// degraded replacement for model grading and must stay cheap and
// deterministic.
func HeuristicScore(modelAnswer, answer string) float64 {
	answerTokens := tokenize(answer)
	if len(answerTokens) == 0 {
		return 0
	}

	refTokens := tokenize(modelAnswer)
	if len(refTokens) == 0 {
		// Nothing to compare against; score on length alone.
		return clampScore(lengthScore(len(answerTokens)) * 100)
	}

	refSet := make(map[string]struct{}, len(refTokens))
	for _, t := range refTokens {
		refSet[t] = struct{}{}
	}

	matched := 0
	seen := make(map[string]struct{}, len(answerTokens))
	for _, t := range answerTokens {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := refSet[t]; ok {
			matched++
		}
	}

	overlap := float64(matched) / float64(len(refSet))
	score := overlap*80 + lengthScore(len(answerTokens))*20
	return clampScore(score)
}

func lengthScore(tokens int) float64 {
	// Saturates at 30 tokens; shorter answers score proportionally.
	if tokens >= 30 {
		return 1
	}
	return float64(tokens) / 30
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	var out []string
	for _, f := range fields {
		if len(f) > 2 {
			out = append(out, f)
		}
	}
	return out
}
