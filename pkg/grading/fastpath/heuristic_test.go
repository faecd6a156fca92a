package fastpath

import "testing"

func TestHeuristicScoreEmptyAnswer(t *testing.T) {
	if got := HeuristicScore("the reference answer", ""); got != 0 {
		t.Errorf("expected 0 for empty answer, got %f", got)
	}
}

func TestHeuristicScoreFullOverlapBeatsNoOverlap(t *testing.T) {
	ref := "photosynthesis converts light energy into chemical energy inside chloroplasts"
	good := HeuristicScore(ref, ref)
	bad := HeuristicScore(ref, "the mitochondria is the powerhouse of the cell")

	if good <= bad {
		t.Errorf("identical answer (%f) should outscore unrelated answer (%f)", good, bad)
	}
	if good < 80 {
		t.Errorf("identical answer should score high, got %f", good)
	}
}

func TestHeuristicScoreBounds(t *testing.T) {
	cases := []struct {
		name   string
		ref    string
		answer string
	}{
		{"unrelated", "alpha beta gamma", "delta epsilon zeta"},
		{"partial", "gravity pulls objects toward earth", "gravity pulls things down"},
		{"no reference", "", "some answer text that is reasonably long for scoring"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := HeuristicScore(tc.ref, tc.answer)
			if got < 0 || got > 100 {
				t.Errorf("score out of range: %f", got)
			}
		})
	}
}

func TestHeuristicScoreDeterministic(t *testing.T) {
	ref := "the water cycle includes evaporation condensation and precipitation"
	answer := "water evaporates then condenses and falls as precipitation"
	first := HeuristicScore(ref, answer)
	for i := 0; i < 5; i++ {
		if got := HeuristicScore(ref, answer); got != first {
			t.Fatalf("score changed between runs: %f vs %f", first, got)
		}
	}
}
