package pipeline

import (
	"testing"

	"exam-grading-be/internal/entity"
)

func graded(score, confidence float64) *entity.GradedMapping {
	return &entity.GradedMapping{Score: score, Confidence: confidence}
}

func intPtr(v int) *int { return &v }

func TestSelectTopOrdersByScore(t *testing.T) {
	in := []*entity.GradedMapping{graded(90, 0.5), graded(40, 0.9), graded(70, 0.7)}
	out := SelectTop(in, intPtr(2))

	if len(out) != 2 {
		t.Fatalf("expected 2 selected, got %d", len(out))
	}
	if out[0].Score != 90 || out[1].Score != 70 {
		t.Errorf("expected scores [90 70], got [%v %v]", out[0].Score, out[1].Score)
	}
}

func TestSelectTopBreaksTiesByConfidence(t *testing.T) {
	in := []*entity.GradedMapping{graded(80, 0.3), graded(80, 0.9)}
	out := SelectTop(in, intPtr(1))

	if out[0].Confidence != 0.9 {
		t.Errorf("expected the higher-confidence entry first, got confidence %v", out[0].Confidence)
	}
}

func TestSelectTopStableOnExactTies(t *testing.T) {
	first := graded(80, 0.5)
	second := graded(80, 0.5)
	out := SelectTop([]*entity.GradedMapping{first, second}, nil)

	if out[0] != first || out[1] != second {
		t.Error("exact ties must keep input order")
	}
}

func TestSelectTopUnlimited(t *testing.T) {
	in := []*entity.GradedMapping{graded(10, 0), graded(20, 0), graded(30, 0)}
	if got := SelectTop(in, nil); len(got) != 3 {
		t.Errorf("expected all entries without a limit, got %d", len(got))
	}
}

func TestSelectTopDoesNotMutateInput(t *testing.T) {
	in := []*entity.GradedMapping{graded(10, 0), graded(90, 0)}
	SelectTop(in, intPtr(1))

	if in[0].Score != 10 {
		t.Error("input slice order changed")
	}
}
