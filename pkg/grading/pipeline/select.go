package pipeline

import (
	"sort"

	"exam-grading-be/internal/entity"
)

// SelectTop ranks graded mappings by score then confidence, both
// descending, and keeps at most limit entries. The sort is stable so
// exact ties keep their mapping order and repeat runs select the same
// subset.
func SelectTop(graded []*entity.GradedMapping, limit *int) []*entity.GradedMapping {
	out := make([]*entity.GradedMapping, len(graded))
	copy(out, graded)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Confidence > out[j].Confidence
	})

	if limit != nil && *limit > 0 && len(out) > *limit {
		out = out[:*limit]
	}
	return out
}
