package contract

import (
	"context"

	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/repository/specification"
)

type GuideRepository interface {
	// FindOne loads the guide together with its questions.
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.MarkingGuide, error)
}
