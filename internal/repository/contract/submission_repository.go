package contract

import (
	"context"

	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/repository/specification"
)

type SubmissionRepository interface {
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Submission, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Submission, error)
}
