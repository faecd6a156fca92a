package contract

import (
	"context"

	"exam-grading-be/internal/entity"

	"github.com/google/uuid"
)

type ResultRepository interface {
	CreateBatch(ctx context.Context, graded []*entity.GradedMapping) error
	FindBySessionId(ctx context.Context, sessionId uuid.UUID) ([]*entity.ResultRecord, error)
	DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error
}
