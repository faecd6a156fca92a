package contract

import (
	"context"

	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/repository/specification"

	"github.com/google/uuid"
)

type MappingRepository interface {
	CreateBatch(ctx context.Context, records []*entity.MappingRecord) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MappingRecord, error)
	DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error
}
