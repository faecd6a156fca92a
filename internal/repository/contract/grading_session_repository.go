package contract

import (
	"context"

	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/repository/specification"

	"github.com/google/uuid"
)

type GradingSessionRepository interface {
	Create(ctx context.Context, session *entity.GradingSession) error
	Update(ctx context.Context, session *entity.GradingSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.GradingSession, error)
	FindByPair(ctx context.Context, submissionId, guideId uuid.UUID) (*entity.GradingSession, error)
}
