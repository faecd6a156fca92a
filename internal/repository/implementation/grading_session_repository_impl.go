package implementation

import (
	"context"
	"errors"

	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/mapper"
	"exam-grading-be/internal/model"
	"exam-grading-be/internal/repository/contract"
	"exam-grading-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GradingSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.GradingMapper
}

func NewGradingSessionRepository(db *gorm.DB) contract.GradingSessionRepository {
	return &GradingSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewGradingMapper(),
	}
}

func (r *GradingSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *GradingSessionRepositoryImpl) Create(ctx context.Context, session *entity.GradingSession) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *GradingSessionRepositoryImpl) Update(ctx context.Context, session *entity.GradingSession) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *GradingSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.GradingSession, error) {
	var m model.GradingSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SessionToEntity(&m), nil
}

func (r *GradingSessionRepositoryImpl) FindByPair(ctx context.Context, submissionId, guideId uuid.UUID) (*entity.GradingSession, error) {
	return r.FindOne(ctx, specification.BySubmissionAndGuide{
		SubmissionID: submissionId,
		GuideID:      guideId,
	})
}
