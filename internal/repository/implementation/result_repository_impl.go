package implementation

import (
	"context"

	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/mapper"
	"exam-grading-be/internal/model"
	"exam-grading-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ResultRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.GradingMapper
}

func NewResultRepository(db *gorm.DB) contract.ResultRepository {
	return &ResultRepositoryImpl{
		db:     db,
		mapper: mapper.NewGradingMapper(),
	}
}

func (r *ResultRepositoryImpl) CreateBatch(ctx context.Context, graded []*entity.GradedMapping) error {
	if len(graded) == 0 {
		return nil
	}
	models := r.mapper.ResultsToModels(graded)
	return r.db.WithContext(ctx).Create(&models).Error
}

func (r *ResultRepositoryImpl) FindBySessionId(ctx context.Context, sessionId uuid.UUID) ([]*entity.ResultRecord, error) {
	var models []*model.GradingResult
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ResultsToEntities(models), nil
}

func (r *ResultRepositoryImpl) DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("session_id = ?", sessionId).Delete(&model.GradingResult{}).Error
}
