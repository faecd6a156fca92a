package implementation

import (
	"context"

	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/mapper"
	"exam-grading-be/internal/model"
	"exam-grading-be/internal/repository/contract"
	"exam-grading-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MappingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.GradingMapper
}

func NewMappingRepository(db *gorm.DB) contract.MappingRepository {
	return &MappingRepositoryImpl{
		db:     db,
		mapper: mapper.NewGradingMapper(),
	}
}

func (r *MappingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *MappingRepositoryImpl) CreateBatch(ctx context.Context, records []*entity.MappingRecord) error {
	if len(records) == 0 {
		return nil
	}
	models := r.mapper.MappingsToModels(records)
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*records[i] = *r.mapper.MappingToEntity(m)
	}
	return nil
}

func (r *MappingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MappingRecord, error) {
	var models []*model.QuestionMapping
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.MappingsToEntities(models), nil
}

func (r *MappingRepositoryImpl) DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("session_id = ?", sessionId).Delete(&model.QuestionMapping{}).Error
}
