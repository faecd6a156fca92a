package implementation

import (
	"context"
	"errors"

	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/mapper"
	"exam-grading-be/internal/model"
	"exam-grading-be/internal/repository/contract"
	"exam-grading-be/internal/repository/specification"

	"gorm.io/gorm"
)

type GuideRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ExamMapper
}

func NewGuideRepository(db *gorm.DB) contract.GuideRepository {
	return &GuideRepositoryImpl{
		db:     db,
		mapper: mapper.NewExamMapper(),
	}
}

func (r *GuideRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *GuideRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.MarkingGuide, error) {
	var m model.MarkingGuide
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.GuideToEntity(&m), nil
}
