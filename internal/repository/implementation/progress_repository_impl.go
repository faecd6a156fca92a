package implementation

import (
	"context"
	"errors"
	"time"

	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/mapper"
	"exam-grading-be/internal/model"
	"exam-grading-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProgressRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ProgressMapper
}

func NewProgressRepository(db *gorm.DB) contract.ProgressRepository {
	return &ProgressRepositoryImpl{
		db:     db,
		mapper: mapper.NewProgressMapper(),
	}
}

func (r *ProgressRepositoryImpl) CreateSession(ctx context.Context, session *entity.ProgressSession) error {
	m := r.mapper.SessionToModel(session)
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *ProgressRepositoryImpl) UpdateSession(ctx context.Context, session *entity.ProgressSession) error {
	m := r.mapper.SessionToModel(session)
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *ProgressRepositoryImpl) FindSession(ctx context.Context, id uuid.UUID) (*entity.ProgressSession, error) {
	var m model.ProgressSession
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SessionToEntity(&m), nil
}

func (r *ProgressRepositoryImpl) AppendUpdate(ctx context.Context, update *entity.ProgressUpdate) error {
	m := r.mapper.UpdateToModel(update)
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *ProgressRepositoryImpl) ListUpdates(ctx context.Context, sessionId uuid.UUID) ([]*entity.ProgressUpdate, error) {
	var models []*model.ProgressUpdate
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.UpdatesToEntities(models), nil
}

func (r *ProgressRepositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.ProgressSession{}).
		Where("status IN ? AND updated_at < ?", []string{
			string(entity.ProgressCompleted),
			string(entity.ProgressFailed),
		}, cutoff).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := r.db.WithContext(ctx).Where("session_id IN ?", ids).Delete(&model.ProgressUpdate{}).Error; err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.ProgressSession{})
	return res.RowsAffected, res.Error
}
