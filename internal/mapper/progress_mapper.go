package mapper

import (
	"encoding/json"

	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/model"

	"gorm.io/datatypes"
)

type ProgressMapper struct{}

func NewProgressMapper() *ProgressMapper {
	return &ProgressMapper{}
}

func (m *ProgressMapper) SessionToEntity(s *model.ProgressSession) *entity.ProgressSession {
	if s == nil {
		return nil
	}

	var metadata map[string]interface{}
	if len(s.Metadata) > 0 {
		_ = json.Unmarshal(s.Metadata, &metadata)
	}

	return &entity.ProgressSession{
		Id:                s.Id,
		TotalSteps:        s.TotalSteps,
		TotalSubmissions:  s.TotalSubmissions,
		CurrentStep:       s.CurrentStep,
		CurrentSubmission: s.CurrentSubmission,
		Status:            entity.ProgressStatus(s.Status),
		CurrentOperation:  s.CurrentOperation,
		Metadata:          metadata,
		StartedAt:         s.StartedAt,
		EndedAt:           s.EndedAt,
	}
}

func (m *ProgressMapper) SessionToModel(s *entity.ProgressSession) *model.ProgressSession {
	if s == nil {
		return nil
	}

	var metadata datatypes.JSON
	if s.Metadata != nil {
		raw, err := json.Marshal(s.Metadata)
		if err == nil {
			metadata = raw
		}
	}

	return &model.ProgressSession{
		Id:                s.Id,
		TotalSteps:        s.TotalSteps,
		TotalSubmissions:  s.TotalSubmissions,
		CurrentStep:       s.CurrentStep,
		CurrentSubmission: s.CurrentSubmission,
		Status:            string(s.Status),
		CurrentOperation:  s.CurrentOperation,
		Metadata:          metadata,
		StartedAt:         s.StartedAt,
		EndedAt:           s.EndedAt,
	}
}

func (m *ProgressMapper) UpdateToEntity(u *model.ProgressUpdate) *entity.ProgressUpdate {
	if u == nil {
		return nil
	}

	var metrics map[string]interface{}
	if len(u.Metrics) > 0 {
		_ = json.Unmarshal(u.Metrics, &metrics)
	}

	return &entity.ProgressUpdate{
		Id:         u.Id,
		SessionId:  u.SessionId,
		Step:       u.Step,
		Operation:  u.Operation,
		Percentage: u.Percentage,
		Error:      u.Error,
		Metrics:    metrics,
		CreatedAt:  u.CreatedAt,
	}
}

func (m *ProgressMapper) UpdateToModel(u *entity.ProgressUpdate) *model.ProgressUpdate {
	if u == nil {
		return nil
	}

	var metrics datatypes.JSON
	if u.Metrics != nil {
		raw, err := json.Marshal(u.Metrics)
		if err == nil {
			metrics = raw
		}
	}

	return &model.ProgressUpdate{
		Id:         u.Id,
		SessionId:  u.SessionId,
		Step:       u.Step,
		Operation:  u.Operation,
		Percentage: u.Percentage,
		Error:      u.Error,
		Metrics:    metrics,
		CreatedAt:  u.CreatedAt,
	}
}

func (m *ProgressMapper) UpdatesToEntities(updates []*model.ProgressUpdate) []*entity.ProgressUpdate {
	entities := make([]*entity.ProgressUpdate, len(updates))
	for i, u := range updates {
		entities[i] = m.UpdateToEntity(u)
	}
	return entities
}
