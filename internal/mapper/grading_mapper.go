package mapper

import (
	"encoding/json"
	"time"

	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/model"

	"gorm.io/datatypes"
)

type GradingMapper struct{}

func NewGradingMapper() *GradingMapper {
	return &GradingMapper{}
}

func (m *GradingMapper) SessionToEntity(s *model.GradingSession) *entity.GradingSession {
	if s == nil {
		return nil
	}

	steps := entity.NewStepMap()
	if len(s.Steps) > 0 {
		_ = json.Unmarshal(s.Steps, &steps)
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.GradingSession{
		Id:                s.Id,
		SubmissionId:      s.SubmissionId,
		GuideId:           s.GuideId,
		UserId:            s.UserId,
		Status:            entity.SessionStatus(s.Status),
		Steps:             steps,
		QuestionsMapped:   s.QuestionsMapped,
		QuestionsGraded:   s.QuestionsGraded,
		QuestionsSelected: s.QuestionsSelected,
		MaxQuestionsLimit: s.MaxQuestionsLimit,
		ErrorMessage:      s.ErrorMessage,
		StartedAt:         s.StartedAt,
		CompletedAt:       s.CompletedAt,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         updatedAt,
	}
}

func (m *GradingMapper) SessionToModel(s *entity.GradingSession) *model.GradingSession {
	if s == nil {
		return nil
	}

	var steps datatypes.JSON
	if s.Steps != nil {
		raw, err := json.Marshal(s.Steps)
		if err == nil {
			steps = raw
		}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.GradingSession{
		Id:                s.Id,
		SubmissionId:      s.SubmissionId,
		GuideId:           s.GuideId,
		UserId:            s.UserId,
		Status:            string(s.Status),
		Steps:             steps,
		QuestionsMapped:   s.QuestionsMapped,
		QuestionsGraded:   s.QuestionsGraded,
		QuestionsSelected: s.QuestionsSelected,
		MaxQuestionsLimit: s.MaxQuestionsLimit,
		ErrorMessage:      s.ErrorMessage,
		StartedAt:         s.StartedAt,
		CompletedAt:       s.CompletedAt,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         updatedAt,
	}
}

func (m *GradingMapper) MappingToEntity(q *model.QuestionMapping) *entity.MappingRecord {
	if q == nil {
		return nil
	}

	return &entity.MappingRecord{
		Id:           q.Id,
		SessionId:    q.SessionId,
		QuestionId:   q.QuestionId,
		QuestionText: q.QuestionText,
		AnswerText:   q.AnswerText,
		MaxScore:     q.MaxScore,
		Confidence:   q.Confidence,
	}
}

func (m *GradingMapper) MappingToModel(r *entity.MappingRecord) *model.QuestionMapping {
	if r == nil {
		return nil
	}

	return &model.QuestionMapping{
		Id:           r.Id,
		SessionId:    r.SessionId,
		QuestionId:   r.QuestionId,
		QuestionText: r.QuestionText,
		AnswerText:   r.AnswerText,
		MaxScore:     r.MaxScore,
		Confidence:   r.Confidence,
	}
}

func (m *GradingMapper) MappingsToModels(records []*entity.MappingRecord) []*model.QuestionMapping {
	models := make([]*model.QuestionMapping, len(records))
	for i, r := range records {
		models[i] = m.MappingToModel(r)
	}
	return models
}

func (m *GradingMapper) MappingsToEntities(models []*model.QuestionMapping) []*entity.MappingRecord {
	entities := make([]*entity.MappingRecord, len(models))
	for i, q := range models {
		entities[i] = m.MappingToEntity(q)
	}
	return entities
}

func (m *GradingMapper) ResultToModel(g *entity.GradedMapping) *model.GradingResult {
	if g == nil {
		return nil
	}

	return &model.GradingResult{
		SessionId:            g.Mapping.SessionId,
		MappingId:            g.Mapping.Id,
		Score:                g.Score,
		Percentage:           g.Percentage,
		Feedback:             g.Feedback,
		Confidence:           g.Confidence,
		Method:               string(g.Method),
		RequiresManualReview: g.RequiresManualReview,
	}
}

func (m *GradingMapper) ResultToEntity(r *model.GradingResult) *entity.ResultRecord {
	if r == nil {
		return nil
	}

	return &entity.ResultRecord{
		Id:                   r.Id,
		SessionId:            r.SessionId,
		MappingId:            r.MappingId,
		Score:                r.Score,
		Percentage:           r.Percentage,
		Feedback:             r.Feedback,
		Confidence:           r.Confidence,
		Method:               entity.GradingMethod(r.Method),
		RequiresManualReview: r.RequiresManualReview,
		CreatedAt:            r.CreatedAt,
	}
}

func (m *GradingMapper) ResultsToEntities(models []*model.GradingResult) []*entity.ResultRecord {
	entities := make([]*entity.ResultRecord, len(models))
	for i, r := range models {
		entities[i] = m.ResultToEntity(r)
	}
	return entities
}

func (m *GradingMapper) ResultsToModels(graded []*entity.GradedMapping) []*model.GradingResult {
	models := make([]*model.GradingResult, len(graded))
	for i, g := range graded {
		models[i] = m.ResultToModel(g)
	}
	return models
}
