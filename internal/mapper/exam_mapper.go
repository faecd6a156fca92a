package mapper

import (
	"time"

	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/model"
)

type ExamMapper struct{}

func NewExamMapper() *ExamMapper {
	return &ExamMapper{}
}

func (m *ExamMapper) SubmissionToEntity(s *model.Submission) *entity.Submission {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.Submission{
		Id:        s.Id,
		UserId:    s.UserId,
		Title:     s.Title,
		Text:      s.Text,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *ExamMapper) GuideToEntity(g *model.MarkingGuide) *entity.MarkingGuide {
	if g == nil {
		return nil
	}

	var updatedAt *time.Time
	if !g.UpdatedAt.IsZero() {
		t := g.UpdatedAt
		updatedAt = &t
	}

	questions := make([]entity.GuideQuestion, len(g.Questions))
	for i, q := range g.Questions {
		questions[i] = entity.GuideQuestion{
			Id:          q.Id,
			GuideId:     q.GuideId,
			Number:      q.Number,
			Text:        q.Text,
			ModelAnswer: q.ModelAnswer,
			MaxScore:    q.MaxScore,
		}
	}

	return &entity.MarkingGuide{
		Id:           g.Id,
		UserId:       g.UserId,
		Title:        g.Title,
		Text:         g.Text,
		MaxQuestions: g.MaxQuestions,
		Questions:    questions,
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}
