package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// GradingSession rows are unique per (submission, guide); that pair is the
// pipeline's idempotency key.
type GradingSession struct {
	Id                uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SubmissionId      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_sessions_submission_guide,priority:1"`
	GuideId           uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_sessions_submission_guide,priority:2"`
	UserId            uuid.UUID      `gorm:"type:uuid;not null;index"`
	Status            string         `gorm:"type:varchar(30);not null;default:'not_started'"`
	Steps             datatypes.JSON `gorm:"type:jsonb"`
	QuestionsMapped   int            `gorm:"not null;default:0"`
	QuestionsGraded   int            `gorm:"not null;default:0"`
	QuestionsSelected int            `gorm:"not null;default:0"`
	MaxQuestionsLimit *int           `gorm:""`
	ErrorMessage      string         `gorm:"type:text"`
	StartedAt         time.Time      `gorm:"default:CURRENT_TIMESTAMP"`
	CompletedAt       *time.Time     `gorm:""`
	CreatedAt         time.Time      `gorm:"autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime"`
}

func (GradingSession) TableName() string {
	return "grading_sessions"
}
