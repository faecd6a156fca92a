package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionMapping stores a selected question to answer pairing. Only the
// subset committed by the selection stage is persisted.
type QuestionMapping struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId    uuid.UUID `gorm:"type:uuid;not null;index"`
	QuestionId   uuid.UUID `gorm:"type:uuid;not null"`
	QuestionText string    `gorm:"type:text;not null"`
	AnswerText   string    `gorm:"type:text"`
	MaxScore     float64   `gorm:"not null;default:0"`
	Confidence   float64   `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (QuestionMapping) TableName() string {
	return "question_mappings"
}
