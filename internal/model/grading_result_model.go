package model

import (
	"time"

	"github.com/google/uuid"
)

type GradingResult struct {
	Id                   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId            uuid.UUID `gorm:"type:uuid;not null;index"`
	MappingId            uuid.UUID `gorm:"type:uuid;not null;index"`
	Score                float64   `gorm:"not null;default:0"`
	Percentage           float64   `gorm:"not null;default:0"`
	Feedback             string    `gorm:"type:text"`
	Confidence           float64   `gorm:"not null;default:0"`
	Method               string    `gorm:"type:varchar(20);not null;default:'model'"`
	RequiresManualReview bool      `gorm:"not null;default:false"`
	CreatedAt            time.Time `gorm:"autoCreateTime"`
}

func (GradingResult) TableName() string {
	return "grading_results"
}
