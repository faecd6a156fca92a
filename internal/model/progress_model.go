package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ProgressSession struct {
	Id                uuid.UUID      `gorm:"type:uuid;primaryKey"`
	TotalSteps        int            `gorm:"not null;default:1"`
	TotalSubmissions  int            `gorm:"not null;default:1"`
	CurrentStep       int            `gorm:"not null;default:0"`
	CurrentSubmission int            `gorm:"not null;default:0"`
	Status            string         `gorm:"type:varchar(20);not null;default:'active'"`
	CurrentOperation  string         `gorm:"type:varchar(100)"`
	Metadata          datatypes.JSON `gorm:"type:jsonb"`
	StartedAt         time.Time      `gorm:"not null"`
	EndedAt           *time.Time     `gorm:""`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime;index"`
}

func (ProgressSession) TableName() string {
	return "progress_sessions"
}

type ProgressUpdate struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId  uuid.UUID      `gorm:"type:uuid;not null;index"`
	Step       int            `gorm:"not null;default:0"`
	Operation  string         `gorm:"type:varchar(100)"`
	Percentage float64        `gorm:"not null;default:0"`
	Error      string         `gorm:"type:text"`
	Metrics    datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index"`
}

func (ProgressUpdate) TableName() string {
	return "progress_updates"
}
