package model

import (
	"time"

	"github.com/google/uuid"
)

type MarkingGuide struct {
	Id           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Title        string          `gorm:"type:varchar(255);not null"`
	Text         string          `gorm:"type:text"`
	MaxQuestions *int            `gorm:""`
	Questions    []GuideQuestion `gorm:"foreignKey:GuideId;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time       `gorm:"autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime"`
}

func (MarkingGuide) TableName() string {
	return "marking_guides"
}

type GuideQuestion struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	GuideId     uuid.UUID `gorm:"type:uuid;not null;index"`
	Number      int       `gorm:"not null"`
	Text        string    `gorm:"type:text;not null"`
	ModelAnswer string    `gorm:"type:text"`
	MaxScore    float64   `gorm:"not null;default:0"`
}

func (GuideQuestion) TableName() string {
	return "guide_questions"
}
