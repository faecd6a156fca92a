package entity

import (
	"time"

	"github.com/google/uuid"
)

// MarkingGuide is an uploaded grading guide with its extracted questions.
// MaxQuestions caps how many graded answers count; nil means unlimited.
type MarkingGuide struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	Title        string
	Text         string
	MaxQuestions *int
	Questions    []GuideQuestion
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

type GuideQuestion struct {
	Id          uuid.UUID
	GuideId     uuid.UUID
	Number      int
	Text        string
	ModelAnswer string
	MaxScore    float64
}
