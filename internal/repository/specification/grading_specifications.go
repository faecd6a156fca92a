package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BySessionID filters rows attached to a grading or progress session
type BySessionID struct {
	SessionID uuid.UUID
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

// BySubmissionAndGuide matches the unique session for a pair
type BySubmissionAndGuide struct {
	SubmissionID uuid.UUID
	GuideID      uuid.UUID
}

func (s BySubmissionAndGuide) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("submission_id = ? AND guide_id = ?", s.SubmissionID, s.GuideID)
}

// WithQuestions preloads guide questions ordered by number
type WithQuestions struct{}

func (s WithQuestions) Apply(db *gorm.DB) *gorm.DB {
	return db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("number ASC")
	})
}

// Unread filters notifications not yet read
type Unread struct{}

func (s Unread) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_read = ?", false)
}
