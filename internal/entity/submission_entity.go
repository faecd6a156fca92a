package entity

import (
	"time"

	"github.com/google/uuid"
)

// Submission is an uploaded exam paper. Text extraction happens upstream;
// by the time the pipeline sees a submission its Text is final.
type Submission struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	Text      string
	CreatedAt time.Time
	UpdatedAt *time.Time
}
