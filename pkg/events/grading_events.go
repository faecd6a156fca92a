package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeSessionCompleted = "SESSION_COMPLETED"
	TypeSessionFailed    = "SESSION_FAILED"
)

// NewSessionCompleted is emitted after the saving stage commits.
func NewSessionCompleted(sessionID, submissionID, guideID, userID uuid.UUID, selected int) Event {
	return BaseEvent{
		Type: TypeSessionCompleted,
		Data: map[string]interface{}{
			"session_id":         sessionID.String(),
			"submission_id":      submissionID.String(),
			"guide_id":           guideID.String(),
			"user_id":            userID.String(),
			"questions_selected": selected,
		},
		OccurredAt: time.Now(),
	}
}

// NewSessionFailed is emitted when any stage marks the session failed.
func NewSessionFailed(sessionID, submissionID, guideID, userID uuid.UUID, stage, reason string) Event {
	return BaseEvent{
		Type: TypeSessionFailed,
		Data: map[string]interface{}{
			"session_id":    sessionID.String(),
			"submission_id": submissionID.String(),
			"guide_id":      guideID.String(),
			"user_id":       userID.String(),
			"stage":         stage,
			"reason":        reason,
		},
		OccurredAt: time.Now(),
	}
}
