package dto

import (
	"time"

	"github.com/google/uuid"
)

type ProgressResponse struct {
	SessionId         uuid.UUID `json:"session_id"`
	Status            string    `json:"status"`
	CurrentOperation  string    `json:"current_operation"`
	CurrentStep       int       `json:"current_step"`
	TotalSteps        int       `json:"total_steps"`
	CurrentSubmission int       `json:"current_submission"`
	TotalSubmissions  int       `json:"total_submissions"`
	Percentage        float64   `json:"percentage"`
	EtaSeconds        float64   `json:"eta_seconds"`
	StartedAt         time.Time `json:"started_at"`
}

type ProgressHistoryItem struct {
	Step       int                    `json:"step"`
	Operation  string                 `json:"operation"`
	Percentage float64                `json:"percentage"`
	Error      string                 `json:"error,omitempty"`
	Metrics    map[string]interface{} `json:"metrics,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

type ProgressHistoryResponse struct {
	SessionId uuid.UUID             `json:"session_id"`
	Updates   []ProgressHistoryItem `json:"updates"`
}

type RecoverProgressRequest struct {
	SessionId uuid.UUID `json:"session_id" validate:"required"`
	Mode      string    `json:"mode" validate:"required,oneof=resume restart rollback"`
}

type RecoverProgressResponse struct {
	SessionId   uuid.UUID `json:"session_id"`
	Mode        string    `json:"mode"`
	CurrentStep int       `json:"current_step"`
	Status      string    `json:"status"`
}

// ProgressEvent is the real-time payload pushed over the websocket for
// every progress change.
type ProgressEvent struct {
	Type       string                 `json:"type"`
	SessionId  uuid.UUID              `json:"session_id"`
	UserId     string                 `json:"user_id,omitempty"`
	Operation  string                 `json:"operation"`
	Step       int                    `json:"step"`
	TotalSteps int                    `json:"total_steps"`
	Percentage float64                `json:"percentage"`
	Error      string                 `json:"error,omitempty"`
	Metrics    map[string]interface{} `json:"metrics,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}
