package entity

import (
	"time"

	"github.com/google/uuid"
)

type ProgressStatus string

const (
	ProgressActive    ProgressStatus = "active"
	ProgressCompleted ProgressStatus = "completed"
	ProgressFailed    ProgressStatus = "failed"
)

// RecoveryMode selects how an interrupted session is brought back.
type RecoveryMode string

const (
	RecoveryResume   RecoveryMode = "resume"
	RecoveryRestart  RecoveryMode = "restart"
	RecoveryRollback RecoveryMode = "rollback"
)

// ProgressSession tracks one long-running operation. A batch run tracks
// multiple submissions under a single session.
type ProgressSession struct {
	Id                uuid.UUID
	TotalSteps        int
	TotalSubmissions  int
	CurrentStep       int
	CurrentSubmission int
	Status            ProgressStatus
	CurrentOperation  string
	Metadata          map[string]interface{}
	StartedAt         time.Time
	EndedAt           *time.Time
}

// Percentage computes overall completion across submissions and steps.
func (s *ProgressSession) Percentage() float64 {
	if s.TotalSteps <= 0 || s.TotalSubmissions <= 0 {
		return 0
	}
	frac := (float64(s.CurrentSubmission) + float64(s.CurrentStep)/float64(s.TotalSteps)) / float64(s.TotalSubmissions)
	if frac > 1 {
		frac = 1
	}
	return frac * 100
}

// ETA extrapolates the remaining time from elapsed progress. Zero until
// any measurable progress exists.
func (s *ProgressSession) ETA(now time.Time) time.Duration {
	pct := s.Percentage()
	if pct <= 0 || pct >= 100 {
		return 0
	}
	elapsed := now.Sub(s.StartedAt)
	if elapsed <= 0 {
		return 0
	}
	total := time.Duration(float64(elapsed) / (pct / 100))
	return total - elapsed
}

// ProgressUpdate is one immutable, append-only log row per progress
// change. Updates are read back in creation order to reconstruct history.
type ProgressUpdate struct {
	Id         uuid.UUID
	SessionId  uuid.UUID
	Step       int
	Operation  string
	Percentage float64
	Error      string
	Metrics    map[string]interface{}
	CreatedAt  time.Time
}
