package progress

import (
	"context"

	"exam-grading-be/internal/entity"

	"github.com/google/uuid"
)

// Update is one progress change for a tracked session.
type Update struct {
	SessionId       uuid.UUID
	Step            int
	SubmissionIndex int
	Operation       string
	Error           string
	Metrics         map[string]interface{}
}

// Tracker records progress for long-running operations. Implementations
// must keep updates for a session readable in the order they were
// accepted.
type Tracker interface {
	CreateSession(ctx context.Context, session *entity.ProgressSession) error
	UpdateProgress(ctx context.Context, update Update) error
	CompleteSession(ctx context.Context, sessionId uuid.UUID, status entity.ProgressStatus, errMsg string) error
	GetProgress(ctx context.Context, sessionId uuid.UUID) (*entity.ProgressSession, error)
	GetHistory(ctx context.Context, sessionId uuid.UUID) ([]*entity.ProgressUpdate, error)
	RecoverSession(ctx context.Context, sessionId uuid.UUID, mode entity.RecoveryMode, step int) (*entity.ProgressSession, error)
}

// applyUpdate mutates a session with an accepted update. Shared by the
// persistent and in-memory trackers so both compute identical state.
func applyUpdate(session *entity.ProgressSession, update Update) {
	step := update.Step
	if step > session.TotalSteps {
		step = session.TotalSteps
	}
	if step < 0 {
		step = 0
	}
	session.CurrentStep = step
	if update.SubmissionIndex >= 0 {
		session.CurrentSubmission = update.SubmissionIndex
	}
	if update.Operation != "" {
		session.CurrentOperation = update.Operation
	}
}

// applyRecovery re-activates a session per the requested mode and
// returns the step the session resumes from.
func applyRecovery(session *entity.ProgressSession, mode entity.RecoveryMode, step int) {
	switch mode {
	case entity.RecoveryRestart:
		session.CurrentStep = 0
		session.CurrentSubmission = 0
	case entity.RecoveryRollback:
		if step > session.CurrentStep {
			step = session.CurrentStep
		}
		if step < 0 {
			step = 0
		}
		session.CurrentStep = step
	case entity.RecoveryResume:
		// Keep counters as recorded.
	}
	session.Status = entity.ProgressActive
	session.EndedAt = nil
}
