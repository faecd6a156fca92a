package progress

import (
	"context"
	"time"

	"exam-grading-be/internal/apperror"
	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/repository/memory"

	"github.com/google/uuid"
)

// MemoryTracker is the in-process fallback tracker. It only fails when
// a session genuinely does not exist.
type MemoryTracker struct {
	store *memory.ProgressRepository
}

func NewMemoryTracker(store *memory.ProgressRepository) *MemoryTracker {
	return &MemoryTracker{store: store}
}

func (t *MemoryTracker) CreateSession(ctx context.Context, session *entity.ProgressSession) error {
	if session.Id == uuid.Nil {
		session.Id = uuid.New()
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}
	if session.Status == "" {
		session.Status = entity.ProgressActive
	}
	if session.TotalSteps <= 0 {
		session.TotalSteps = 1
	}
	if session.TotalSubmissions <= 0 {
		session.TotalSubmissions = 1
	}
	t.store.SaveSession(session)
	return nil
}

func (t *MemoryTracker) UpdateProgress(ctx context.Context, update Update) error {
	session, found := t.store.GetSession(update.SessionId)
	if !found {
		return apperror.New(apperror.CodeNotFound, "progress session not found")
	}

	applyUpdate(session, update)
	t.store.SaveSession(session)
	t.appendUpdate(session, update)
	return nil
}

func (t *MemoryTracker) CompleteSession(ctx context.Context, sessionId uuid.UUID, status entity.ProgressStatus, errMsg string) error {
	session, found := t.store.GetSession(sessionId)
	if !found {
		return apperror.New(apperror.CodeNotFound, "progress session not found")
	}

	now := time.Now()
	session.Status = status
	session.EndedAt = &now
	if status == entity.ProgressCompleted {
		session.CurrentStep = session.TotalSteps
		session.CurrentSubmission = session.TotalSubmissions - 1
	}
	t.store.SaveSession(session)
	t.appendUpdate(session, Update{
		SessionId:       sessionId,
		Step:            session.CurrentStep,
		SubmissionIndex: session.CurrentSubmission,
		Operation:       "session " + string(status),
		Error:           errMsg,
	})
	return nil
}

func (t *MemoryTracker) GetProgress(ctx context.Context, sessionId uuid.UUID) (*entity.ProgressSession, error) {
	session, found := t.store.GetSession(sessionId)
	if !found {
		return nil, apperror.New(apperror.CodeNotFound, "progress session not found")
	}
	return session, nil
}

func (t *MemoryTracker) GetHistory(ctx context.Context, sessionId uuid.UUID) ([]*entity.ProgressUpdate, error) {
	return t.store.ListUpdates(sessionId), nil
}

func (t *MemoryTracker) RecoverSession(ctx context.Context, sessionId uuid.UUID, mode entity.RecoveryMode, step int) (*entity.ProgressSession, error) {
	session, found := t.store.GetSession(sessionId)
	if !found {
		return nil, apperror.New(apperror.CodeNotFound, "progress session not found")
	}

	applyRecovery(session, mode, step)
	t.store.SaveSession(session)
	t.appendUpdate(session, Update{
		SessionId:       sessionId,
		Step:            session.CurrentStep,
		SubmissionIndex: session.CurrentSubmission,
		Operation:       "recovered with mode " + string(mode),
	})
	return session, nil
}

func (t *MemoryTracker) appendUpdate(session *entity.ProgressSession, update Update) {
	t.store.AppendUpdate(&entity.ProgressUpdate{
		Id:         uuid.New(),
		SessionId:  session.Id,
		Step:       session.CurrentStep,
		Operation:  update.Operation,
		Percentage: session.Percentage(),
		Error:      update.Error,
		Metrics:    update.Metrics,
		CreatedAt:  time.Now(),
	})
}
