package progress

import (
	"context"
	"time"

	"exam-grading-be/internal/apperror"
	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/repository/contract"

	"github.com/google/uuid"
)

// PersistentTracker is the primary tracker. Every accepted update is
// stored as an immutable log row next to the recomputed session state.
type PersistentTracker struct {
	repo contract.ProgressRepository
}

func NewPersistentTracker(repo contract.ProgressRepository) *PersistentTracker {
	return &PersistentTracker{repo: repo}
}

func (t *PersistentTracker) CreateSession(ctx context.Context, session *entity.ProgressSession) error {
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
	return t.repo.CreateSession(ctx, session)
}

func (t *PersistentTracker) UpdateProgress(ctx context.Context, update Update) error {
	session, err := t.repo.FindSession(ctx, update.SessionId)
	if err != nil {
		return apperror.Wrap(apperror.CodePersistence, "load progress session", err)
	}
	if session == nil {
		return apperror.New(apperror.CodeNotFound, "progress session not found")
	}

	applyUpdate(session, update)
	if err := t.repo.UpdateSession(ctx, session); err != nil {
		return apperror.Wrap(apperror.CodePersistence, "update progress session", err)
	}

	return t.appendUpdate(ctx, session, update)
}

func (t *PersistentTracker) CompleteSession(ctx context.Context, sessionId uuid.UUID, status entity.ProgressStatus, errMsg string) error {
	session, err := t.repo.FindSession(ctx, sessionId)
	if err != nil {
		return apperror.Wrap(apperror.CodePersistence, "load progress session", err)
	}
	if session == nil {
		return apperror.New(apperror.CodeNotFound, "progress session not found")
	}

	now := time.Now()
	session.Status = status
	session.EndedAt = &now
	if status == entity.ProgressCompleted {
		session.CurrentStep = session.TotalSteps
		session.CurrentSubmission = session.TotalSubmissions - 1
	}
	if err := t.repo.UpdateSession(ctx, session); err != nil {
		return apperror.Wrap(apperror.CodePersistence, "complete progress session", err)
	}

	return t.appendUpdate(ctx, session, Update{
		SessionId:       sessionId,
		Step:            session.CurrentStep,
		SubmissionIndex: session.CurrentSubmission,
		Operation:       "session " + string(status),
		Error:           errMsg,
	})
}

func (t *PersistentTracker) GetProgress(ctx context.Context, sessionId uuid.UUID) (*entity.ProgressSession, error) {
	session, err := t.repo.FindSession(ctx, sessionId)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodePersistence, "load progress session", err)
	}
	if session == nil {
		return nil, apperror.New(apperror.CodeNotFound, "progress session not found")
	}
	return session, nil
}

func (t *PersistentTracker) GetHistory(ctx context.Context, sessionId uuid.UUID) ([]*entity.ProgressUpdate, error) {
	updates, err := t.repo.ListUpdates(ctx, sessionId)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodePersistence, "list progress updates", err)
	}
	return updates, nil
}

func (t *PersistentTracker) RecoverSession(ctx context.Context, sessionId uuid.UUID, mode entity.RecoveryMode, step int) (*entity.ProgressSession, error) {
	session, err := t.repo.FindSession(ctx, sessionId)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodePersistence, "load progress session", err)
	}
	if session == nil {
		return nil, apperror.New(apperror.CodeNotFound, "progress session not found")
	}

	applyRecovery(session, mode, step)
	if err := t.repo.UpdateSession(ctx, session); err != nil {
		return nil, apperror.Wrap(apperror.CodePersistence, "recover progress session", err)
	}

	if err := t.appendUpdate(ctx, session, Update{
		SessionId:       sessionId,
		Step:            session.CurrentStep,
		SubmissionIndex: session.CurrentSubmission,
		Operation:       "recovered with mode " + string(mode),
	}); err != nil {
		return nil, err
	}
	return session, nil
}

func (t *PersistentTracker) appendUpdate(ctx context.Context, session *entity.ProgressSession, update Update) error {
	row := &entity.ProgressUpdate{
		Id:         uuid.New(),
		SessionId:  session.Id,
		Step:       session.CurrentStep,
		Operation:  update.Operation,
		Percentage: session.Percentage(),
		Error:      update.Error,
		Metrics:    update.Metrics,
		CreatedAt:  time.Now(),
	}
	if err := t.repo.AppendUpdate(ctx, row); err != nil {
		return apperror.Wrap(apperror.CodePersistence, "append progress update", err)
	}
	return nil
}
