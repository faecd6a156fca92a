package progress

import (
	"context"

	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/pkg/logger"

	"github.com/google/uuid"
)

// DualTracker writes through the persistent tracker first and falls
// back to the in-memory tracker when the store is unavailable. A write
// is reported successful if either tracker accepted it, so a database
// outage degrades progress visibility instead of failing the pipeline.
type DualTracker struct {
	primary  Tracker
	fallback Tracker
	log      logger.ILogger
}

func NewDualTracker(primary, fallback Tracker, log logger.ILogger) *DualTracker {
	return &DualTracker{
		primary:  primary,
		fallback: fallback,
		log:      log,
	}
}

func (t *DualTracker) CreateSession(ctx context.Context, session *entity.ProgressSession) error {
	primaryErr := t.primary.CreateSession(ctx, session)
	// The fallback always holds a copy so a mid-run store outage still
	// finds the session there.
	fallbackErr := t.fallback.CreateSession(ctx, session)
	if primaryErr != nil && fallbackErr != nil {
		return primaryErr
	}
	if primaryErr != nil {
		t.logFallback("create_session", session.Id, primaryErr)
	}
	return nil
}

func (t *DualTracker) UpdateProgress(ctx context.Context, update Update) error {
	primaryErr := t.primary.UpdateProgress(ctx, update)
	fallbackErr := t.fallback.UpdateProgress(ctx, update)
	if primaryErr != nil && fallbackErr != nil {
		return primaryErr
	}
	if primaryErr != nil {
		t.logFallback("update_progress", update.SessionId, primaryErr)
	}
	return nil
}

func (t *DualTracker) CompleteSession(ctx context.Context, sessionId uuid.UUID, status entity.ProgressStatus, errMsg string) error {
	primaryErr := t.primary.CompleteSession(ctx, sessionId, status, errMsg)
	fallbackErr := t.fallback.CompleteSession(ctx, sessionId, status, errMsg)
	if primaryErr != nil && fallbackErr != nil {
		return primaryErr
	}
	if primaryErr != nil {
		t.logFallback("complete_session", sessionId, primaryErr)
	}
	return nil
}

func (t *DualTracker) GetProgress(ctx context.Context, sessionId uuid.UUID) (*entity.ProgressSession, error) {
	session, err := t.primary.GetProgress(ctx, sessionId)
	if err == nil {
		return session, nil
	}
	return t.fallback.GetProgress(ctx, sessionId)
}

func (t *DualTracker) GetHistory(ctx context.Context, sessionId uuid.UUID) ([]*entity.ProgressUpdate, error) {
	updates, err := t.primary.GetHistory(ctx, sessionId)
	if err == nil && len(updates) > 0 {
		return updates, nil
	}
	fallbackUpdates, fallbackErr := t.fallback.GetHistory(ctx, sessionId)
	if fallbackErr != nil {
		if err != nil {
			return nil, err
		}
		return updates, nil
	}
	if len(fallbackUpdates) > 0 {
		return fallbackUpdates, nil
	}
	return updates, err
}

func (t *DualTracker) RecoverSession(ctx context.Context, sessionId uuid.UUID, mode entity.RecoveryMode, step int) (*entity.ProgressSession, error) {
	session, primaryErr := t.primary.RecoverSession(ctx, sessionId, mode, step)
	fallbackSession, fallbackErr := t.fallback.RecoverSession(ctx, sessionId, mode, step)
	if primaryErr == nil {
		return session, nil
	}
	if fallbackErr == nil {
		t.logFallback("recover_session", sessionId, primaryErr)
		return fallbackSession, nil
	}
	return nil, primaryErr
}

func (t *DualTracker) logFallback(op string, sessionId uuid.UUID, err error) {
	t.log.Warn("progress", "persistent tracker failed, served by memory fallback", map[string]interface{}{
		"operation":  op,
		"session_id": sessionId.String(),
		"error":      err.Error(),
	})
}
