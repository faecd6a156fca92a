package progress

import (
	"context"
	"encoding/json"
	"time"

	"exam-grading-be/internal/dto"
	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// TopicProgressUpdated carries one message per accepted progress change
// on the in-process bus.
const TopicProgressUpdated = "progress_updated"

// PublishingTracker decorates a Tracker so every accepted write also
// emits a ProgressEvent on the bus. Emission is best effort; a publish
// failure is logged and never fails the tracked operation.
type PublishingTracker struct {
	Tracker
	publisher message.Publisher
	log       logger.ILogger
}

func NewPublishingTracker(inner Tracker, publisher message.Publisher, log logger.ILogger) *PublishingTracker {
	return &PublishingTracker{
		Tracker:   inner,
		publisher: publisher,
		log:       log,
	}
}

func (t *PublishingTracker) UpdateProgress(ctx context.Context, update Update) error {
	if err := t.Tracker.UpdateProgress(ctx, update); err != nil {
		return err
	}
	t.emit(ctx, update.SessionId, update.Operation, update.Error, update.Metrics)
	return nil
}

func (t *PublishingTracker) CompleteSession(ctx context.Context, sessionId uuid.UUID, status entity.ProgressStatus, errMsg string) error {
	if err := t.Tracker.CompleteSession(ctx, sessionId, status, errMsg); err != nil {
		return err
	}
	t.emit(ctx, sessionId, "session "+string(status), errMsg, nil)
	return nil
}

func (t *PublishingTracker) RecoverSession(ctx context.Context, sessionId uuid.UUID, mode entity.RecoveryMode, step int) (*entity.ProgressSession, error) {
	session, err := t.Tracker.RecoverSession(ctx, sessionId, mode, step)
	if err != nil {
		return nil, err
	}
	t.emit(ctx, sessionId, "recovered with mode "+string(mode), "", nil)
	return session, nil
}

func (t *PublishingTracker) emit(ctx context.Context, sessionId uuid.UUID, operation, errMsg string, metrics map[string]interface{}) {
	session, err := t.Tracker.GetProgress(ctx, sessionId)
	if err != nil {
		t.log.Warn("progress", "skipping progress event, session unreadable", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
		return
	}

	userId, _ := session.Metadata["user_id"].(string)
	event := dto.ProgressEvent{
		Type:       "progress_update",
		SessionId:  sessionId,
		UserId:     userId,
		Operation:  operation,
		Step:       session.CurrentStep,
		TotalSteps: session.TotalSteps,
		Percentage: session.Percentage(),
		Error:      errMsg,
		Metrics:    metrics,
		Timestamp:  time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		t.log.Error("progress", "failed to marshal progress event", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := t.publisher.Publish(TopicProgressUpdated, msg); err != nil {
		t.log.Warn("progress", "failed to publish progress event", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	}
}
