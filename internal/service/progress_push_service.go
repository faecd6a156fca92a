package service

import (
	"context"
	"encoding/json"

	"exam-grading-be/internal/dto"
	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/pkg/logger"
	"exam-grading-be/internal/progress"
	"exam-grading-be/internal/websocket"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// IProgressPushService bridges the internal progress topic to the
// websocket hub so browsers see live pipeline updates.
type IProgressPushService interface {
	Consume(ctx context.Context) error
}

type progressPushService struct {
	pubSub *gochannel.GoChannel
	hub    *websocket.Hub
	logger logger.ILogger
}

func NewProgressPushService(pubSub *gochannel.GoChannel, hub *websocket.Hub, log logger.ILogger) IProgressPushService {
	return &progressPushService{
		pubSub: pubSub,
		hub:    hub,
		logger: log,
	}
}

func (ps *progressPushService) Consume(ctx context.Context) error {
	messages, err := ps.pubSub.Subscribe(ctx, progress.TopicProgressUpdated)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			ps.push(msg)
			msg.Ack()
		}
	}()

	return nil
}

func (ps *progressPushService) push(msg *message.Message) {
	var event dto.ProgressEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		ps.logger.Error("ProgressPush", "Failed to unmarshal progress event", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	priority := entity.PriorityNormal
	if event.Error != "" {
		priority = entity.PriorityHigh
	}

	// Session watchers get the update whether or not they own it.
	ps.hub.EmitToRoom("session:"+event.SessionId.String(), event.Type, event, priority)

	if event.UserId == "" {
		return
	}
	userId, err := uuid.Parse(event.UserId)
	if err != nil {
		ps.logger.Warn("ProgressPush", "Progress event carries malformed user id", map[string]interface{}{
			"session_id": event.SessionId.String(),
			"user_id":    event.UserId,
		})
		return
	}
	ps.hub.EmitToUser(userId, event.Type, event, priority)
}
