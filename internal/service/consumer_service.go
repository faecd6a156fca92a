package service

import (
	"context"
	"encoding/json"

	"exam-grading-be/internal/dto"
	"exam-grading-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains queued grading jobs with a bounded worker
// pool. All workers share one subscription, so the pool size caps how
// many pipeline runs execute concurrently.
type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	workers        int
	gradingService IGradingService
	logger         logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	workers int,
	gradingService IGradingService,
	log logger.ILogger,
) IConsumerService {
	if workers < 1 {
		workers = 1
	}
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		workers:        workers,
		gradingService: gradingService,
		logger:         log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	for i := 0; i < cs.workers; i++ {
		go func(worker int) {
			for msg := range messages {
				cs.processMessage(ctx, worker, msg)
			}
		}(i)
	}

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, worker int, msg *message.Message) {
	var job dto.PublishGradingJobMessage
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal grading job", map[string]interface{}{
			"error": err.Error(),
		})
		// Ack invalid messages to prevent infinite retry.
		msg.Ack()
		return
	}

	cs.logger.Info("ConsumerService", "Processing grading job", map[string]interface{}{
		"worker":        worker,
		"session_id":    job.SessionId.String(),
		"submission_id": job.SubmissionId.String(),
		"guide_id":      job.GuideId.String(),
	})

	if err := cs.gradingService.RunJob(ctx, &job); err != nil {
		// The pipeline already marked the session failed; the error is
		// readable through the session, so the message is not retried.
		cs.logger.Error("ConsumerService", "Grading job failed", map[string]interface{}{
			"session_id": job.SessionId.String(),
			"error":      err.Error(),
		})
	}
	msg.Ack()
}
