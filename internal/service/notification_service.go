package service

import (
	"context"
	"fmt"

	"exam-grading-be/internal/apperror"
	"exam-grading-be/internal/dto"
	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/pkg/logger"
	"exam-grading-be/internal/pkg/mailer"
	"exam-grading-be/internal/repository/specification"
	"exam-grading-be/internal/repository/unitofwork"
	"exam-grading-be/pkg/events"
	pktNats "exam-grading-be/pkg/nats"

	"github.com/google/uuid"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the websocket Hub.
type NotificationDelivery interface {
	EmitToUser(userId uuid.UUID, event string, data interface{}, priority entity.NotificationPriority)
}

type INotificationService interface {
	Start()
	GetNotifications(ctx context.Context, userId uuid.UUID, limit, offset int) (*dto.ListNotificationsResponse, error)
	MarkAsRead(ctx context.Context, userId, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userId uuid.UUID) error
}

type notificationService struct {
	uowFactory  unitofwork.RepositoryFactory
	subscriber  *pktNats.Subscriber
	delivery    NotificationDelivery
	mail        mailer.IEmailService
	notifyEmail string
	logger      logger.ILogger
}

func NewNotificationService(
	uowFactory unitofwork.RepositoryFactory,
	sub *pktNats.Subscriber,
	delivery NotificationDelivery,
	mail mailer.IEmailService,
	notifyEmail string,
	log logger.ILogger,
) INotificationService {
	return &notificationService{
		uowFactory:  uowFactory,
		subscriber:  sub,
		delivery:    delivery,
		mail:        mail,
		notifyEmail: notifyEmail,
		logger:      log,
	}
}

// Start begins listening to the grading event bus.
func (s *notificationService) Start() {
	if s.subscriber == nil {
		s.logger.Warn("NotificationService", "No event subscriber configured, notifications disabled", nil)
		return
	}
	err := s.subscriber.Subscribe("grading.>", "notif-service-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to grading.>", nil)
}

func (s *notificationService) handleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	userIdStr, _ := payload["user_id"].(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		s.logger.Warn("NotificationService", "Event without a valid user_id, skipping", map[string]interface{}{
			"type": event.EventType(),
		})
		return nil
	}

	var notification *entity.Notification
	switch event.EventType() {
	case events.TypeSessionCompleted:
		notification = s.buildCompleted(userId, payload)
	case events.TypeSessionFailed:
		notification = s.buildFailed(userId, payload)
	default:
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.NotificationRepository().Create(ctx, notification); err != nil {
		s.logger.Error("NotificationService", "Failed to persist notification", map[string]interface{}{
			"type":  notification.Type,
			"error": err.Error(),
		})
		// Retry through the durable consumer.
		return err
	}

	if s.delivery != nil {
		s.delivery.EmitToUser(userId, "notification", s.toItem(notification), notification.Priority)
	}
	s.sendMail(notification, payload)
	return nil
}

func (s *notificationService) buildCompleted(userId uuid.UUID, payload map[string]interface{}) *entity.Notification {
	selected, _ := payload["questions_selected"].(float64)
	return &entity.Notification{
		Id:       uuid.New(),
		UserId:   userId,
		Type:     events.TypeSessionCompleted,
		Title:    "Grading completed",
		Message:  fmt.Sprintf("Grading finished with %d question(s) scored.", int(selected)),
		Priority: entity.PriorityNormal,
		Metadata: payload,
	}
}

func (s *notificationService) buildFailed(userId uuid.UUID, payload map[string]interface{}) *entity.Notification {
	stage, _ := payload["stage"].(string)
	reason, _ := payload["reason"].(string)
	return &entity.Notification{
		Id:       uuid.New(),
		UserId:   userId,
		Type:     events.TypeSessionFailed,
		Title:    "Grading failed",
		Message:  fmt.Sprintf("Grading stopped at the %s stage: %s", stage, reason),
		Priority: entity.PriorityHigh,
		Metadata: payload,
	}
}

func (s *notificationService) sendMail(notification *entity.Notification, payload map[string]interface{}) {
	if s.mail == nil || s.notifyEmail == "" {
		return
	}

	submissionId, _ := payload["submission_id"].(string)
	var err error
	switch notification.Type {
	case events.TypeSessionCompleted:
		selected, _ := payload["questions_selected"].(float64)
		err = s.mail.SendGradingCompleted(s.notifyEmail, submissionId, int(selected))
	case events.TypeSessionFailed:
		reason, _ := payload["reason"].(string)
		err = s.mail.SendGradingFailed(s.notifyEmail, submissionId, reason)
	}
	if err != nil {
		s.logger.Warn("NotificationService", "Failed to send notification mail", map[string]interface{}{
			"type":  notification.Type,
			"error": err.Error(),
		})
	}
}

func (s *notificationService) GetNotifications(ctx context.Context, userId uuid.UUID, limit, offset int) (*dto.ListNotificationsResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.NotificationRepository()

	notifications, err := repo.FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodePersistence, "load notifications", err)
	}

	unread, err := repo.CountUnread(ctx, userId)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodePersistence, "count unread notifications", err)
	}

	items := make([]dto.NotificationItem, len(notifications))
	for i, n := range notifications {
		items[i] = s.toItem(n)
	}

	return &dto.ListNotificationsResponse{
		Notifications: items,
		UnreadCount:   unread,
	}, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, userId, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.NotificationRepository()

	notifications, err := repo.FindAll(ctx, specification.ByID{ID: id}, specification.ByUserID{UserID: userId})
	if err != nil {
		return apperror.Wrap(apperror.CodePersistence, "load notification", err)
	}
	if len(notifications) == 0 {
		return apperror.New(apperror.CodeNotFound, "notification not found")
	}

	return repo.MarkRead(ctx, id)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.NotificationRepository().MarkAllRead(ctx, userId)
}

func (s *notificationService) toItem(n *entity.Notification) dto.NotificationItem {
	return dto.NotificationItem{
		Id:        n.Id,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Priority:  string(n.Priority),
		Metadata:  n.Metadata,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}
