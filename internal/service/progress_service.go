package service

import (
	"context"
	"time"

	"exam-grading-be/internal/dto"
	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/progress"

	"github.com/google/uuid"
)

type IProgressService interface {
	GetProgress(ctx context.Context, sessionId uuid.UUID) (*dto.ProgressResponse, error)
	GetHistory(ctx context.Context, sessionId uuid.UUID) (*dto.ProgressHistoryResponse, error)
	Recover(ctx context.Context, req *dto.RecoverProgressRequest) (*dto.RecoverProgressResponse, error)
}

type progressService struct {
	tracker progress.Tracker
}

func NewProgressService(tracker progress.Tracker) IProgressService {
	return &progressService{tracker: tracker}
}

func (s *progressService) GetProgress(ctx context.Context, sessionId uuid.UUID) (*dto.ProgressResponse, error) {
	session, err := s.tracker.GetProgress(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	return &dto.ProgressResponse{
		SessionId:         session.Id,
		Status:            string(session.Status),
		CurrentOperation:  session.CurrentOperation,
		CurrentStep:       session.CurrentStep,
		TotalSteps:        session.TotalSteps,
		CurrentSubmission: session.CurrentSubmission,
		TotalSubmissions:  session.TotalSubmissions,
		Percentage:        session.Percentage(),
		EtaSeconds:        session.ETA(time.Now()).Seconds(),
		StartedAt:         session.StartedAt,
	}, nil
}

func (s *progressService) GetHistory(ctx context.Context, sessionId uuid.UUID) (*dto.ProgressHistoryResponse, error) {
	updates, err := s.tracker.GetHistory(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	items := make([]dto.ProgressHistoryItem, len(updates))
	for i, u := range updates {
		items[i] = dto.ProgressHistoryItem{
			Step:       u.Step,
			Operation:  u.Operation,
			Percentage: u.Percentage,
			Error:      u.Error,
			Metrics:    u.Metrics,
			CreatedAt:  u.CreatedAt,
		}
	}

	return &dto.ProgressHistoryResponse{
		SessionId: sessionId,
		Updates:   items,
	}, nil
}

// Recover re-activates an interrupted session. Rollback steps the
// session back to the last known step, restart zeroes it, resume keeps
// the recorded position.
func (s *progressService) Recover(ctx context.Context, req *dto.RecoverProgressRequest) (*dto.RecoverProgressResponse, error) {
	session, err := s.tracker.GetProgress(ctx, req.SessionId)
	if err != nil {
		return nil, err
	}

	recovered, err := s.tracker.RecoverSession(ctx, req.SessionId, entity.RecoveryMode(req.Mode), session.CurrentStep)
	if err != nil {
		return nil, err
	}

	return &dto.RecoverProgressResponse{
		SessionId:   recovered.Id,
		Mode:        req.Mode,
		CurrentStep: recovered.CurrentStep,
		Status:      string(recovered.Status),
	}, nil
}
