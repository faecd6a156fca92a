package service

import (
	"context"
	"encoding/json"
	"time"

	"exam-grading-be/internal/apperror"
	"exam-grading-be/internal/dto"
	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/pkg/logger"
	"exam-grading-be/internal/repository/specification"
	"exam-grading-be/internal/repository/unitofwork"
	"exam-grading-be/pkg/events"
	"exam-grading-be/pkg/grading/pipeline"
	pktNats "exam-grading-be/pkg/nats"

	"github.com/google/uuid"
)

type IGradingService interface {
	Process(ctx context.Context, userId uuid.UUID, req *dto.ProcessGradingRequest) (*dto.ProcessGradingResponse, error)
	GetSession(ctx context.Context, sessionId uuid.UUID) (*dto.SessionStatusResponse, error)
	GetSessionBySubmission(ctx context.Context, submissionId uuid.UUID) (*dto.SessionStatusResponse, error)
	GetResults(ctx context.Context, sessionId uuid.UUID) (*dto.SessionResultsResponse, error)
	RunJob(ctx context.Context, job *dto.PublishGradingJobMessage) error
}

type gradingService struct {
	uowFactory       unitofwork.RepositoryFactory
	orchestrator     *pipeline.Orchestrator
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger
}

func NewGradingService(
	uowFactory unitofwork.RepositoryFactory,
	orchestrator *pipeline.Orchestrator,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IGradingService {
	return &gradingService{
		uowFactory:       uowFactory,
		orchestrator:     orchestrator,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
	}
}

// Process triggers a grading run for one (submission, guide) pair.
// Synchronous calls block until the pipeline finishes; async calls
// register the session, enqueue a job on the internal bus and return
// immediately. Either way the caller gets the session it can poll.
func (s *gradingService) Process(ctx context.Context, userId uuid.UUID, req *dto.ProcessGradingRequest) (*dto.ProcessGradingResponse, error) {
	if req.Async {
		return s.enqueue(ctx, userId, req)
	}

	result, err := s.orchestrator.Run(ctx, req.SubmissionId, req.GuideId, userId, req.MaxQuestions)
	if err != nil {
		if result != nil && result.Session != nil {
			s.publishFailed(ctx, result.Session, err)
			return s.toProcessResponse(result, err), err
		}
		return nil, err
	}

	if !result.Reused {
		s.publishCompleted(ctx, result.Session)
	}
	return s.toProcessResponse(result, nil), nil
}

// enqueue registers the session up front so the caller can poll it
// while a worker picks the job off the bus.
func (s *gradingService) enqueue(ctx context.Context, userId uuid.UUID, req *dto.ProcessGradingRequest) (*dto.ProcessGradingResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions := uow.GradingSessionRepository()

	session, err := sessions.FindByPair(ctx, req.SubmissionId, req.GuideId)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodePersistence, "lookup session", err)
	}

	if session != nil && (session.Status == entity.StatusCompleted || session.InProgress()) {
		return &dto.ProcessGradingResponse{
			Success:           true,
			SessionId:         session.Id,
			Status:            string(session.Status),
			Steps:             session.Steps,
			QuestionsMapped:   session.QuestionsMapped,
			QuestionsGraded:   session.QuestionsGraded,
			QuestionsSelected: session.QuestionsSelected,
		}, nil
	}

	if session == nil {
		session = &entity.GradingSession{
			Id:                uuid.New(),
			SubmissionId:      req.SubmissionId,
			GuideId:           req.GuideId,
			UserId:            userId,
			Status:            entity.StatusNotStarted,
			Steps:             entity.NewStepMap(),
			MaxQuestionsLimit: req.MaxQuestions,
			StartedAt:         time.Now(),
		}
		if err := sessions.Create(ctx, session); err != nil {
			// A concurrent request may have registered the pair first.
			existing, findErr := sessions.FindByPair(ctx, req.SubmissionId, req.GuideId)
			if findErr != nil || existing == nil {
				return nil, apperror.Wrap(apperror.CodePersistence, "register session", err)
			}
			session = existing
		}
	}

	job := dto.PublishGradingJobMessage{
		SessionId:    session.Id,
		SubmissionId: req.SubmissionId,
		GuideId:      req.GuideId,
		UserId:       userId,
		MaxQuestions: req.MaxQuestions,
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, "marshal grading job", err)
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, "enqueue grading job", err)
	}

	s.logger.Info("GradingService", "Grading job enqueued", map[string]interface{}{
		"session_id":    session.Id.String(),
		"submission_id": req.SubmissionId.String(),
		"guide_id":      req.GuideId.String(),
	})

	return &dto.ProcessGradingResponse{
		Success:   true,
		SessionId: session.Id,
		Status:    string(session.Status),
		Steps:     session.Steps,
	}, nil
}

// RunJob executes a queued grading job. Called by the consumer workers.
func (s *gradingService) RunJob(ctx context.Context, job *dto.PublishGradingJobMessage) error {
	result, err := s.orchestrator.Run(ctx, job.SubmissionId, job.GuideId, job.UserId, job.MaxQuestions)
	if err != nil {
		if result != nil && result.Session != nil {
			s.publishFailed(ctx, result.Session, err)
		}
		return err
	}
	if !result.Reused {
		s.publishCompleted(ctx, result.Session)
	}
	return nil
}

func (s *gradingService) GetSession(ctx context.Context, sessionId uuid.UUID) (*dto.SessionStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.GradingSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, apperror.Wrap(apperror.CodePersistence, "load session", err)
	}
	if session == nil {
		return nil, apperror.New(apperror.CodeNotFound, "grading session not found")
	}
	return s.toStatusResponse(session), nil
}

func (s *gradingService) GetSessionBySubmission(ctx context.Context, submissionId uuid.UUID) (*dto.SessionStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.GradingSessionRepository().FindOne(ctx,
		specification.Filter("submission_id", submissionId),
		specification.OrderBy{Field: "started_at", Desc: true},
	)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodePersistence, "load session", err)
	}
	if session == nil {
		return nil, apperror.New(apperror.CodeNotFound, "no grading session for submission")
	}
	return s.toStatusResponse(session), nil
}

// GetResults returns the persisted results of a session joined with the
// mapping each one scored.
func (s *gradingService) GetResults(ctx context.Context, sessionId uuid.UUID) (*dto.SessionResultsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.GradingSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, apperror.Wrap(apperror.CodePersistence, "load session", err)
	}
	if session == nil {
		return nil, apperror.New(apperror.CodeNotFound, "grading session not found")
	}

	results, err := uow.ResultRepository().FindBySessionId(ctx, sessionId)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodePersistence, "load results", err)
	}
	mappings, err := uow.MappingRepository().FindAll(ctx, specification.BySessionID{SessionID: sessionId})
	if err != nil {
		return nil, apperror.Wrap(apperror.CodePersistence, "load mappings", err)
	}

	byId := make(map[uuid.UUID]*entity.MappingRecord, len(mappings))
	for _, m := range mappings {
		byId[m.Id] = m
	}

	items := make([]dto.GradingResultItem, 0, len(results))
	for _, r := range results {
		item := dto.GradingResultItem{
			MappingId:            r.MappingId,
			Score:                r.Score,
			Percentage:           r.Percentage,
			Feedback:             r.Feedback,
			Confidence:           r.Confidence,
			Method:               string(r.Method),
			RequiresManualReview: r.RequiresManualReview,
		}
		if m, ok := byId[r.MappingId]; ok {
			item.QuestionText = m.QuestionText
			item.AnswerText = m.AnswerText
			item.MaxScore = m.MaxScore
		}
		items = append(items, item)
	}

	return &dto.SessionResultsResponse{
		SessionId: sessionId,
		Status:    string(session.Status),
		Results:   items,
	}, nil
}

func (s *gradingService) toProcessResponse(result *pipeline.Result, runErr error) *dto.ProcessGradingResponse {
	session := result.Session
	resp := &dto.ProcessGradingResponse{
		Success:           runErr == nil,
		SessionId:         session.Id,
		Status:            string(session.Status),
		Steps:             session.Steps,
		QuestionsMapped:   session.QuestionsMapped,
		QuestionsGraded:   session.QuestionsGraded,
		QuestionsSelected: session.QuestionsSelected,
		MappingsSaved:     result.MappingsSaved,
		ResultsSaved:      result.ResultsSaved,
		ProcessingTimeMs:  result.ProcessingTime.Milliseconds(),
		ErrorMessage:      session.ErrorMessage,
	}
	if runErr != nil && resp.ErrorMessage == "" {
		resp.ErrorMessage = runErr.Error()
	}
	return resp
}

func (s *gradingService) toStatusResponse(session *entity.GradingSession) *dto.SessionStatusResponse {
	return &dto.SessionStatusResponse{
		SessionId:         session.Id,
		SubmissionId:      session.SubmissionId,
		GuideId:           session.GuideId,
		Status:            string(session.Status),
		Steps:             session.Steps,
		QuestionsMapped:   session.QuestionsMapped,
		QuestionsGraded:   session.QuestionsGraded,
		QuestionsSelected: session.QuestionsSelected,
		ErrorMessage:      session.ErrorMessage,
		StartedAt:         session.StartedAt,
		CompletedAt:       session.CompletedAt,
	}
}

// publishCompleted and publishFailed emit domain events for the
// notification pipeline. Emission is best effort.
func (s *gradingService) publishCompleted(ctx context.Context, session *entity.GradingSession) {
	if s.eventPublisher == nil {
		return
	}
	evt := events.NewSessionCompleted(session.Id, session.SubmissionId, session.GuideId, session.UserId, session.QuestionsSelected)
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("GradingService", "Failed to publish completion event", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
	}
}

func (s *gradingService) publishFailed(ctx context.Context, session *entity.GradingSession, cause error) {
	if s.eventPublisher == nil {
		return
	}
	stage := string(session.Status)
	for name, step := range session.Steps {
		if step == entity.StepFailed {
			stage = name
			break
		}
	}
	evt := events.NewSessionFailed(session.Id, session.SubmissionId, session.GuideId, session.UserId, stage, cause.Error())
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("GradingService", "Failed to publish failure event", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
	}
}
