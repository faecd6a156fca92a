package pipeline

import (
	"context"
	"time"

	"exam-grading-be/internal/apperror"
	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/pkg/logger"
	"exam-grading-be/internal/progress"
	"exam-grading-be/internal/repository/specification"
	"exam-grading-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Engine is the mapping/grading collaborator. Satisfied by
// *fastpath.Engine.
type Engine interface {
	MapAnswers(ctx context.Context, guide *entity.MarkingGuide, submission *entity.Submission, maxQuestions *int) ([]*entity.MappingRecord, error)
	GradeBatch(ctx context.Context, mappings []*entity.MappingRecord, guide *entity.MarkingGuide) ([]*entity.GradedMapping, error)
}

// Result is what a pipeline run reports back, failed runs included, so
// callers can always render the session and its step map.
type Result struct {
	Session        *entity.GradingSession
	Reused         bool
	MappingsSaved  int
	ResultsSaved   int
	ProcessingTime time.Duration
}

// Orchestrator drives the staged grading workflow. Stages run strictly
// in order, each gated on the previous stage's success, with progress
// reported after every transition. One orchestrator serves all
// sessions; per-pair serialization happens on an internal keyed lock.
type Orchestrator struct {
	uowFactory unitofwork.RepositoryFactory
	engine     Engine
	tracker    progress.Tracker
	log        logger.ILogger
	locks      *keyedMutex
}

func NewOrchestrator(uowFactory unitofwork.RepositoryFactory, engine Engine, tracker progress.Tracker, log logger.ILogger) *Orchestrator {
	return &Orchestrator{
		uowFactory: uowFactory,
		engine:     engine,
		tracker:    tracker,
		log:        log,
		locks:      newKeyedMutex(),
	}
}

// runState carries intermediate stage outputs through one run.
type runState struct {
	submission *entity.Submission
	guide      *entity.MarkingGuide
	mappings   []*entity.MappingRecord
	graded     []*entity.GradedMapping
	selected   []*entity.GradedMapping
}

// Run executes the pipeline for one (submission, guide) pair. The pair
// is the idempotency key: a completed or in-flight session is returned
// as-is, a failed one is reset and reprocessed. On stage failure the
// session is marked failed and returned alongside the error.
func (o *Orchestrator) Run(ctx context.Context, submissionId, guideId, userId uuid.UUID, maxQuestions *int) (*Result, error) {
	start := time.Now()
	key := submissionId.String() + ":" + guideId.String()
	o.locks.Lock(key)
	defer o.locks.Unlock(key)

	uow := o.uowFactory.NewUnitOfWork(ctx)
	sessions := uow.GradingSessionRepository()

	session, reused, err := o.obtainSession(ctx, sessions, submissionId, guideId, userId, maxQuestions)
	if err != nil {
		return nil, err
	}
	if reused {
		o.log.Info("pipeline", "returning existing session", map[string]interface{}{
			"session_id": session.Id.String(),
			"status":     string(session.Status),
		})
		return &Result{Session: session, Reused: true, ProcessingTime: time.Since(start)}, nil
	}

	if err := o.tracker.CreateSession(ctx, &entity.ProgressSession{
		Id:               session.Id,
		TotalSteps:       len(entity.StageNames),
		TotalSubmissions: 1,
		CurrentOperation: "grading submission",
		Metadata: map[string]interface{}{
			"submission_id": submissionId.String(),
			"guide_id":      guideId.String(),
			"user_id":       userId.String(),
		},
	}); err != nil {
		o.log.Warn("pipeline", "progress session not created", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
	}

	state := &runState{}
	stages := []struct {
		name      string
		status    entity.SessionStatus
		operation string
		run       func(context.Context, unitofwork.UnitOfWork, *entity.GradingSession, *runState) error
	}{
		{"text_retrieval", entity.StatusTextRetrieval, "retrieving submission and guide text", o.stageRetrieve},
		{"mapping", entity.StatusMapping, "mapping answers to questions", o.stageMap},
		{"grading", entity.StatusGrading, "grading mapped answers", o.stageGrade},
		{"saving", entity.StatusSaving, "selecting and saving results", o.stageSave},
	}

	for i, stage := range stages {
		if err := ctx.Err(); err != nil {
			cancelErr := apperror.Wrap(apperror.CodeInternal, "pipeline cancelled", err)
			o.failSession(ctx, sessions, session, stage.name, cancelErr)
			return &Result{Session: session, ProcessingTime: time.Since(start)}, cancelErr
		}

		session.Status = stage.status
		session.Steps[stage.name] = entity.StepInProgress
		if err := sessions.Update(ctx, session); err != nil {
			persistErr := apperror.Wrap(apperror.CodePersistence, "persist stage transition", err)
			o.failSession(ctx, sessions, session, stage.name, persistErr)
			return &Result{Session: session, ProcessingTime: time.Since(start)}, persistErr
		}
		o.reportProgress(ctx, session.Id, i, stage.operation)

		if err := stage.run(ctx, uow, session, state); err != nil {
			o.failSession(ctx, sessions, session, stage.name, err)
			return &Result{Session: session, ProcessingTime: time.Since(start)}, err
		}

		session.Steps[stage.name] = entity.StepCompleted
		o.reportProgress(ctx, session.Id, i+1, stage.operation)
	}

	if err := o.tracker.CompleteSession(ctx, session.Id, entity.ProgressCompleted, ""); err != nil {
		o.log.Warn("pipeline", "progress completion not recorded", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
	}

	o.log.Info("pipeline", "session completed", map[string]interface{}{
		"session_id":         session.Id.String(),
		"questions_mapped":   session.QuestionsMapped,
		"questions_graded":   session.QuestionsGraded,
		"questions_selected": session.QuestionsSelected,
		"duration_ms":        time.Since(start).Milliseconds(),
	})

	return &Result{
		Session:        session,
		MappingsSaved:  len(state.selected),
		ResultsSaved:   len(state.selected),
		ProcessingTime: time.Since(start),
	}, nil
}

func (o *Orchestrator) obtainSession(ctx context.Context, sessions sessionRepo, submissionId, guideId, userId uuid.UUID, maxQuestions *int) (*entity.GradingSession, bool, error) {
	existing, err := sessions.FindByPair(ctx, submissionId, guideId)
	if err != nil {
		return nil, false, apperror.Wrap(apperror.CodePersistence, "lookup session", err)
	}

	if existing != nil {
		if existing.Status == entity.StatusCompleted || existing.InProgress() {
			return existing, true, nil
		}
		// A failed session is reset in place and reprocessed.
		existing.Status = entity.StatusNotStarted
		existing.Steps = entity.NewStepMap()
		existing.QuestionsMapped = 0
		existing.QuestionsGraded = 0
		existing.QuestionsSelected = 0
		existing.ErrorMessage = ""
		existing.CompletedAt = nil
		existing.StartedAt = time.Now()
		if maxQuestions != nil {
			existing.MaxQuestionsLimit = maxQuestions
		}
		if err := sessions.Update(ctx, existing); err != nil {
			return nil, false, apperror.Wrap(apperror.CodePersistence, "reset failed session", err)
		}
		return existing, false, nil
	}

	session := &entity.GradingSession{
		Id:                uuid.New(),
		SubmissionId:      submissionId,
		GuideId:           guideId,
		UserId:            userId,
		Status:            entity.StatusNotStarted,
		Steps:             entity.NewStepMap(),
		MaxQuestionsLimit: maxQuestions,
		StartedAt:         time.Now(),
	}
	if err := sessions.Create(ctx, session); err != nil {
		return nil, false, apperror.Wrap(apperror.CodePersistence, "create session", err)
	}
	return session, false, nil
}

// sessionRepo is the subset of the session repository the orchestrator
// uses; it keeps obtainSession testable with the full contract.
type sessionRepo interface {
	Create(ctx context.Context, session *entity.GradingSession) error
	Update(ctx context.Context, session *entity.GradingSession) error
	FindByPair(ctx context.Context, submissionId, guideId uuid.UUID) (*entity.GradingSession, error)
}

func (o *Orchestrator) stageRetrieve(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.GradingSession, state *runState) error {
	submission, err := uow.SubmissionRepository().FindOne(ctx, specification.ByID{ID: session.SubmissionId})
	if err != nil {
		return apperror.Wrap(apperror.CodePersistence, "load submission", err)
	}
	if submission == nil {
		return apperror.New(apperror.CodeNotFound, "submission not found")
	}
	if submission.Text == "" {
		return apperror.New(apperror.CodeValidation, "submission has no text content")
	}

	guide, err := uow.GuideRepository().FindOne(ctx, specification.ByID{ID: session.GuideId}, specification.WithQuestions{})
	if err != nil {
		return apperror.Wrap(apperror.CodePersistence, "load guide", err)
	}
	if guide == nil {
		return apperror.New(apperror.CodeNotFound, "marking guide not found")
	}
	if guide.Text == "" && len(guide.Questions) == 0 {
		return apperror.New(apperror.CodeValidation, "marking guide has no content")
	}

	if session.MaxQuestionsLimit == nil {
		session.MaxQuestionsLimit = guide.MaxQuestions
	}

	state.submission = submission
	state.guide = guide
	return nil
}

func (o *Orchestrator) stageMap(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.GradingSession, state *runState) error {
	mappings, err := o.engine.MapAnswers(ctx, state.guide, state.submission, session.MaxQuestionsLimit)
	if err != nil {
		return apperror.Wrap(apperror.CodeInternal, "map answers", err)
	}
	if len(mappings) == 0 {
		return apperror.New(apperror.CodeValidation, "no answers could be mapped to questions")
	}
	for _, m := range mappings {
		m.SessionId = session.Id
	}
	state.mappings = mappings
	session.QuestionsMapped = len(mappings)
	return nil
}

func (o *Orchestrator) stageGrade(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.GradingSession, state *runState) error {
	graded, err := o.engine.GradeBatch(ctx, state.mappings, state.guide)
	if err != nil {
		return apperror.Wrap(apperror.CodeInternal, "grade mappings", err)
	}
	if len(graded) == 0 {
		return apperror.New(apperror.CodeInternal, "no mappings could be graded")
	}
	if len(graded) < len(state.mappings) {
		o.log.Warn("pipeline", "some mappings were skipped during grading", map[string]interface{}{
			"session_id": session.Id.String(),
			"mapped":     len(state.mappings),
			"graded":     len(graded),
		})
	}
	state.graded = graded
	session.QuestionsGraded = len(graded)
	return nil
}

// stageSave selects the top mappings and persists mappings, results and
// session counters as one transaction.
func (o *Orchestrator) stageSave(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.GradingSession, state *runState) error {
	state.selected = SelectTop(state.graded, session.MaxQuestionsLimit)
	session.QuestionsSelected = len(state.selected)

	if err := uow.Begin(ctx); err != nil {
		return apperror.Wrap(apperror.CodePersistence, "begin save transaction", err)
	}

	selectedMappings := make([]*entity.MappingRecord, len(state.selected))
	for i, g := range state.selected {
		m := g.Mapping
		selectedMappings[i] = &m
	}

	if err := uow.MappingRepository().CreateBatch(ctx, selectedMappings); err != nil {
		_ = uow.Rollback()
		return apperror.Wrap(apperror.CodePersistence, "save mappings", err)
	}
	if err := uow.ResultRepository().CreateBatch(ctx, state.selected); err != nil {
		_ = uow.Rollback()
		return apperror.Wrap(apperror.CodePersistence, "save grading results", err)
	}

	now := time.Now()
	session.Status = entity.StatusCompleted
	session.Steps["saving"] = entity.StepCompleted
	session.CompletedAt = &now
	if err := uow.GradingSessionRepository().Update(ctx, session); err != nil {
		_ = uow.Rollback()
		return apperror.Wrap(apperror.CodePersistence, "finalize session", err)
	}

	if err := uow.Commit(); err != nil {
		return apperror.Wrap(apperror.CodePersistence, "commit save transaction", err)
	}
	return nil
}

func (o *Orchestrator) failSession(ctx context.Context, sessions sessionRepo, session *entity.GradingSession, stage string, cause error) {
	now := time.Now()
	session.Status = entity.StatusFailed
	session.Steps[stage] = entity.StepFailed
	session.ErrorMessage = cause.Error()
	session.CompletedAt = &now
	if err := sessions.Update(ctx, session); err != nil {
		o.log.Error("pipeline", "failed session state not persisted", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
	}
	if err := o.tracker.CompleteSession(ctx, session.Id, entity.ProgressFailed, cause.Error()); err != nil {
		o.log.Warn("pipeline", "progress failure not recorded", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
	}
	o.log.Error("pipeline", "session failed", map[string]interface{}{
		"session_id": session.Id.String(),
		"stage":      stage,
		"error":      cause.Error(),
	})
}

func (o *Orchestrator) reportProgress(ctx context.Context, sessionId uuid.UUID, step int, operation string) {
	if err := o.tracker.UpdateProgress(ctx, progress.Update{
		SessionId: sessionId,
		Step:      step,
		Operation: operation,
	}); err != nil {
		o.log.Warn("pipeline", "progress update not recorded", map[string]interface{}{
			"session_id": sessionId.String(),
			"step":       step,
			"error":      err.Error(),
		})
	}
}
