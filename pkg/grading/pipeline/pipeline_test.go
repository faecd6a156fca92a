package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/progress"
	"exam-grading-be/internal/repository/contract"
	"exam-grading-be/internal/repository/memory"
	"exam-grading-be/internal/repository/specification"
	"exam-grading-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory doubles for the persistence layer.

type storeState struct {
	mu          sync.Mutex
	submissions map[uuid.UUID]*entity.Submission
	guides      map[uuid.UUID]*entity.MarkingGuide
	sessions    map[uuid.UUID]*entity.GradingSession
	mappings    []*entity.MappingRecord
	results     []*entity.GradedMapping
	rollbacks   int
	failSave    bool
}

func newStoreState() *storeState {
	return &storeState{
		submissions: make(map[uuid.UUID]*entity.Submission),
		guides:      make(map[uuid.UUID]*entity.MarkingGuide),
		sessions:    make(map[uuid.UUID]*entity.GradingSession),
	}
}

type fakeFactory struct{ state *storeState }

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{state: f.state}
}

type fakeUow struct{ state *storeState }

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error {
	u.state.mu.Lock()
	u.state.rollbacks++
	u.state.mu.Unlock()
	return nil
}

func (u *fakeUow) SubmissionRepository() contract.SubmissionRepository {
	return &fakeSubmissionRepo{state: u.state}
}
func (u *fakeUow) GuideRepository() contract.GuideRepository {
	return &fakeGuideRepo{state: u.state}
}
func (u *fakeUow) GradingSessionRepository() contract.GradingSessionRepository {
	return &fakeSessionRepo{state: u.state}
}
func (u *fakeUow) MappingRepository() contract.MappingRepository {
	return &fakeMappingRepo{state: u.state}
}
func (u *fakeUow) ResultRepository() contract.ResultRepository {
	return &fakeResultRepo{state: u.state}
}
func (u *fakeUow) ProgressRepository() contract.ProgressRepository         { return nil }
func (u *fakeUow) NotificationRepository() contract.NotificationRepository { return nil }

type fakeSubmissionRepo struct{ state *storeState }

func (r *fakeSubmissionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Submission, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			if s, found := r.state.submissions[byID.ID]; found {
				copied := *s
				return &copied, nil
			}
		}
	}
	return nil, nil
}

func (r *fakeSubmissionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Submission, error) {
	return nil, nil
}

type fakeGuideRepo struct{ state *storeState }

func (r *fakeGuideRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.MarkingGuide, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			if g, found := r.state.guides[byID.ID]; found {
				copied := *g
				return &copied, nil
			}
		}
	}
	return nil, nil
}

type fakeSessionRepo struct{ state *storeState }

func (r *fakeSessionRepo) Create(ctx context.Context, session *entity.GradingSession) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	copied := *session
	r.state.sessions[session.Id] = &copied
	return nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, session *entity.GradingSession) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	copied := *session
	steps := make(map[string]string, len(session.Steps))
	for k, v := range session.Steps {
		steps[k] = v
	}
	copied.Steps = steps
	r.state.sessions[session.Id] = &copied
	return nil
}

func (r *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.GradingSession, error) {
	return nil, nil
}

func (r *fakeSessionRepo) FindByPair(ctx context.Context, submissionId, guideId uuid.UUID) (*entity.GradingSession, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	for _, s := range r.state.sessions {
		if s.SubmissionId == submissionId && s.GuideId == guideId {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

type fakeMappingRepo struct{ state *storeState }

func (r *fakeMappingRepo) CreateBatch(ctx context.Context, records []*entity.MappingRecord) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	r.state.mappings = append(r.state.mappings, records...)
	return nil
}

func (r *fakeMappingRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MappingRecord, error) {
	return nil, nil
}

func (r *fakeMappingRepo) DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error {
	return nil
}

type fakeResultRepo struct{ state *storeState }

func (r *fakeResultRepo) CreateBatch(ctx context.Context, graded []*entity.GradedMapping) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if r.state.failSave {
		return assert.AnError
	}
	r.state.results = append(r.state.results, graded...)
	return nil
}

func (r *fakeResultRepo) FindBySessionId(ctx context.Context, sessionId uuid.UUID) ([]*entity.ResultRecord, error) {
	return nil, nil
}

func (r *fakeResultRepo) DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error {
	return nil
}

// scriptedEngine returns preset scores per mapping index.

type scriptedEngine struct {
	scores []float64
}

func (e *scriptedEngine) MapAnswers(ctx context.Context, guide *entity.MarkingGuide, submission *entity.Submission, maxQuestions *int) ([]*entity.MappingRecord, error) {
	records := make([]*entity.MappingRecord, len(guide.Questions))
	for i, q := range guide.Questions {
		records[i] = &entity.MappingRecord{
			Id:           uuid.New(),
			QuestionId:   q.Id,
			QuestionText: q.Text,
			AnswerText:   "answer " + q.Text,
			MaxScore:     q.MaxScore,
			Confidence:   0.8,
		}
	}
	return records, nil
}

func (e *scriptedEngine) GradeBatch(ctx context.Context, mappings []*entity.MappingRecord, guide *entity.MarkingGuide) ([]*entity.GradedMapping, error) {
	graded := make([]*entity.GradedMapping, len(mappings))
	for i, m := range mappings {
		score := 50.0
		if i < len(e.scores) {
			score = e.scores[i]
		}
		graded[i] = &entity.GradedMapping{
			Mapping:    *m,
			Score:      score,
			Percentage: score,
			Confidence: 0.8,
			Method:     entity.GradingMethodModel,
		}
	}
	return graded, nil
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func seedContent(state *storeState, questions int, maxQuestions *int) (uuid.UUID, uuid.UUID) {
	submission := &entity.Submission{Id: uuid.New(), UserId: uuid.New(), Title: "Exam", Text: "student answers here"}
	guide := &entity.MarkingGuide{Id: uuid.New(), UserId: submission.UserId, Title: "Guide", Text: "guide text", MaxQuestions: maxQuestions}
	for i := 0; i < questions; i++ {
		guide.Questions = append(guide.Questions, entity.GuideQuestion{
			Id:       uuid.New(),
			GuideId:  guide.Id,
			Number:   i + 1,
			Text:     "question",
			MaxScore: 100,
		})
	}
	state.submissions[submission.Id] = submission
	state.guides[guide.Id] = guide
	return submission.Id, guide.Id
}

func newTestOrchestrator(state *storeState, engine Engine) *Orchestrator {
	tracker := progress.NewMemoryTracker(memory.NewProgressRepository(time.Hour))
	return NewOrchestrator(&fakeFactory{state: state}, engine, tracker, nopLogger{})
}

func TestRunEndToEndWithSelectionLimit(t *testing.T) {
	state := newStoreState()
	submissionId, guideId := seedContent(state, 3, intPtr(2))
	orch := newTestOrchestrator(state, &scriptedEngine{scores: []float64{60, 95, 80}})

	result, err := orch.Run(context.Background(), submissionId, guideId, uuid.New(), nil)
	require.NoError(t, err)

	session := result.Session
	assert.Equal(t, entity.StatusCompleted, session.Status)
	assert.Equal(t, 3, session.QuestionsMapped)
	assert.Equal(t, 3, session.QuestionsGraded)
	assert.Equal(t, 2, session.QuestionsSelected)
	assert.Equal(t, 2, result.MappingsSaved)
	assert.Equal(t, 2, result.ResultsSaved)

	require.Len(t, state.results, 2)
	assert.Equal(t, 95.0, state.results[0].Score)
	assert.Equal(t, 80.0, state.results[1].Score)

	for _, stage := range entity.StageNames {
		assert.Equal(t, entity.StepCompleted, session.Steps[stage], stage)
	}
}

func TestRunIdempotentForCompletedSession(t *testing.T) {
	state := newStoreState()
	submissionId, guideId := seedContent(state, 2, nil)
	orch := newTestOrchestrator(state, &scriptedEngine{scores: []float64{70, 80}})
	ctx := context.Background()
	userId := uuid.New()

	first, err := orch.Run(ctx, submissionId, guideId, userId, nil)
	require.NoError(t, err)

	second, err := orch.Run(ctx, submissionId, guideId, userId, nil)
	require.NoError(t, err)
	assert.True(t, second.Reused)
	assert.Equal(t, first.Session.Id, second.Session.Id)
	assert.Len(t, state.sessions, 1)
}

func TestRunConcurrentInvocationsYieldOneSession(t *testing.T) {
	state := newStoreState()
	submissionId, guideId := seedContent(state, 2, nil)
	orch := newTestOrchestrator(state, &scriptedEngine{scores: []float64{70, 80}})
	userId := uuid.New()

	const runs = 8
	results := make([]*Result, runs)
	errs := make([]error, runs)
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = orch.Run(context.Background(), submissionId, guideId, userId, nil)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	assert.Len(t, state.sessions, 1)
	sessionId := results[0].Session.Id
	for _, res := range results {
		assert.Equal(t, sessionId, res.Session.Id)
		assert.Equal(t, entity.StatusCompleted, res.Session.Status)
	}
}

func TestRunFailsOnMissingSubmissionText(t *testing.T) {
	state := newStoreState()
	submissionId, guideId := seedContent(state, 2, nil)
	state.submissions[submissionId].Text = ""
	orch := newTestOrchestrator(state, &scriptedEngine{})

	result, err := orch.Run(context.Background(), submissionId, guideId, uuid.New(), nil)
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, entity.StatusFailed, result.Session.Status)
	assert.Equal(t, entity.StepFailed, result.Session.Steps["text_retrieval"])
	assert.NotEmpty(t, result.Session.ErrorMessage)
}

func TestRunRollsBackOnSaveFailure(t *testing.T) {
	state := newStoreState()
	submissionId, guideId := seedContent(state, 2, nil)
	state.failSave = true
	orch := newTestOrchestrator(state, &scriptedEngine{scores: []float64{70, 80}})

	result, err := orch.Run(context.Background(), submissionId, guideId, uuid.New(), nil)
	require.Error(t, err)
	assert.Equal(t, entity.StatusFailed, result.Session.Status)
	assert.Equal(t, entity.StepFailed, result.Session.Steps["saving"])
	assert.GreaterOrEqual(t, state.rollbacks, 1)
	assert.Empty(t, state.results)
}

func TestRunReprocessesFailedSession(t *testing.T) {
	state := newStoreState()
	submissionId, guideId := seedContent(state, 2, nil)
	state.failSave = true
	orch := newTestOrchestrator(state, &scriptedEngine{scores: []float64{70, 80}})
	ctx := context.Background()
	userId := uuid.New()

	first, err := orch.Run(ctx, submissionId, guideId, userId, nil)
	require.Error(t, err)

	state.mu.Lock()
	state.failSave = false
	state.mu.Unlock()

	second, err := orch.Run(ctx, submissionId, guideId, userId, nil)
	require.NoError(t, err)
	assert.False(t, second.Reused)
	assert.Equal(t, first.Session.Id, second.Session.Id)
	assert.Equal(t, entity.StatusCompleted, second.Session.Status)
}
