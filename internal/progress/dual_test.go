package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type downTracker struct{}

var errStoreDown = errors.New("store unavailable")

func (downTracker) CreateSession(ctx context.Context, session *entity.ProgressSession) error {
	return errStoreDown
}
func (downTracker) UpdateProgress(ctx context.Context, update Update) error { return errStoreDown }
func (downTracker) CompleteSession(ctx context.Context, sessionId uuid.UUID, status entity.ProgressStatus, errMsg string) error {
	return errStoreDown
}
func (downTracker) GetProgress(ctx context.Context, sessionId uuid.UUID) (*entity.ProgressSession, error) {
	return nil, errStoreDown
}
func (downTracker) GetHistory(ctx context.Context, sessionId uuid.UUID) ([]*entity.ProgressUpdate, error) {
	return nil, errStoreDown
}
func (downTracker) RecoverSession(ctx context.Context, sessionId uuid.UUID, mode entity.RecoveryMode, step int) (*entity.ProgressSession, error) {
	return nil, errStoreDown
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func TestDualTrackerSurvivesPrimaryOutage(t *testing.T) {
	fallback := NewMemoryTracker(memory.NewProgressRepository(time.Hour))
	dual := NewDualTracker(downTracker{}, fallback, nopLogger{})
	ctx := context.Background()

	session := &entity.ProgressSession{TotalSteps: 4, TotalSubmissions: 1}
	require.NoError(t, dual.CreateSession(ctx, session))
	require.NoError(t, dual.UpdateProgress(ctx, Update{SessionId: session.Id, Step: 2, Operation: "grading answers"}))

	got, err := dual.GetProgress(ctx, session.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentStep)

	history, err := dual.GetHistory(ctx, session.Id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "grading answers", history[0].Operation)
}

func TestDualTrackerFailsWhenBothFail(t *testing.T) {
	dual := NewDualTracker(downTracker{}, downTracker{}, nopLogger{})
	err := dual.UpdateProgress(context.Background(), Update{SessionId: uuid.New(), Step: 1})
	assert.ErrorIs(t, err, errStoreDown)
}

func TestDualTrackerPrefersPrimaryWhenHealthy(t *testing.T) {
	primary := NewMemoryTracker(memory.NewProgressRepository(time.Hour))
	fallback := NewMemoryTracker(memory.NewProgressRepository(time.Hour))
	dual := NewDualTracker(primary, fallback, nopLogger{})
	ctx := context.Background()

	session := &entity.ProgressSession{TotalSteps: 4, TotalSubmissions: 1}
	require.NoError(t, dual.CreateSession(ctx, session))
	require.NoError(t, dual.UpdateProgress(ctx, Update{SessionId: session.Id, Step: 3}))

	got, err := primary.GetProgress(ctx, session.Id)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentStep)
}
