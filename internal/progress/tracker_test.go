package progress

import (
	"context"
	"testing"
	"time"

	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryTracker() *MemoryTracker {
	return NewMemoryTracker(memory.NewProgressRepository(time.Hour))
}

func createSession(t *testing.T, tracker Tracker, totalSteps, totalSubmissions int) uuid.UUID {
	t.Helper()
	session := &entity.ProgressSession{
		TotalSteps:       totalSteps,
		TotalSubmissions: totalSubmissions,
		CurrentOperation: "grading",
	}
	require.NoError(t, tracker.CreateSession(context.Background(), session))
	return session.Id
}

func TestPercentageAcrossSubmissions(t *testing.T) {
	tracker := newMemoryTracker()
	ctx := context.Background()
	id := createSession(t, tracker, 10, 2)

	require.NoError(t, tracker.UpdateProgress(ctx, Update{SessionId: id, Step: 10, SubmissionIndex: 0}))
	session, err := tracker.GetProgress(ctx, id)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, session.Percentage(), 0.1)

	require.NoError(t, tracker.UpdateProgress(ctx, Update{SessionId: id, Step: 10, SubmissionIndex: 1}))
	session, err = tracker.GetProgress(ctx, id)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, session.Percentage(), 0.1)
}

func TestUpdateClampsStep(t *testing.T) {
	tracker := newMemoryTracker()
	ctx := context.Background()
	id := createSession(t, tracker, 4, 1)

	require.NoError(t, tracker.UpdateProgress(ctx, Update{SessionId: id, Step: 9}))
	session, err := tracker.GetProgress(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 4, session.CurrentStep)
}

func TestHistoryInOrder(t *testing.T) {
	tracker := newMemoryTracker()
	ctx := context.Background()
	id := createSession(t, tracker, 4, 1)

	operations := []string{"retrieving text", "mapping answers", "grading answers"}
	for i, op := range operations {
		require.NoError(t, tracker.UpdateProgress(ctx, Update{SessionId: id, Step: i + 1, Operation: op}))
	}

	history, err := tracker.GetHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, op := range operations {
		assert.Equal(t, op, history[i].Operation)
		assert.Equal(t, i+1, history[i].Step)
	}
}

func TestCompleteSessionSetsTerminalState(t *testing.T) {
	tracker := newMemoryTracker()
	ctx := context.Background()
	id := createSession(t, tracker, 4, 1)

	require.NoError(t, tracker.CompleteSession(ctx, id, entity.ProgressCompleted, ""))
	session, err := tracker.GetProgress(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.ProgressCompleted, session.Status)
	require.NotNil(t, session.EndedAt)
	assert.InDelta(t, 100.0, session.Percentage(), 0.1)
}

func TestRecoveryModes(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name     string
		mode     entity.RecoveryMode
		step     int
		wantStep int
	}{
		{"resume keeps step", entity.RecoveryResume, 0, 3},
		{"restart zeroes step", entity.RecoveryRestart, 0, 0},
		{"rollback returns to step", entity.RecoveryRollback, 1, 1},
		{"rollback clamps to current", entity.RecoveryRollback, 9, 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tracker := newMemoryTracker()
			id := createSession(t, tracker, 4, 1)
			require.NoError(t, tracker.UpdateProgress(ctx, Update{SessionId: id, Step: 3}))
			require.NoError(t, tracker.CompleteSession(ctx, id, entity.ProgressFailed, "boom"))

			session, err := tracker.RecoverSession(ctx, id, tc.mode, tc.step)
			require.NoError(t, err)
			assert.Equal(t, entity.ProgressActive, session.Status)
			assert.Nil(t, session.EndedAt)
			assert.Equal(t, tc.wantStep, session.CurrentStep)
		})
	}
}

func TestUpdateUnknownSessionFails(t *testing.T) {
	tracker := newMemoryTracker()
	err := tracker.UpdateProgress(context.Background(), Update{SessionId: uuid.New(), Step: 1})
	assert.Error(t, err)
}
