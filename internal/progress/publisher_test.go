package progress

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"exam-grading-be/internal/dto"
	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/repository/memory"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishingTrackerEmitsEvents(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messages, err := pubSub.Subscribe(ctx, TopicProgressUpdated)
	require.NoError(t, err)

	inner := NewMemoryTracker(memory.NewProgressRepository(time.Hour))
	tracker := NewPublishingTracker(inner, pubSub, nopLogger{})

	session := &entity.ProgressSession{TotalSteps: 4, TotalSubmissions: 1}
	require.NoError(t, tracker.CreateSession(ctx, session))
	require.NoError(t, tracker.UpdateProgress(ctx, Update{
		SessionId: session.Id,
		Step:      2,
		Operation: "grading answers",
	}))

	select {
	case msg := <-messages:
		msg.Ack()
		var event dto.ProgressEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, "progress_update", event.Type)
		assert.Equal(t, session.Id, event.SessionId)
		assert.Equal(t, 2, event.Step)
		assert.InDelta(t, 50.0, event.Percentage, 0.1)
	case <-time.After(2 * time.Second):
		t.Fatal("no progress event published")
	}
}
