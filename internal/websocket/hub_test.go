package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"exam-grading-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hubLogger struct{}

func (hubLogger) Debug(module, message string, details map[string]interface{}) {}
func (hubLogger) Info(module, message string, details map[string]interface{})  {}
func (hubLogger) Warn(module, message string, details map[string]interface{})  {}
func (hubLogger) Error(module, message string, details map[string]interface{}) {}
func (hubLogger) Sync() error                                                  { return nil }

// The registration loop is driven directly so tests stay deterministic.

func newTestHub() *Hub {
	return NewHub(Config{}, nil, hubLogger{})
}

func connect(hub *Hub, userId uuid.UUID) *Client {
	return connectSession(hub, userId, uuid.NewString())
}

func connectSession(hub *Hub, userId uuid.UUID, sessionId string) *Client {
	client := &Client{
		Hub:       hub,
		SessionId: sessionId,
		UserId:    userId,
		Send:      make(chan []byte, 16),
		rooms:     make(map[string]struct{}),
	}
	hub.handleRegister(client)
	return client
}

func receive(t *testing.T, client *Client) envelope {
	t.Helper()
	select {
	case payload := <-client.Send:
		var env envelope
		require.NoError(t, json.Unmarshal(payload, &env))
		return env
	default:
		t.Fatal("no message pending")
		return envelope{}
	}
}

func assertNothingPending(t *testing.T, client *Client) {
	t.Helper()
	select {
	case extra := <-client.Send:
		t.Fatalf("unexpected delivery: %s", extra)
	default:
	}
}

func TestEmitToUserDeliversToLiveConnection(t *testing.T) {
	hub := newTestHub()
	userId := uuid.New()
	client := connect(hub, userId)

	hub.EmitToUser(userId, "grading_completed", map[string]interface{}{"score": 95}, entity.PriorityNormal)

	env := receive(t, client)
	assert.Equal(t, "grading_completed", env.Type)
	assert.Equal(t, "normal", env.Priority)
}

func TestOfflineMessageDeliveredOnceOnReconnect(t *testing.T) {
	hub := newTestHub()
	userId := uuid.New()

	hub.EmitToUser(userId, "progress_update", map[string]interface{}{"step": 2}, entity.PriorityNormal)
	require.Equal(t, 1, hub.QueuedFor(userRoom(userId)))

	client := connect(hub, userId)
	env := receive(t, client)
	assert.Equal(t, "progress_update", env.Type)

	// Exactly once: nothing further queued or pending.
	assert.Equal(t, 0, hub.QueuedFor(userRoom(userId)))
	assertNothingPending(t, client)
}

func TestOfflineMessagesFlushInOrder(t *testing.T) {
	hub := newTestHub()
	userId := uuid.New()

	for _, event := range []string{"step_one", "step_two", "step_three"} {
		hub.EmitToUser(userId, event, nil, entity.PriorityNormal)
	}

	client := connect(hub, userId)
	for _, want := range []string{"step_one", "step_two", "step_three"} {
		assert.Equal(t, want, receive(t, client).Type)
	}
}

func TestExpiredQueuedMessageNotDelivered(t *testing.T) {
	hub := newTestHub()
	userId := uuid.New()

	hub.EmitToUser(userId, "progress_update", nil, entity.PriorityNormal)

	// Shift the hub clock past the TTL before reconnecting.
	hub.now = func() time.Time { return time.Now().Add(hub.cfg.MessageTTL + time.Minute) }

	client := connect(hub, userId)
	assertNothingPending(t, client)
}

func TestHighPriorityQueuedDefensively(t *testing.T) {
	hub := newTestHub()
	userId := uuid.New()
	client := connect(hub, userId)

	hub.EmitToUser(userId, "session_failed", nil, entity.PriorityHigh)

	env := receive(t, client)
	assert.Equal(t, "session_failed", env.Type)
	assert.Equal(t, 1, hub.QueuedFor(userRoom(userId)))
}

func TestEmitToRoomReachesMembersOnly(t *testing.T) {
	hub := newTestHub()
	member := connect(hub, uuid.New())
	outsider := connect(hub, uuid.New())
	hub.JoinRoom(member, "grading:batch-1")

	hub.EmitToRoom("grading:batch-1", "batch_progress", nil, entity.PriorityNormal)

	env := receive(t, member)
	assert.Equal(t, "batch_progress", env.Type)
	assertNothingPending(t, outsider)
}

func TestConnectionRegistryLifecycle(t *testing.T) {
	hub := newTestHub()
	userId := uuid.New()
	client := connect(hub, userId)

	info, ok := hub.Connection(client.SessionId)
	require.True(t, ok)
	assert.Equal(t, ConnConnected, info.Status)
	assert.Contains(t, info.Rooms, userRoom(userId))

	hub.handleUnregister(client)

	info, ok = hub.Connection(client.SessionId)
	require.True(t, ok)
	assert.Equal(t, ConnDisconnected, info.Status)
}

func TestSweepRemovesRecordAfterGrace(t *testing.T) {
	hub := NewHub(Config{DisconnectGrace: 10 * time.Millisecond}, nil, hubLogger{})
	client := connect(hub, uuid.New())
	hub.handleUnregister(client)

	hub.now = func() time.Time { return time.Now().Add(time.Minute) }
	hub.sweepConnections()

	_, ok := hub.Connection(client.SessionId)
	assert.False(t, ok)
}

func TestSweepMarksSilentConnections(t *testing.T) {
	hub := newTestHub()
	client := connect(hub, uuid.New())

	hub.now = func() time.Time { return time.Now().Add(hub.cfg.PongTimeout + time.Minute) }
	hub.sweepConnections()

	info, ok := hub.Connection(client.SessionId)
	require.True(t, ok)
	assert.Equal(t, ConnReconnecting, info.Status)
}

func TestClientJoinFrameSubscribesToSessionRoom(t *testing.T) {
	hub := newTestHub()
	client := connect(hub, uuid.New())
	room := "session:" + uuid.NewString()

	// Emitted before anyone watches: queued for the room.
	hub.EmitToRoom(room, "progress_update", nil, entity.PriorityNormal)
	require.Equal(t, 1, hub.QueuedFor(room))

	client.handleControl([]byte(`{"action":"join","room":"` + room + `"}`))

	env := receive(t, client)
	assert.Equal(t, "progress_update", env.Type)
	assert.Equal(t, 0, hub.QueuedFor(room))

	hub.EmitToRoom(room, "progress_update", nil, entity.PriorityNormal)
	assert.Equal(t, "progress_update", receive(t, client).Type)

	client.handleControl([]byte(`{"action":"leave","room":"` + room + `"}`))
	hub.EmitToRoom(room, "progress_update", nil, entity.PriorityNormal)
	assertNothingPending(t, client)
}

func TestClientJoinFrameCannotTouchUserRooms(t *testing.T) {
	hub := newTestHub()
	other := uuid.New()
	client := connect(hub, uuid.New())

	hub.EmitToUser(other, "notification", nil, entity.PriorityNormal)
	require.Equal(t, 1, hub.QueuedFor(userRoom(other)))

	client.handleControl([]byte(`{"action":"join","room":"` + userRoom(other) + `"}`))

	assertNothingPending(t, client)
	assert.Equal(t, 1, hub.QueuedFor(userRoom(other)))
}

func TestReconnectResumesSessionRooms(t *testing.T) {
	hub := newTestHub()
	userId := uuid.New()
	room := "session:" + uuid.NewString()

	first := connect(hub, userId)
	hub.JoinRoom(first, room)
	hub.handleUnregister(first)

	hub.EmitToRoom(room, "progress_update", nil, entity.PriorityNormal)

	second := connectSession(hub, userId, first.SessionId)

	info, ok := hub.Connection(first.SessionId)
	require.True(t, ok)
	assert.Equal(t, ConnConnected, info.Status)

	env := receive(t, second)
	assert.Equal(t, "progress_update", env.Type)
	assert.Equal(t, 0, hub.QueuedFor(room))
}

func TestSessionIdClaimedByAnotherUserStartsFresh(t *testing.T) {
	hub := newTestHub()
	room := "session:" + uuid.NewString()

	owner := connect(hub, uuid.New())
	hub.JoinRoom(owner, room)
	hub.handleUnregister(owner)

	claimer := connectSession(hub, uuid.New(), owner.SessionId)

	info, ok := hub.Connection(owner.SessionId)
	require.True(t, ok)
	assert.Equal(t, claimer.UserId, info.UserId)
	assert.NotContains(t, info.Rooms, room)
	assertNothingPending(t, claimer)
}

func TestClusterDeliverySkipsSelfOriginatedEvents(t *testing.T) {
	hub := newTestHub()
	userId := uuid.New()
	client := connect(hub, userId)

	payload, err := hub.marshal("notification", nil, entity.PriorityNormal)
	require.NoError(t, err)

	hub.deliverCluster(clusterEvent{Origin: hub.instanceId, TargetUser: userId.String(), Message: payload})
	assertNothingPending(t, client)

	hub.deliverCluster(clusterEvent{Origin: uuid.NewString(), TargetUser: userId.String(), Message: payload})
	assert.Equal(t, "notification", receive(t, client).Type)
}
