package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	PingInterval    time.Duration
	PongTimeout     time.Duration
	MessageTTL      time.Duration
	QueueSize       int
	DeliveryRetries int
	DisconnectGrace time.Duration
	SweepInterval   time.Duration
}

func (c *Config) defaults() {
	if c.PingInterval <= 0 {
		c.PingInterval = 25 * time.Second
	}
	if c.PongTimeout <= 0 {
		c.PongTimeout = 60 * time.Second
	}
	if c.MessageTTL <= 0 {
		c.MessageTTL = 5 * time.Minute
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 100
	}
	if c.DeliveryRetries <= 0 {
		c.DeliveryRetries = 3
	}
	if c.DisconnectGrace <= 0 {
		c.DisconnectGrace = 2 * time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 30 * time.Second
	}
}

// envelope is the wire format pushed to clients.
type envelope struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Priority  string      `json:"priority"`
	Timestamp time.Time   `json:"timestamp"`
}

// clusterEvent is the Redis fan-out payload between instances. Origin
// names the publishing instance so it can skip its own echo; local
// clients were already served by the originating emit.
type clusterEvent struct {
	Origin     string          `json:"origin"`
	TargetUser string          `json:"target_user,omitempty"`
	TargetRoom string          `json:"target_room,omitempty"`
	Message    json.RawMessage `json:"message"`
}

const clusterChannel = "cluster_events"

// Hub tracks live connections, room membership, and per-target offline
// queues. One hub per instance; Redis pub-sub fans deliveries out to
// the other instances.
type Hub struct {
	cfg Config

	// instanceId distinguishes this hub on the cluster channel.
	instanceId string

	// UserID -> connected clients (multi-device)
	clients map[uuid.UUID][]*Client

	// room name -> members
	rooms map[string]map[*Client]struct{}

	// websocket session id -> registry record
	connections map[string]*ConnectionInfo

	queues *queueSet

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	rdb    *redis.Client
	logger logger.ILogger

	now func() time.Time
}

func NewHub(cfg Config, rdb *redis.Client, log logger.ILogger) *Hub {
	cfg.defaults()
	return &Hub{
		cfg:         cfg,
		instanceId:  uuid.NewString(),
		clients:     make(map[uuid.UUID][]*Client),
		rooms:       make(map[string]map[*Client]struct{}),
		connections: make(map[string]*ConnectionInfo),
		queues:      newQueueSet(cfg.MessageTTL, cfg.QueueSize),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		rdb:         rdb,
		logger:      log,
		now:         time.Now,
	}
}

// Run owns the registration loop and the health sweep. Blocks until the
// context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	sweep := time.NewTicker(h.cfg.SweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case <-sweep.C:
			h.sweepConnections()
			h.queues.sweep(h.now())
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	now := h.now()

	h.mu.Lock()
	h.clients[client.UserId] = append(h.clients[client.UserId], client)

	var remembered []string
	info, known := h.connections[client.SessionId]
	if known && info.UserId == client.UserId {
		info.Status = ConnConnected
		info.LastPing = now
		for room := range info.Rooms {
			remembered = append(remembered, room)
		}
	} else {
		// A session id presented by a different user gets a fresh
		// record; nothing from the old session carries over.
		known = false
		info = newConnectionInfo(client.SessionId, client.UserId, now)
		h.connections[client.SessionId] = info
	}
	h.mu.Unlock()

	// A reconnect resumes the rooms the previous socket was watching.
	for _, room := range remembered {
		h.JoinRoom(client, room)
	}

	// Every connection listens on its user-scoped room.
	h.JoinRoom(client, userRoom(client.UserId))

	h.logger.Info("Hub", "Client registered", map[string]interface{}{
		"user_id":      client.UserId.String(),
		"session_id":   client.SessionId,
		"reconnecting": known,
	})

	h.flushTarget(client, userRoom(client.UserId))
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	if clients, ok := h.clients[client.UserId]; ok {
		for i, c := range clients {
			if c == client {
				h.clients[client.UserId] = append(clients[:i], clients[i+1:]...)
				close(client.Send)
				break
			}
		}
		if len(h.clients[client.UserId]) == 0 {
			delete(h.clients, client.UserId)
		}
	}
	for room := range client.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	if info, ok := h.connections[client.SessionId]; ok {
		info.Status = ConnDisconnected
		info.DisconnectedAt = h.now()
	}
	h.mu.Unlock()

	h.logger.Info("Hub", "Client unregistered", map[string]interface{}{
		"user_id":    client.UserId.String(),
		"session_id": client.SessionId,
	})
}

func (h *Hub) JoinRoom(client *Client, room string) {
	h.mu.Lock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[client] = struct{}{}
	client.rooms[room] = struct{}{}
	if info, found := h.connections[client.SessionId]; found {
		info.Rooms[room] = struct{}{}
	}
	h.mu.Unlock()

	h.flushTarget(client, room)
}

func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(client.rooms, room)
	if info, found := h.connections[client.SessionId]; found {
		delete(info.Rooms, room)
	}
}

// EmitToUser pushes to every live connection of the user and queues for
// later delivery when none are connected.
func (h *Hub) EmitToUser(userId uuid.UUID, event string, data interface{}, priority entity.NotificationPriority) {
	payload, err := h.marshal(event, data, priority)
	if err != nil {
		h.logger.Error("Hub", "Failed to marshal outbound message", map[string]interface{}{
			"event": event,
			"error": err.Error(),
		})
		return
	}

	h.mu.RLock()
	clients := append([]*Client(nil), h.clients[userId]...)
	h.mu.RUnlock()

	delivered := 0
	for _, client := range clients {
		if h.deliver(client, payload) {
			delivered++
		}
	}

	if delivered == 0 || priorityAtLeastHigh(priority) {
		// HIGH and CRITICAL messages are queued even after a
		// successful push; a client that disconnects mid-flight
		// re-receives them on reconnect.
		h.queues.enqueue(userRoom(userId), event, payload, priority, h.now())
	}

	h.publishCluster(clusterEvent{TargetUser: userId.String(), Message: payload})
}

// EmitToRoom pushes to every member of the room, queuing for the room
// when it has no members.
func (h *Hub) EmitToRoom(room, event string, data interface{}, priority entity.NotificationPriority) {
	payload, err := h.marshal(event, data, priority)
	if err != nil {
		h.logger.Error("Hub", "Failed to marshal outbound message", map[string]interface{}{
			"event": event,
			"error": err.Error(),
		})
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[room]))
	for client := range h.rooms[room] {
		members = append(members, client)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, client := range members {
		if h.deliver(client, payload) {
			delivered++
		}
	}

	if delivered == 0 || priorityAtLeastHigh(priority) {
		h.queues.enqueue(room, event, payload, priority, h.now())
	}

	h.publishCluster(clusterEvent{TargetRoom: room, Message: payload})
}

// QueuedFor reports how many messages wait for a target. Used by health
// endpoints and tests.
func (h *Hub) QueuedFor(target string) int {
	return h.queues.len(target)
}

// Connection returns a copy of the registry record for a session.
func (h *Hub) Connection(sessionId string) (ConnectionInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	info, ok := h.connections[sessionId]
	if !ok {
		return ConnectionInfo{}, false
	}
	copied := *info
	return copied, true
}

func (h *Hub) deliver(client *Client, payload []byte) bool {
	select {
	case client.Send <- payload:
		return true
	default:
		h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{
			"user_id":    client.UserId.String(),
			"session_id": client.SessionId,
		})
		go func() { h.unregister <- client }()
		return false
	}
}

// flushTarget delivers queued messages for a target to one client, in
// enqueue order, retrying each a bounded number of times.
func (h *Hub) flushTarget(client *Client, target string) {
	queued := h.queues.drain(target, h.now())
	for _, msg := range queued {
		if h.deliver(client, msg.Payload) {
			continue
		}
		msg.Retries++
		if msg.Retries < h.cfg.DeliveryRetries {
			h.queues.requeue(msg)
		} else {
			h.logger.Warn("Hub", "Dropping queued message after repeated delivery failures", map[string]interface{}{
				"target":  target,
				"event":   msg.Event,
				"retries": msg.Retries,
			})
		}
	}
	if len(queued) > 0 {
		h.logger.Info("Hub", "Flushed queued messages", map[string]interface{}{
			"target": target,
			"count":  len(queued),
		})
	}
}

// touch records a pong from the client.
func (h *Hub) touch(sessionId string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if info, ok := h.connections[sessionId]; ok {
		info.LastPing = h.now()
		info.Status = ConnConnected
	}
}

// sweepConnections marks silent connections disconnected and removes
// records whose grace period has passed.
func (h *Hub) sweepConnections() {
	now := h.now()
	h.mu.Lock()
	defer h.mu.Unlock()

	for sessionId, info := range h.connections {
		switch info.Status {
		case ConnConnected:
			if now.Sub(info.LastPing) > h.cfg.PongTimeout {
				// The socket may be half-dead without a close frame;
				// the client keeps the grace period to redial.
				info.Status = ConnReconnecting
				info.DisconnectedAt = now
				h.logger.Warn("Hub", "Connection went silent", map[string]interface{}{
					"session_id": sessionId,
					"last_ping":  info.LastPing,
				})
			}
		case ConnDisconnected, ConnReconnecting:
			if now.Sub(info.DisconnectedAt) > h.cfg.DisconnectGrace {
				delete(h.connections, sessionId)
			}
		}
	}
}

func (h *Hub) marshal(event string, data interface{}, priority entity.NotificationPriority) ([]byte, error) {
	return json.Marshal(envelope{
		Type:      event,
		Data:      data,
		Priority:  string(priority),
		Timestamp: h.now(),
	})
}

func (h *Hub) publishCluster(event clusterEvent) {
	if h.rdb == nil {
		return
	}
	event.Origin = h.instanceId
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.rdb.Publish(context.Background(), clusterChannel, payload)
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event clusterEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.logger.Warn("Hub", "Unparseable cluster event", map[string]interface{}{
					"error": err.Error(),
				})
				continue
			}
			h.deliverCluster(event)
		}
	}
}

// deliverCluster pushes a fan-out message to local targets only; it
// never re-queues or re-publishes, otherwise instances would loop.
// Self-originated events are dropped or every local client would see
// them twice.
func (h *Hub) deliverCluster(event clusterEvent) {
	if event.Origin == h.instanceId {
		return
	}

	if event.TargetRoom != "" {
		h.mu.RLock()
		members := make([]*Client, 0, len(h.rooms[event.TargetRoom]))
		for client := range h.rooms[event.TargetRoom] {
			members = append(members, client)
		}
		h.mu.RUnlock()
		for _, client := range members {
			h.deliver(client, event.Message)
		}
		return
	}

	userId, err := uuid.Parse(event.TargetUser)
	if err != nil {
		return
	}
	h.mu.RLock()
	clients := append([]*Client(nil), h.clients[userId]...)
	h.mu.RUnlock()
	for _, client := range clients {
		h.deliver(client, event.Message)
	}
}

func userRoom(userId uuid.UUID) string {
	return "user:" + userId.String()
}

func priorityAtLeastHigh(p entity.NotificationPriority) bool {
	return p == entity.PriorityHigh || p == entity.PriorityCritical
}
