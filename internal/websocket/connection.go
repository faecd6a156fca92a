package websocket

import (
	"time"

	"github.com/google/uuid"
)

type ConnStatus string

const (
	ConnConnected ConnStatus = "connected"

	// ConnDisconnected marks a clean close, ConnReconnecting a socket
	// that stopped answering pings. Both keep the record through the
	// grace period so a redial with the same session id resumes it.
	ConnDisconnected ConnStatus = "disconnected"
	ConnReconnecting ConnStatus = "reconnecting"
)

// ConnectionInfo is the hub's record of one websocket session. It
// outlives the socket itself: a disconnect only marks the record, and
// the health sweep removes it after the grace period so a quick
// reconnect finds its queued messages.
type ConnectionInfo struct {
	SessionId      string
	UserId         uuid.UUID
	ConnectedAt    time.Time
	LastPing       time.Time
	Status         ConnStatus
	Rooms          map[string]struct{}
	DisconnectedAt time.Time
}

func newConnectionInfo(sessionId string, userId uuid.UUID, now time.Time) *ConnectionInfo {
	return &ConnectionInfo{
		SessionId:   sessionId,
		UserId:      userId,
		ConnectedAt: now,
		LastPing:    now,
		Status:      ConnConnected,
		Rooms:       make(map[string]struct{}),
	}
}
