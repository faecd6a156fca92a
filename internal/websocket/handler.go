package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs registers the connection with the hub and runs its pumps.
// A client that redials with the session id of a previous connection
// resumes that session's registry record and room subscriptions.
// Blocks until the connection closes.
func ServeWs(hub *Hub, c *websocket.Conn, userId uuid.UUID, sessionId string) {
	if sessionId == "" {
		sessionId = uuid.NewString()
	}
	client := &Client{
		Hub:       hub,
		Conn:      c,
		SessionId: sessionId,
		UserId:    userId,
		Send:      make(chan []byte, 256),
		rooms:     make(map[string]struct{}),
	}
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}
