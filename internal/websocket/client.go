package websocket

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 512
)

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	Hub *Hub

	Conn *websocket.Conn

	// SessionId identifies this connection in the hub registry.
	SessionId string

	UserId uuid.UUID

	// Buffered channel of outbound messages.
	Send chan []byte

	// rooms this client joined; mutated only under the hub lock.
	rooms map[string]struct{}
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Hub.cfg.PongTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.cfg.PongTimeout))
		c.Hub.touch(c.SessionId)
		return nil
	})

	for {
		_, payload, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Hub", "Unexpected close", map[string]interface{}{
					"session_id": c.SessionId,
					"error":      err.Error(),
				})
			}
			break
		}
		c.handleControl(payload)
	}
}

// control is the only inbound frame clients may send. It subscribes the
// connection to (or removes it from) a watchable room.
type control struct {
	Action string `json:"action"`
	Room   string `json:"room"`
}

// handleControl routes a client frame to the hub. Only session rooms
// are joinable; user rooms stay hub-managed so a client cannot drain
// another user's queued messages.
func (c *Client) handleControl(payload []byte) {
	var ctl control
	if err := json.Unmarshal(payload, &ctl); err != nil {
		c.Hub.logger.Warn("Hub", "Unparseable client frame", map[string]interface{}{
			"session_id": c.SessionId,
			"error":      err.Error(),
		})
		return
	}
	if !strings.HasPrefix(ctl.Room, "session:") {
		c.Hub.logger.Warn("Hub", "Client frame targets a restricted room", map[string]interface{}{
			"session_id": c.SessionId,
			"room":       ctl.Room,
		})
		return
	}

	switch ctl.Action {
	case "join":
		c.Hub.JoinRoom(c, ctl.Room)
	case "leave":
		c.Hub.LeaveRoom(c, ctl.Room)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.Hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket frame.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
