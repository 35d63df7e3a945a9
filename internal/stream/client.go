package stream

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 64
)

// Client represents a websocket subscriber. A client may restrict the push
// to a set of sports at connect time; an empty set receives everything.
type Client struct {
	ID     string
	conn   *websocket.Conn
	send   chan ServerMessage
	sports map[string]bool
	hub    *Hub
	logger *logrus.Logger
}

// NewClient creates a subscriber for the given connection
func NewClient(id string, conn *websocket.Conn, sports []string, hub *Hub, logger *logrus.Logger) *Client {
	sportSet := make(map[string]bool, len(sports))
	for _, s := range sports {
		sportSet[s] = true
	}

	return &Client{
		ID:     id,
		conn:   conn,
		send:   make(chan ServerMessage, sendBufferSize),
		sports: sportSet,
		hub:    hub,
		logger: logger,
	}
}

// ReadPump consumes control frames from the connection and tears the client
// down when the peer goes away
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.WithError(err).WithField("client_id", c.ID).Warn("Unexpected stream close")
			}
			return
		}
	}
}

// WritePump pushes queued messages and keepalive pings to the connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.WithError(err).WithField("client_id", c.ID).Warn("Stream write failed")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// trySend queues a message without blocking; false means the buffer is full
func (c *Client) trySend(msg ServerMessage) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// matchesSports reports whether any parlay in the set touches a sport the
// client subscribed to
func (c *Client) matchesSports(parlays []*models.Parlay) bool {
	if len(c.sports) == 0 {
		return true
	}
	for _, p := range parlays {
		for _, leg := range p.Legs {
			if c.sports[leg.Sport] {
				return true
			}
		}
	}
	return false
}
