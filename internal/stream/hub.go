// Package stream pushes freshly composed parlays to websocket subscribers.
package stream

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/models"
)

// MessageType identifies the payload of a server message
type MessageType string

const (
	MessageTypeParlays   MessageType = "parlays"
	MessageTypeHeartbeat MessageType = "heartbeat"
)

// ServerMessage is the envelope sent to subscribers
type ServerMessage struct {
	Type      MessageType      `json:"type"`
	Parlays   []*models.Parlay `json:"parlays,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Hub maintains the set of active subscribers and fans composed parlays out
// to them. Slow subscribers are disconnected rather than allowed to stall
// the broadcast.
type Hub struct {
	clients    map[*Client]bool
	clientsMu  sync.RWMutex
	broadcast  chan []*models.Parlay
	register   chan *Client
	unregister chan *Client
	logger     *logrus.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []*models.Parlay, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run starts the hub's main loop and blocks until the context is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case parlays := <-h.broadcast:
			h.broadcastParlays(parlays)
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// NotifyParlays queues a parlay set for broadcast. Non-blocking: if the
// buffer is full the set is dropped, since the API remains the source of
// truth for missed pushes.
func (h *Hub) NotifyParlays(parlays []*models.Parlay) {
	select {
	case h.broadcast <- parlays:
	default:
		h.logger.Warn("Broadcast buffer full, dropping parlay set")
	}
}

// ClientCount returns the number of active subscribers
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true
	h.logger.WithFields(logrus.Fields{
		"client_id": c.ID,
		"total":     len(h.clients),
	}).Info("Stream client connected")
}

func (h *Hub) unregisterClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.logger.WithFields(logrus.Fields{
			"client_id": c.ID,
			"total":     len(h.clients),
		}).Info("Stream client disconnected")
	}
}

func (h *Hub) broadcastParlays(parlays []*models.Parlay) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	message := ServerMessage{
		Type:      MessageTypeParlays,
		Parlays:   parlays,
		Timestamp: time.Now().UTC(),
	}

	for _, c := range clients {
		if !c.matchesSports(parlays) {
			continue
		}
		if !c.trySend(message) {
			h.logger.WithField("client_id", c.ID).Warn("Client buffer full, disconnecting")
			go h.Unregister(c)
		}
	}
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}
