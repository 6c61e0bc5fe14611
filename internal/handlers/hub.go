// internal/handlers/hub.go
package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/ciziko/internal/game"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// outboxSize is the number of events buffered per connection before new ones are dropped.
	outboxSize = 64
	// controlReserve is the outbox space relayed strokes may not use, so a slow client
	// still receives phase changes and results after a burst of drawing.
	controlReserve = 16
)

// Connection wraps a single client's websocket. The connection id doubles as the player id
// in whatever room the client joins.
type Connection struct {
	ID      uuid.UUID
	Cancel  context.CancelFunc
	OutChan chan game.Event

	limiter *rate.Limiter
	logger  *logrus.Logger

	mu   sync.Mutex
	room string
}

// NewConnection creates a connection with an empty outbox and an inbound frame limiter.
func NewConnection(id uuid.UUID, cancel context.CancelFunc, limit rate.Limit, burst int, logger *logrus.Logger) *Connection {
	return &Connection{
		ID:      id,
		Cancel:  cancel,
		OutChan: make(chan game.Event, outboxSize),
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Write pushes an event onto the outbox without blocking. Returns false if it was dropped.
// Relayed strokes are dropped first: they only go in while more than controlReserve slots
// are free.
func (c *Connection) Write(ev game.Event) bool {
	if game.IsStrokeEvent(ev.Type) && cap(c.OutChan)-len(c.OutChan) <= controlReserve {
		c.logger.Debugf("outbox near full for connection %s, dropped %s", c.ID, ev.Type)
		return false
	}
	select {
	case c.OutChan <- ev:
		return true
	default:
		c.logger.Warnf("outbox full for connection %s, dropped %s", c.ID, ev.Type)
		return false
	}
}

// WriteError sends an error event. Only used for frames the server could not understand.
func (c *Connection) WriteError(msg string) {
	c.Write(game.Event{Type: EventError, Payload: ErrorPayload{Message: msg}})
}

// Allow reports whether another inbound frame may be processed right now.
func (c *Connection) Allow() bool {
	return c.limiter.Allow()
}

// Room returns the code of the room the connection is in, or "".
func (c *Connection) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

// SetRoom records the connection's room and returns the previous one.
func (c *Connection) SetRoom(code string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.room
	c.room = code
	return prev
}

// Hub indexes live connections by id and delivers room events to them.
// It implements game.Notifier.
type Hub struct {
	mu     sync.RWMutex
	conns  map[uuid.UUID]*Connection
	logger *logrus.Logger
}

// NewHub returns an empty hub.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		conns:  make(map[uuid.UUID]*Connection),
		logger: logger,
	}
}

// Register makes a connection reachable by its id.
func (h *Hub) Register(c *Connection) {
	h.mu.Lock()
	h.conns[c.ID] = c
	h.mu.Unlock()
}

// Unregister drops a connection. Events sent to it afterwards are discarded.
func (h *Hub) Unregister(id uuid.UUID) {
	h.mu.Lock()
	delete(h.conns, id)
	h.mu.Unlock()
}

// Get looks up a live connection.
func (h *Hub) Get(id uuid.UUID) (*Connection, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[id]
	return c, ok
}

// Len returns the number of live connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// SendToPlayer queues ev for the connection backing playerID. Unknown ids are dropped;
// the player may have disconnected between the room mutation and delivery.
func (h *Hub) SendToPlayer(playerID uuid.UUID, ev game.Event) {
	c, ok := h.Get(playerID)
	if !ok {
		h.logger.Debugf("no connection for player %s, dropped %s", playerID, ev.Type)
		return
	}
	c.Write(ev)
}

// ResolveIdle maps an idle connection to the room and player it plays as.
func (h *Hub) ResolveIdle(connID uuid.UUID) (string, uuid.UUID, bool) {
	c, ok := h.Get(connID)
	if !ok {
		return "", uuid.Nil, false
	}
	code := c.Room()
	if code == "" {
		return "", uuid.Nil, false
	}
	return code, c.ID, true
}

// WarnIdle tells a connection it was flagged as idle.
func (h *Hub) WarnIdle(connID uuid.UUID, idleFor time.Duration) {
	h.SendToPlayer(connID, game.Event{
		Type:    game.EventAfkWarning,
		Payload: game.AfkWarningPayload{IdleMs: idleFor.Milliseconds()},
	})
}
