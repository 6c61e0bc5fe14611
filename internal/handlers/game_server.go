// internal/handlers/game_server.go
package handlers

import (
	"github.com/jason-s-yu/ciziko/internal/game"
	"github.com/jason-s-yu/ciziko/internal/idle"
	"golang.org/x/time/rate"
)

// Inbound frame limits per connection. Stroke points arrive in bursts while drawing.
const (
	DefaultMessageRate  = rate.Limit(60)
	DefaultMessageBurst = 120
)

// GameServer bundles what the HTTP and websocket handlers need.
type GameServer struct {
	Coordinator *game.Coordinator
	Hub         *Hub
	Idle        *idle.Monitor

	// OriginPatterns is passed to websocket.Accept.
	OriginPatterns []string
	MessageRate    rate.Limit
	MessageBurst   int
}

// NewGameServer wires a server around an existing coordinator and hub. The idle monitor
// may be nil.
func NewGameServer(coord *game.Coordinator, hub *Hub, monitor *idle.Monitor) *GameServer {
	return &GameServer{
		Coordinator:    coord,
		Hub:            hub,
		Idle:           monitor,
		OriginPatterns: []string{"*"},
		MessageRate:    DefaultMessageRate,
		MessageBurst:   DefaultMessageBurst,
	}
}

func (gs *GameServer) touch(c *Connection) {
	if gs.Idle != nil {
		gs.Idle.Touch(c.ID)
	}
}

func (gs *GameServer) forget(c *Connection) {
	if gs.Idle != nil {
		gs.Idle.Forget(c.ID)
	}
}
