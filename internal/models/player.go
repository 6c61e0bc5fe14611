// internal/models/player.go
package models

import "github.com/google/uuid"

// Team is one of the two symmetric team labels. The zero value means "no team".
type Team string

const (
	TeamNone Team = ""
	TeamA    Team = "A"
	TeamB    Team = "B"
)

// Valid reports whether t is one of the two playable teams.
func (t Team) Valid() bool {
	return t == TeamA || t == TeamB
}

// Opponent returns the other team. TeamNone has no opponent.
func (t Team) Opponent() Team {
	switch t {
	case TeamA:
		return TeamB
	case TeamB:
		return TeamA
	default:
		return TeamNone
	}
}

// Player is a single connection's presence in a room.
// ID is scoped to the websocket connection and is never reused.
type Player struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Team  Team      `json:"team"`
	Ready bool      `json:"ready"`
}
