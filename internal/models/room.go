// internal/models/room.go
package models

// RoomStatus is the lifecycle state of a room.
type RoomStatus string

const (
	StatusLobby   RoomStatus = "lobby"
	StatusRunning RoomStatus = "running"
	StatusOver    RoomStatus = "over"
)

// Scores holds one number per team. It is used both for cumulative scores and per-turn deltas.
type Scores struct {
	A int `json:"A"`
	B int `json:"B"`
}

// Add adds delta to the given team's score. Unknown teams are ignored.
func (s *Scores) Add(team Team, delta int) {
	switch team {
	case TeamA:
		s.A += delta
	case TeamB:
		s.B += delta
	}
}

// Of returns the score of a team.
func (s Scores) Of(team Team) int {
	switch team {
	case TeamA:
		return s.A
	case TeamB:
		return s.B
	}
	return 0
}

// DeltaFor builds a Scores value where only team has a non-zero entry.
func DeltaFor(team Team, delta int) Scores {
	var s Scores
	s.Add(team, delta)
	return s
}
