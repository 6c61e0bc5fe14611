// internal/game/events.go
package game

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jason-s-yu/ciziko/internal/models"
)

// EventType names an outbound notification.
type EventType string

// Outbound event types. Unless noted, an event goes to every player in the room.
const (
	EventRoomSnapshot       EventType = "room_snapshot"
	EventStartCountdown     EventType = "start_countdown"
	EventCountdownCancelled EventType = "countdown_cancelled"
	EventMatchStarted       EventType = "match_started"
	EventTurnSetup          EventType = "turn_setup"        // private to the drawer
	EventTurnSetupPublic    EventType = "turn_setup_public" // whole room
	EventWordOptions        EventType = "word_options"      // private to the opposing team
	EventSecretWord         EventType = "secret_word"       // private to the drawer
	EventDrawStart          EventType = "draw_start"        // whole room, never carries the word
	EventGuessPhase         EventType = "guess_phase"       // private to the drawer's teammates
	EventTurnResult         EventType = "turn_result"
	EventGameOver           EventType = "game_over"
	EventAfkWarning         EventType = "afk_warning"
)

// Drawing-surface events. The server only checks who sent them and relays the payload as is.
const (
	EventStrokeBegin EventType = "stroke_begin"
	EventStrokePoint EventType = "stroke_point"
	EventStrokeEnd   EventType = "stroke_end"
	EventBrushChange EventType = "brush_change"
	EventCanvasClear EventType = "canvas_clear"
	EventUndo        EventType = "undo"
)

// IsStrokeEvent reports whether t is one of the relayed drawing-surface events.
func IsStrokeEvent(t EventType) bool {
	switch t {
	case EventStrokeBegin, EventStrokePoint, EventStrokeEnd, EventBrushChange, EventCanvasClear, EventUndo:
		return true
	}
	return false
}

// Event is the envelope every outbound notification is sent in.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Notifier delivers an event to one player. Implementations must not block: events are
// emitted while the room lock is held.
type Notifier interface {
	SendToPlayer(playerID uuid.UUID, ev Event)
}

// TeamRoster lists the players of each team in join order.
type TeamRoster struct {
	A []models.Player `json:"A"`
	B []models.Player `json:"B"`
}

// Snapshot is the full derived view of a room sent after every mutation.
type Snapshot struct {
	Code       string            `json:"code"`
	Status     models.RoomStatus `json:"status"`
	Players    []models.Player   `json:"players"`
	Teams      TeamRoster        `json:"teams"`
	CanStart   bool              `json:"canStart"`
	Reason     string            `json:"reason,omitempty"`
	Scores     models.Scores     `json:"scores"`
	TurnIndex  int               `json:"turnIndex"`
	TotalTurns int               `json:"totalTurns"`
}

// CountdownPayload carries the seconds left before the match starts.
type CountdownPayload struct {
	T int `json:"t"`
}

// MatchStartedPayload announces a new match and how many turns its plan holds.
type MatchStartedPayload struct {
	StartedAt  int64 `json:"startedAt"`
	TotalTurns int   `json:"totalTurns"`
}

// TurnSetupPayload tells the drawer it is their turn.
type TurnSetupPayload struct {
	YouAreDrawer bool        `json:"youAreDrawer"`
	Team         models.Team `json:"team"`
	TurnIndex    int         `json:"turnIndex"`
}

// TurnSetupPublicPayload tells the room who draws next.
type TurnSetupPublicPayload struct {
	DrawerID  uuid.UUID   `json:"drawerId"`
	Team      models.Team `json:"team"`
	TurnIndex int         `json:"turnIndex"`
}

// WordOptionsPayload offers the opposing team the candidate words to vote on.
// Deadline is a unix timestamp in milliseconds, like every deadline below.
type WordOptionsPayload struct {
	Options   []string `json:"options"`
	Deadline  int64    `json:"deadline"`
	TurnIndex int      `json:"turnIndex"`
}

// SecretWordPayload reveals the voted word to the drawer.
type SecretWordPayload struct {
	Word     string   `json:"word"`
	Deadline int64    `json:"deadline"`
	Options  []string `json:"options"`
}

// DrawStartPayload opens the drawing phase for the room. It never carries the word.
type DrawStartPayload struct {
	DrawerID uuid.UUID   `json:"drawerId"`
	Team     models.Team `json:"team"`
	Options  []string    `json:"options"`
	Deadline int64       `json:"deadline"`
}

// GuessPhasePayload asks the drawer's teammates to pick the drawn word.
type GuessPhasePayload struct {
	Options  []string `json:"options"`
	Deadline int64    `json:"deadline"`
}

// TurnResultDetail summarizes how the drawing team did.
type TurnResultDetail struct {
	Correct  int         `json:"correct"`
	Wrong    int         `json:"wrong"`
	Team     models.Team `json:"team"`
	DrawerID uuid.UUID   `json:"drawerId"`
}

// TurnResultPayload reveals the word and the scores once a turn settles. Delta is zero
// for the team that did not draw.
type TurnResultPayload struct {
	CorrectIndex    int              `json:"correctIndex"`
	TeamScores      models.Scores    `json:"teamScores"`
	Delta           models.Scores    `json:"delta"`
	Detail          TurnResultDetail `json:"detail"`
	CorrectGuessers []string         `json:"correctGuessers"`
	WrongGuessers   []string         `json:"wrongGuessers"`
}

// GameOverPayload carries the final scores.
type GameOverPayload struct {
	Scores models.Scores `json:"scores"`
}

// AfkWarningPayload tells an idle player how long they have been silent and that
// they were marked not ready.
type AfkWarningPayload struct {
	IdleMs int64 `json:"idleMs"`
}

// StrokePayload is an opaque drawing-surface payload; it is forwarded without decoding.
type StrokePayload = json.RawMessage
