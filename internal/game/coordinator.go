// internal/game/coordinator.go
package game

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/ciziko/internal/cache"
	"github.com/jason-s-yu/ciziko/internal/models"
	"github.com/sirupsen/logrus"
)

// WordPicker hands out candidate words for a turn. It returns count words not present in
// used and adds them to used.
type WordPicker interface {
	PickOptions(used map[string]struct{}, count int) []string
}

// ActionPublisher receives match history records. Publishing happens off the room lock.
type ActionPublisher interface {
	PublishMatchAction(ctx context.Context, rec cache.MatchActionRecord) error
}

// Coordinator applies player intents and timer firings to rooms. Invalid intents (wrong
// phase, wrong role, unknown room or player, out-of-range index) are ignored without a
// reply so they cannot be used to infer hidden state.
type Coordinator struct {
	Registry *Registry
	Notifier Notifier
	Words    WordPicker
	Logger   *logrus.Logger

	// Scheduler defaults to the wall clock.
	Scheduler Scheduler

	// Publisher is optional; when nil no match history is recorded.
	Publisher ActionPublisher
	// HistoryBuffer caps records waiting to be published. Defaults to DefaultHistoryBuffer.
	HistoryBuffer int

	historyMu     sync.Mutex
	history       *historyQueue
	historyClosed bool
}

// NewCoordinator wires a coordinator with the wall clock and no history publisher.
func NewCoordinator(reg *Registry, notifier Notifier, words WordPicker, logger *logrus.Logger) *Coordinator {
	return &Coordinator{
		Registry:  reg,
		Notifier:  notifier,
		Words:     words,
		Logger:    logger,
		Scheduler: WallClock(),
	}
}

func (c *Coordinator) log(r *Room) *logrus.Entry {
	return c.Logger.WithField("room", r.Code)
}

// withRoom runs fn on a live room under its lock. Returns false if the room is unknown or
// has already been disposed.
func (c *Coordinator) withRoom(code string, fn func(r *Room)) bool {
	r, ok := c.Registry.Get(code)
	if !ok {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Disposed() {
		return false
	}
	fn(r)
	return true
}

// Join inserts (or reinserts) a player with no team and not ready, creating the room on
// first use, and broadcasts the room view.
func (c *Coordinator) Join(code string, playerID uuid.UUID, name string) {
	for {
		r := c.Registry.GetOrCreate(code)
		r.mu.Lock()
		if r.Disposed() {
			// Lost a race with the last player leaving; the registry hands out a fresh room next.
			r.mu.Unlock()
			continue
		}
		r.addPlayerUnsafe(playerID, name)
		c.log(r).WithFields(logrus.Fields{"player": playerID, "name": name}).Info("player joined")
		c.recheckCountdownUnsafe(r)
		c.broadcastSnapshotUnsafe(r)
		r.mu.Unlock()
		return
	}
}

// SwitchTeam moves a player to a team and clears their ready flag.
func (c *Coordinator) SwitchTeam(code string, playerID uuid.UUID, team models.Team) {
	if !team.Valid() {
		return
	}
	c.withRoom(code, func(r *Room) {
		p, ok := r.Players[playerID]
		if !ok {
			return
		}
		c.reopenLobbyUnsafe(r)
		p.Team = team
		p.Ready = false
		c.recheckCountdownUnsafe(r)
		c.broadcastSnapshotUnsafe(r)
	})
}

// ToggleReady flips a teamed player's ready flag and starts the countdown once every player
// is ready on two equal, non-empty teams.
func (c *Coordinator) ToggleReady(code string, playerID uuid.UUID) {
	c.withRoom(code, func(r *Room) {
		p, ok := r.Players[playerID]
		if !ok || !p.Team.Valid() {
			return
		}
		c.reopenLobbyUnsafe(r)
		p.Ready = !p.Ready
		c.broadcastSnapshotUnsafe(r)

		if canStart, _ := r.startCheckUnsafe(); canStart && r.countdown == nil {
			c.startCountdownUnsafe(r)
			return
		}
		c.recheckCountdownUnsafe(r)
	})
}

// ForceUnready clears a player's ready flag regardless of phase. Used for idle players.
func (c *Coordinator) ForceUnready(code string, playerID uuid.UUID) {
	c.withRoom(code, func(r *Room) {
		p, ok := r.Players[playerID]
		if !ok {
			return
		}
		p.Ready = false
		c.log(r).WithField("player", playerID).Info("player forced unready")
		c.recheckCountdownUnsafe(r)
		c.broadcastSnapshotUnsafe(r)
	})
}

// CastWordVote records an opposing-team vote during the word pick.
func (c *Coordinator) CastWordVote(code string, playerID uuid.UUID, optionIndex int) {
	c.withRoom(code, func(r *Room) {
		p, ok := r.Players[playerID]
		if !ok || r.Current == nil {
			return
		}
		if !r.Current.CastVote(p, optionIndex) {
			c.log(r).WithField("player", playerID).Debug("word vote ignored")
		}
	})
}

// SubmitGuess records a guess from the drawer's teammates and settles the turn as soon as
// every eligible guesser has answered.
func (c *Coordinator) SubmitGuess(code string, playerID uuid.UUID, optionIndex int) {
	c.withRoom(code, func(r *Room) {
		p, ok := r.Players[playerID]
		if !ok || r.Current == nil {
			return
		}
		t := r.Current
		if !t.SubmitGuess(p, optionIndex) {
			c.log(r).WithField("player", playerID).Debug("guess ignored")
			return
		}
		if t.AllGuessed(r.Players) {
			c.finishGuessingUnsafe(r, t)
		}
	})
}

// RelayStroke forwards a drawing-surface event from the drawer to everyone else in the room.
// The payload is never inspected.
func (c *Coordinator) RelayStroke(code string, playerID uuid.UUID, kind EventType, payload StrokePayload) {
	if !IsStrokeEvent(kind) {
		return
	}
	c.withRoom(code, func(r *Room) {
		t := r.Current
		if t == nil || t.Phase != PhaseDrawing || t.DrawerID != playerID {
			return
		}
		ev := Event{Type: kind}
		if len(payload) > 0 {
			ev.Payload = payload
		}
		for id := range r.Players {
			if id != playerID {
				c.Notifier.SendToPlayer(id, ev)
			}
		}
	})
}

// Leave removes a player. The last player leaving cancels every pending task of the room
// and disposes it. A drawer leaving mid-turn does not cut the turn short; the turn runs to
// its settlement and the next turn-start check skips any later entries of theirs.
func (c *Coordinator) Leave(code string, playerID uuid.UUID) {
	r, ok := c.Registry.Get(code)
	if !ok {
		return
	}

	r.mu.Lock()
	if r.Disposed() || !r.removePlayerUnsafe(playerID) {
		r.mu.Unlock()
		return
	}
	c.log(r).WithField("player", playerID).Info("player left")

	if len(r.Players) > 0 {
		c.recheckCountdownUnsafe(r)
		c.broadcastSnapshotUnsafe(r)
		r.mu.Unlock()
		return
	}

	r.cancelAllUnsafe()
	r.disposed.Store(true)
	r.mu.Unlock()

	c.Registry.Remove(code, r)
	c.Logger.WithField("room", code).Info("room empty, disposed")
}

// Snapshot returns the current view of a room.
func (c *Coordinator) Snapshot(code string) (Snapshot, bool) {
	var snap Snapshot
	ok := c.withRoom(code, func(r *Room) {
		snap = r.snapshotUnsafe()
	})
	return snap, ok
}

// RoomSummary is a short public description of a live room.
type RoomSummary struct {
	Code        string            `json:"code"`
	Status      models.RoomStatus `json:"status"`
	PlayerCount int               `json:"playerCount"`
}

// Rooms lists the live rooms.
func (c *Coordinator) Rooms() []RoomSummary {
	rooms := c.Registry.Rooms()
	out := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		r.mu.Lock()
		if !r.Disposed() {
			out = append(out, RoomSummary{Code: r.Code, Status: r.Status, PlayerCount: len(r.Players)})
		}
		r.mu.Unlock()
	}
	return out
}

// reopenLobbyUnsafe moves a finished room back to the lobby so a new match can be readied.
func (c *Coordinator) reopenLobbyUnsafe(r *Room) {
	if r.Status == models.StatusOver {
		r.Status = models.StatusLobby
	}
}

func (c *Coordinator) broadcastUnsafe(r *Room, ev Event) {
	for id := range r.Players {
		c.Notifier.SendToPlayer(id, ev)
	}
}

func (c *Coordinator) sendToTeamUnsafe(r *Room, team models.Team, except uuid.UUID, ev Event) {
	for id, p := range r.Players {
		if p.Team == team && id != except {
			c.Notifier.SendToPlayer(id, ev)
		}
	}
}

func (c *Coordinator) broadcastSnapshotUnsafe(r *Room) {
	c.broadcastUnsafe(r, Event{Type: EventRoomSnapshot, Payload: r.snapshotUnsafe()})
}
