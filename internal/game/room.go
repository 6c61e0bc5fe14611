// internal/game/room.go
package game

import (
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/ciziko/internal/models"
)

// Reasons shown to players when a match cannot start yet.
const (
	ReasonTeamsUnequal = "teams must be equal and non-empty"
	ReasonNotReady     = "everyone must pick a team and be ready"
)

// countdown is a running pre-match countdown.
type countdown struct {
	remaining int
	task      Task
}

// Room is one isolated game session. All fields are guarded by mu; every coordinator
// operation and every scheduled callback holds mu for the whole of its mutation.
type Room struct {
	Code      string
	Players   map[uuid.UUID]*models.Player
	Status    models.RoomStatus
	Scores    models.Scores
	UsedWords map[string]struct{}
	Plan      []PlanEntry
	TurnIndex int
	Current   *Turn

	// MatchID identifies the running or last finished match for history records.
	MatchID uuid.UUID

	joinSeq     map[uuid.UUID]int
	nextSeq     int
	actionIndex int

	countdown  *countdown
	settleTask Task
	rng        *rand.Rand

	disposed atomic.Bool
	mu       sync.Mutex
}

// NewRoom creates an empty room in the lobby state.
func NewRoom(code string) *Room {
	return &Room{
		Code:      code,
		Players:   make(map[uuid.UUID]*models.Player),
		Status:    models.StatusLobby,
		UsedWords: make(map[string]struct{}),
		joinSeq:   make(map[uuid.UUID]int),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Disposed reports whether the room has been torn down after its last player left.
func (r *Room) Disposed() bool {
	return r.disposed.Load()
}

// addPlayerUnsafe inserts or reinserts a player with no team and not ready.
// A returning id keeps its original join position. Assumes lock is held.
func (r *Room) addPlayerUnsafe(id uuid.UUID, name string) {
	r.Players[id] = &models.Player{ID: id, Name: name}
	if _, ok := r.joinSeq[id]; !ok {
		r.joinSeq[id] = r.nextSeq
		r.nextSeq++
	}
}

// removePlayerUnsafe deletes a player. Returns false if the player was not in the room.
func (r *Room) removePlayerUnsafe(id uuid.UUID) bool {
	if _, ok := r.Players[id]; !ok {
		return false
	}
	delete(r.Players, id)
	delete(r.joinSeq, id)
	return true
}

// orderedPlayersUnsafe returns the players in join order.
func (r *Room) orderedPlayersUnsafe() []*models.Player {
	out := make([]*models.Player, 0, len(r.Players))
	for _, p := range r.Players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return r.joinSeq[out[i].ID] < r.joinSeq[out[j].ID]
	})
	return out
}

// teamUnsafe returns the players of a team in join order.
func (r *Room) teamUnsafe(team models.Team) []*models.Player {
	var out []*models.Player
	for _, p := range r.orderedPlayersUnsafe() {
		if p.Team == team {
			out = append(out, p)
		}
	}
	return out
}

// startCheckUnsafe evaluates the start predicate. The reason is empty when both teams are
// equal and everyone is ready; a team size mismatch is reported before readiness.
func (r *Room) startCheckUnsafe() (canStart bool, reason string) {
	a, b := len(r.teamUnsafe(models.TeamA)), len(r.teamUnsafe(models.TeamB))
	teamsEqual := a == b && a > 0

	allReady := len(r.Players) > 0
	for _, p := range r.Players {
		if !p.Ready || !p.Team.Valid() {
			allReady = false
			break
		}
	}

	switch {
	case !teamsEqual:
		reason = ReasonTeamsUnequal
	case !allReady:
		reason = ReasonNotReady
	}
	return r.Status == models.StatusLobby && teamsEqual && allReady, reason
}

// snapshotUnsafe builds the derived view of the room. Assumes lock is held.
func (r *Room) snapshotUnsafe() Snapshot {
	ordered := r.orderedPlayersUnsafe()
	snap := Snapshot{
		Code:       r.Code,
		Status:     r.Status,
		Players:    make([]models.Player, 0, len(ordered)),
		Teams:      TeamRoster{A: []models.Player{}, B: []models.Player{}},
		Scores:     r.Scores,
		TurnIndex:  r.TurnIndex,
		TotalTurns: len(r.Plan),
	}
	for _, p := range ordered {
		snap.Players = append(snap.Players, *p)
		switch p.Team {
		case models.TeamA:
			snap.Teams.A = append(snap.Teams.A, *p)
		case models.TeamB:
			snap.Teams.B = append(snap.Teams.B, *p)
		}
	}
	snap.CanStart, snap.Reason = r.startCheckUnsafe()
	return snap
}

// cancelAllUnsafe stops every pending task of the room: the active phase deadline, the
// settle pause and the countdown. Assumes lock is held.
func (r *Room) cancelAllUnsafe() {
	if r.Current != nil {
		stopTask(r.Current.task)
		r.Current.task = nil
	}
	stopTask(r.settleTask)
	r.settleTask = nil
	if r.countdown != nil {
		stopTask(r.countdown.task)
		r.countdown = nil
	}
}
