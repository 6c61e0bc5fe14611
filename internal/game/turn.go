// internal/game/turn.go
package game

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/ciziko/internal/models"
)

// Phase is the stage a turn is in.
type Phase string

const (
	PhaseWordPick Phase = "word_pick"
	PhaseDrawing  Phase = "drawing"
	PhaseGuessing Phase = "guessing"
)

// Turn timing and scoring policy.
const (
	WordPickDuration = 10 * time.Second
	DrawingDuration  = 45 * time.Second
	GuessingDuration = 15 * time.Second
	SettlePause      = 1500 * time.Millisecond
	CountdownSeconds = 3
	CountdownTick    = time.Second

	PointsPerCorrect = 10
	PointsPerWrong   = -5
)

// unresolvedIndex marks a turn whose word has not been picked yet.
const unresolvedIndex = -1

// Turn is the state of the single active turn of a room. Player ids in here are lookups
// into the room's player map and may refer to players who have since left.
type Turn struct {
	Phase        Phase
	DrawerID     uuid.UUID
	Team         models.Team
	Options      []string
	CorrectIndex int

	// Votes holds opposing-team player -> option index, Guesses holds drawer's teammate ->
	// option index. Only players who actually responded have an entry.
	Votes   map[uuid.UUID]int
	Guesses map[uuid.UUID]int

	WordPickEndsAt time.Time
	DrawingEndsAt  time.Time
	GuessingEndsAt time.Time

	// task is the deadline of the current phase.
	task Task
}

func newTurn(drawer uuid.UUID, team models.Team, options []string) *Turn {
	return &Turn{
		Phase:        PhaseWordPick,
		DrawerID:     drawer,
		Team:         team,
		Options:      options,
		CorrectIndex: unresolvedIndex,
		Votes:        make(map[uuid.UUID]int),
		Guesses:      make(map[uuid.UUID]int),
	}
}

// CanVote reports whether p may vote on the word in the current phase.
func (t *Turn) CanVote(p *models.Player) bool {
	return t.Phase == PhaseWordPick && p.Team.Valid() && p.Team != t.Team
}

// CanGuess reports whether p may submit a guess in the current phase.
func (t *Turn) CanGuess(p *models.Player) bool {
	return t.Phase == PhaseGuessing && p.Team == t.Team && p.ID != t.DrawerID
}

// CastVote records (or replaces) p's vote. Returns false if the vote was rejected.
func (t *Turn) CastVote(p *models.Player, idx int) bool {
	if !t.CanVote(p) || !validOption(idx) {
		return false
	}
	t.Votes[p.ID] = idx
	return true
}

// SubmitGuess records (or replaces) p's guess. Returns false if the guess was rejected.
func (t *Turn) SubmitGuess(p *models.Player, idx int) bool {
	if !t.CanGuess(p) || !validOption(idx) {
		return false
	}
	t.Guesses[p.ID] = idx
	return true
}

// Word returns the resolved word, or "" while the word pick is still open.
func (t *Turn) Word() string {
	if t.CorrectIndex < 0 || t.CorrectIndex >= len(t.Options) {
		return ""
	}
	return t.Options[t.CorrectIndex]
}

// TurnOutcome is the scoring result of a settled turn.
type TurnOutcome struct {
	Correct         int
	Wrong           int
	Delta           int
	CorrectGuessers []string
	WrongGuessers   []string
}

// eligibleGuessers returns the drawer's teammates still present in players.
func (t *Turn) eligibleGuessers(players map[uuid.UUID]*models.Player) []*models.Player {
	out := make([]*models.Player, 0, len(players))
	for _, p := range players {
		if p.Team == t.Team && p.ID != t.DrawerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// AllGuessed reports whether every eligible guesser still in the room has answered.
// A team with no eligible guessers never completes early.
func (t *Turn) AllGuessed(players map[uuid.UUID]*models.Player) bool {
	eligible := t.eligibleGuessers(players)
	if len(eligible) == 0 {
		return false
	}
	for _, p := range eligible {
		if _, ok := t.Guesses[p.ID]; !ok {
			return false
		}
	}
	return true
}

// Settle scores the turn over the guessers who are still present and answered.
// Non-responders are neither correct nor wrong.
func (t *Turn) Settle(players map[uuid.UUID]*models.Player) TurnOutcome {
	out := TurnOutcome{
		CorrectGuessers: []string{},
		WrongGuessers:   []string{},
	}
	for _, p := range t.eligibleGuessers(players) {
		guess, ok := t.Guesses[p.ID]
		if !ok {
			continue
		}
		if guess == t.CorrectIndex {
			out.Correct++
			out.CorrectGuessers = append(out.CorrectGuessers, p.Name)
		} else {
			out.Wrong++
			out.WrongGuessers = append(out.WrongGuessers, p.Name)
		}
	}
	out.Delta = out.Correct*PointsPerCorrect + out.Wrong*PointsPerWrong
	return out
}
