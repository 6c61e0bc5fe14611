// internal/game/turnflow.go
package game

import (
	"time"

	"github.com/jason-s-yu/ciziko/internal/cache"
	"github.com/jason-s-yu/ciziko/internal/models"
)

// schedulePhaseUnsafe replaces the turn's deadline. The callback re-checks under the lock
// that t is still the room's turn and still in phase, so a superseded deadline is inert
// even if Stop lost the race with the timer.
func (c *Coordinator) schedulePhaseUnsafe(r *Room, t *Turn, phase Phase, d time.Duration, next func(*Room, *Turn)) {
	stopTask(t.task)
	t.task = c.Scheduler.AfterFunc(d, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.Disposed() || r.Current != t || t.Phase != phase {
			return
		}
		next(r, t)
	})
}

// startNextTurnUnsafe starts the turn at TurnIndex, skipping plan entries whose drawer has
// left or changed team, and ends the match when the plan is exhausted. Assumes lock is held.
func (c *Coordinator) startNextTurnUnsafe(r *Room) {
	r.Current = nil

	var drawer *models.Player
	var entry PlanEntry
	for remaining := len(r.Plan) - r.TurnIndex; remaining > 0; remaining-- {
		entry = r.Plan[r.TurnIndex]
		if p, ok := r.Players[entry.PlayerID]; ok && p.Team == entry.Team {
			drawer = p
			break
		}
		c.log(r).WithField("player", entry.PlayerID).Infof("skipping turn %d, drawer gone", r.TurnIndex)
		c.logActionUnsafe(r, cache.ActionTurnSkipped, map[string]interface{}{
			"turnIndex": r.TurnIndex,
			"drawerId":  entry.PlayerID.String(),
		})
		r.TurnIndex++
	}

	if drawer == nil {
		c.endMatchUnsafe(r)
		return
	}

	// Options are marked used at once so no later turn of this match offers them again.
	t := newTurn(drawer.ID, entry.Team, c.Words.PickOptions(r.UsedWords, OptionCount))
	r.Current = t

	now := c.Scheduler.Now()
	t.WordPickEndsAt = now.Add(WordPickDuration)

	c.sendToTeamUnsafe(r, entry.Team.Opponent(), drawer.ID, Event{Type: EventWordOptions, Payload: WordOptionsPayload{
		Options:   t.Options,
		Deadline:  t.WordPickEndsAt.UnixMilli(),
		TurnIndex: r.TurnIndex,
	}})
	c.Notifier.SendToPlayer(drawer.ID, Event{Type: EventTurnSetup, Payload: TurnSetupPayload{
		YouAreDrawer: true,
		Team:         entry.Team,
		TurnIndex:    r.TurnIndex,
	}})
	c.broadcastUnsafe(r, Event{Type: EventTurnSetupPublic, Payload: TurnSetupPublicPayload{
		DrawerID:  drawer.ID,
		Team:      entry.Team,
		TurnIndex: r.TurnIndex,
	}})

	c.log(r).WithField("drawer", drawer.ID).Infof("turn %d started", r.TurnIndex)
	// The word pick always runs its full window so voters can change their minds.
	c.schedulePhaseUnsafe(r, t, PhaseWordPick, WordPickDuration, c.finishWordPickUnsafe)
}

// finishWordPickUnsafe resolves the vote and opens the drawing phase.
func (c *Coordinator) finishWordPickUnsafe(r *Room, t *Turn) {
	t.CorrectIndex = ResolveVotes(t.Votes, r.rng)
	word := t.Word()
	if word != "" {
		r.UsedWords[word] = struct{}{}
	}

	t.Phase = PhaseDrawing
	t.DrawingEndsAt = c.Scheduler.Now().Add(DrawingDuration)
	deadline := t.DrawingEndsAt.UnixMilli()

	c.Notifier.SendToPlayer(t.DrawerID, Event{Type: EventSecretWord, Payload: SecretWordPayload{
		Word:     word,
		Deadline: deadline,
		Options:  t.Options,
	}})
	c.broadcastUnsafe(r, Event{Type: EventDrawStart, Payload: DrawStartPayload{
		DrawerID: t.DrawerID,
		Team:     t.Team,
		Options:  t.Options,
		Deadline: deadline,
	}})

	c.log(r).Debugf("word pick resolved to option %d", t.CorrectIndex)
	c.schedulePhaseUnsafe(r, t, PhaseDrawing, DrawingDuration, c.startGuessingUnsafe)
}

// startGuessingUnsafe opens the guessing phase for the drawer's teammates.
func (c *Coordinator) startGuessingUnsafe(r *Room, t *Turn) {
	t.Phase = PhaseGuessing
	t.GuessingEndsAt = c.Scheduler.Now().Add(GuessingDuration)

	c.sendToTeamUnsafe(r, t.Team, t.DrawerID, Event{Type: EventGuessPhase, Payload: GuessPhasePayload{
		Options:  t.Options,
		Deadline: t.GuessingEndsAt.UnixMilli(),
	}})
	c.schedulePhaseUnsafe(r, t, PhaseGuessing, GuessingDuration, c.finishGuessingUnsafe)
}

// finishGuessingUnsafe scores the turn, publishes the result and schedules the next turn
// after the settle pause. Reached either by the deadline or by every guesser answering.
func (c *Coordinator) finishGuessingUnsafe(r *Room, t *Turn) {
	if r.Current != t || t.Phase != PhaseGuessing {
		return
	}
	stopTask(t.task)
	t.task = nil

	// Guessers who left are not counted either way.
	outcome := t.Settle(r.Players)
	r.Scores.Add(t.Team, outcome.Delta)
	delta := models.DeltaFor(t.Team, outcome.Delta)

	c.broadcastUnsafe(r, Event{Type: EventTurnResult, Payload: TurnResultPayload{
		CorrectIndex: t.CorrectIndex,
		TeamScores:   r.Scores,
		Delta:        delta,
		Detail: TurnResultDetail{
			Correct:  outcome.Correct,
			Wrong:    outcome.Wrong,
			Team:     t.Team,
			DrawerID: t.DrawerID,
		},
		CorrectGuessers: outcome.CorrectGuessers,
		WrongGuessers:   outcome.WrongGuessers,
	}})
	c.logActionUnsafe(r, cache.ActionTurnResult, map[string]interface{}{
		"turnIndex": r.TurnIndex,
		"drawerId":  t.DrawerID.String(),
		"team":      string(t.Team),
		"word":      t.Word(),
		"correct":   outcome.Correct,
		"wrong":     outcome.Wrong,
		"delta":     outcome.Delta,
	})

	r.Current = nil
	r.TurnIndex++

	var settle Task
	settle = c.Scheduler.AfterFunc(SettlePause, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.Disposed() || r.settleTask != settle {
			return
		}
		r.settleTask = nil
		c.startNextTurnUnsafe(r)
	})
	r.settleTask = settle
}

// endMatchUnsafe marks the room over and announces the final scores.
func (c *Coordinator) endMatchUnsafe(r *Room) {
	r.Current = nil
	r.Status = models.StatusOver
	for _, p := range r.Players {
		p.Ready = false
	}
	c.log(r).WithField("match", r.MatchID).Infof("match over, scores A=%d B=%d", r.Scores.A, r.Scores.B)
	c.broadcastSnapshotUnsafe(r)
	c.broadcastUnsafe(r, Event{Type: EventGameOver, Payload: GameOverPayload{Scores: r.Scores}})
	c.logActionUnsafe(r, cache.ActionMatchEnd, map[string]interface{}{
		"scoreA": r.Scores.A,
		"scoreB": r.Scores.B,
	})
}
