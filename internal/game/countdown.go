// internal/game/countdown.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/ciziko/internal/cache"
	"github.com/jason-s-yu/ciziko/internal/models"
)

// startCountdownUnsafe begins the 3-2-1 countdown. Assumes lock is held.
func (c *Coordinator) startCountdownUnsafe(r *Room) {
	if r.countdown != nil {
		return
	}
	cd := &countdown{remaining: CountdownSeconds}
	r.countdown = cd
	c.log(r).Infof("starting %d second countdown", CountdownSeconds)
	c.broadcastUnsafe(r, Event{Type: EventStartCountdown, Payload: CountdownPayload{T: cd.remaining}})
	c.scheduleCountdownTickUnsafe(r, cd)
}

func (c *Coordinator) scheduleCountdownTickUnsafe(r *Room, cd *countdown) {
	cd.task = c.Scheduler.AfterFunc(CountdownTick, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.Disposed() || r.countdown != cd {
			return
		}
		c.countdownTickUnsafe(r, cd)
	})
}

func (c *Coordinator) countdownTickUnsafe(r *Room, cd *countdown) {
	if canStart, _ := r.startCheckUnsafe(); !canStart {
		c.cancelCountdownUnsafe(r)
		return
	}
	cd.remaining--
	if cd.remaining > 0 {
		c.broadcastUnsafe(r, Event{Type: EventStartCountdown, Payload: CountdownPayload{T: cd.remaining}})
		c.scheduleCountdownTickUnsafe(r, cd)
		return
	}
	r.countdown = nil
	c.startMatchUnsafe(r)
}

// cancelCountdownUnsafe stops a running countdown and tells the room. Assumes lock is held.
func (c *Coordinator) cancelCountdownUnsafe(r *Room) {
	if r.countdown == nil {
		return
	}
	stopTask(r.countdown.task)
	r.countdown = nil
	c.log(r).Info("countdown cancelled")
	c.broadcastUnsafe(r, Event{Type: EventCountdownCancelled})
}

// recheckCountdownUnsafe cancels a running countdown once the start predicate no longer holds.
func (c *Coordinator) recheckCountdownUnsafe(r *Room) {
	if r.countdown == nil {
		return
	}
	if canStart, _ := r.startCheckUnsafe(); !canStart {
		c.cancelCountdownUnsafe(r)
	}
}

// startMatchUnsafe resets the room for a new match, builds the round plan from the current
// rosters and starts the first turn. Assumes lock is held.
func (c *Coordinator) startMatchUnsafe(r *Room) {
	r.Scores = models.Scores{}
	r.UsedWords = make(map[string]struct{})
	r.Plan = BuildPlan(playerIDs(r.teamUnsafe(models.TeamA)), playerIDs(r.teamUnsafe(models.TeamB)))
	r.TurnIndex = 0
	r.Current = nil
	r.Status = models.StatusRunning
	r.MatchID = uuid.New()
	r.actionIndex = 0

	startedAt := c.Scheduler.Now()
	c.log(r).WithField("match", r.MatchID).Infof("match started with %d turns", len(r.Plan))
	c.broadcastUnsafe(r, Event{Type: EventMatchStarted, Payload: MatchStartedPayload{
		StartedAt:  startedAt.UnixMilli(),
		TotalTurns: len(r.Plan),
	}})
	c.logActionUnsafe(r, cache.ActionMatchStart, map[string]interface{}{
		"totalTurns": len(r.Plan),
		"teamA":      playerNames(r.teamUnsafe(models.TeamA)),
		"teamB":      playerNames(r.teamUnsafe(models.TeamB)),
	})
	c.startNextTurnUnsafe(r)
}

func playerIDs(players []*models.Player) []uuid.UUID {
	out := make([]uuid.UUID, len(players))
	for i, p := range players {
		out[i] = p.ID
	}
	return out
}

func playerNames(players []*models.Player) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.Name
	}
	return out
}
