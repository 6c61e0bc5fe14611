// internal/game/plan.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/ciziko/internal/models"
)

// PlanEntry is one scheduled turn: who draws and for which team.
type PlanEntry struct {
	PlayerID uuid.UUID   `json:"playerId"`
	Team     models.Team `json:"team"`
}

// planPasses is how many times every player draws in one match.
const planPasses = 2

// BuildPlan interleaves the two rosters A0, B0, A1, B1, ... and repeats the whole sequence
// once more, so everyone draws twice. The result is deterministic for a given input order.
// Callers are expected to pass equal, non-empty rosters; extra players on the longer side
// are left out.
func BuildPlan(teamA, teamB []uuid.UUID) []PlanEntry {
	n := len(teamA)
	if len(teamB) < n {
		n = len(teamB)
	}
	plan := make([]PlanEntry, 0, planPasses*2*n)
	for pass := 0; pass < planPasses; pass++ {
		for i := 0; i < n; i++ {
			plan = append(plan,
				PlanEntry{PlayerID: teamA[i], Team: models.TeamA},
				PlanEntry{PlayerID: teamB[i], Team: models.TeamB},
			)
		}
	}
	return plan
}
