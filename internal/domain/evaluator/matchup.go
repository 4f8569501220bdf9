package evaluator

import (
	"context"
	"fmt"

	"github.com/propedge/propedge/internal/domain/model"
)

// MatchupName identifies the situational matchup evaluator.
const MatchupName = "matchup"

// Matchup evaluator tuning constants.
const (
	matchupDefaultTeams = 30
	matchupRankGain     = 2.2 // confidence points per rank away from median
	matchupAllowedGain  = 80  // confidence points per unit of relative concession edge
)

// Matchup scores a proposition from the opponent's defensive profile
// against the proposition category.
type Matchup struct{}

// NewMatchup creates the matchup evaluator.
func NewMatchup() *Matchup {
	return &Matchup{}
}

// Name implements Evaluator.
func (m *Matchup) Name() string { return MatchupName }

// Analyze implements Evaluator.
func (m *Matchup) Analyze(_ context.Context, prop model.Proposition, data model.Context) Result {
	mu := data.Matchup
	if mu == nil {
		return Abstain(MatchupName, "no matchup stats")
	}
	rank, ok := mu.DefenseRank[prop.Category]
	if !ok {
		return Abstain(MatchupName, "no defensive rank for "+prop.Category)
	}
	teams := mu.Teams
	if teams <= 0 {
		teams = matchupDefaultTeams
	}
	if rank < 1 || rank > teams {
		return Abstain(MatchupName, fmt.Sprintf("defensive rank %d out of range", rank))
	}

	// Rank 1 is the stingiest defense; a high rank leaks production.
	median := float64(teams+1) / 2
	over := 50 + (float64(rank)-median)*matchupRankGain

	rationale := []string{fmt.Sprintf("opponent ranks %d/%d against %s", rank, teams, prop.Category)}
	if allowed, ok := mu.AllowedPerGame[prop.Category]; ok && prop.Line > 0 {
		over += (allowed - prop.Line) / prop.Line * matchupAllowedGain
		rationale = append(rationale, fmt.Sprintf("opponent allows %.1f vs line %.1f", allowed, prop.Line))
	}

	score := sideAligned(clamp(over, 0, 100), prop.Side)
	return Score(MatchupName, score, rationale...)
}
