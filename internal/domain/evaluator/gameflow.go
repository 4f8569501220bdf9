package evaluator

import (
	"context"
	"fmt"
	"math"

	"github.com/propedge/propedge/internal/domain/model"
)

// GameFlowName identifies the game-flow context evaluator.
const GameFlowName = "gameflow"

// Game-flow evaluator tuning constants.
const (
	gameflowLeaguePace  = 99.0 // nominal possessions per game
	gameflowLeagueTotal = 225.0
	gameflowPaceGain    = 1.8  // confidence points per possession above nominal
	gameflowTotalGain   = 0.5  // confidence points per total point above nominal
	gameflowBlowoutLine = 12.0 // spreads past this risk garbage-time benches
	gameflowBlowoutPen  = 8.0
)

// GameFlow scores a proposition from the expected game script: pace,
// market total and spread.
type GameFlow struct{}

// NewGameFlow creates the game-flow evaluator.
func NewGameFlow() *GameFlow {
	return &GameFlow{}
}

// Name implements Evaluator.
func (g *GameFlow) Name() string { return GameFlowName }

// Analyze implements Evaluator.
func (g *GameFlow) Analyze(_ context.Context, prop model.Proposition, data model.Context) Result {
	gf := data.GameFlow
	if gf == nil {
		return Abstain(GameFlowName, "no game-flow stats")
	}
	if gf.Pace <= 0 && gf.Total <= 0 {
		return Abstain(GameFlowName, "no pace or total available")
	}

	over := 50.0
	rationale := make([]string, 0, 3)
	if gf.Pace > 0 {
		over += (gf.Pace - gameflowLeaguePace) * gameflowPaceGain
		rationale = append(rationale, fmt.Sprintf("expected pace %.1f", gf.Pace))
	}
	if gf.Total > 0 {
		over += (gf.Total - gameflowLeagueTotal) * gameflowTotalGain
		rationale = append(rationale, fmt.Sprintf("market total %.1f", gf.Total))
	}
	// A lopsided spread cuts starter minutes in either direction.
	if math.Abs(gf.Spread) > gameflowBlowoutLine {
		over -= gameflowBlowoutPen
		rationale = append(rationale, fmt.Sprintf("blowout risk at spread %+.1f", gf.Spread))
	}

	score := sideAligned(clamp(over, 0, 100), prop.Side)
	return Score(GameFlowName, score, rationale...)
}
