package evaluator

import (
	"context"
	"fmt"

	"github.com/propedge/propedge/internal/domain/model"
)

// EfficiencyName identifies the efficiency evaluator.
const EfficiencyName = "efficiency"

// Efficiency evaluator tuning constants.
const (
	efficiencyMinGames   = 5    // season sample required before scoring
	efficiencyEdgeGain   = 150  // confidence points per unit of relative edge
	efficiencyRatingMid  = 0.5  // league-average composite efficiency
	efficiencyRatingGain = 20.0 // confidence points per unit above average
)

// Efficiency scores a proposition from season production: how the
// entity's per-game average and composite efficiency sit against the line.
type Efficiency struct{}

// NewEfficiency creates the efficiency evaluator.
func NewEfficiency() *Efficiency {
	return &Efficiency{}
}

// Name implements Evaluator.
func (e *Efficiency) Name() string { return EfficiencyName }

// Analyze implements Evaluator.
func (e *Efficiency) Analyze(_ context.Context, prop model.Proposition, data model.Context) Result {
	season := data.Season
	if season == nil {
		return Abstain(EfficiencyName, "no season stats")
	}
	if season.GamesPlayed < efficiencyMinGames {
		return Abstain(EfficiencyName, fmt.Sprintf("only %d games played", season.GamesPlayed))
	}
	avg, ok := season.PerGame[prop.Category]
	if !ok {
		return Abstain(EfficiencyName, "no season average for "+prop.Category)
	}
	if prop.Line == 0 {
		return Abstain(EfficiencyName, "zero line")
	}

	// Relative edge of the season average over the line.
	edge := (avg - prop.Line) / prop.Line
	over := 50 + edge*efficiencyEdgeGain

	// Efficient scorers sustain production; tilt by the composite rating.
	over += (season.Efficiency - efficiencyRatingMid) * efficiencyRatingGain

	score := sideAligned(clamp(over, 0, 100), prop.Side)
	return Score(EfficiencyName, score,
		fmt.Sprintf("season average %.1f vs line %.1f", avg, prop.Line),
		fmt.Sprintf("efficiency rating %.2f", season.Efficiency),
	)
}
