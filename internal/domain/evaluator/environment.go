package evaluator

import (
	"context"
	"fmt"

	"github.com/propedge/propedge/internal/domain/model"
)

// EnvironmentName identifies the environmental-condition evaluator.
const EnvironmentName = "environment"

// Environment evaluator tuning constants.
const (
	environmentHomeBoost  = 4.0
	environmentRestBoost  = 3.0 // applied when fully rested
	environmentRestedDays = 2
	environmentB2BPenalty = 6.0
)

// Environment scores a proposition from game conditions: venue, rest and
// schedule congestion. The effects are small by nature, so this evaluator
// rarely strays far from the midpoint.
type Environment struct{}

// NewEnvironment creates the environment evaluator.
func NewEnvironment() *Environment {
	return &Environment{}
}

// Name implements Evaluator.
func (e *Environment) Name() string { return EnvironmentName }

// Analyze implements Evaluator.
func (e *Environment) Analyze(_ context.Context, prop model.Proposition, data model.Context) Result {
	env := data.Environment
	if env == nil {
		return Abstain(EnvironmentName, "no environment stats")
	}

	over := 50.0
	rationale := make([]string, 0, 3)
	if env.Home {
		over += environmentHomeBoost
		rationale = append(rationale, "home game")
	} else {
		rationale = append(rationale, "road game")
	}
	if env.BackToBack {
		over -= environmentB2BPenalty
		rationale = append(rationale, "second night of a back-to-back")
	} else if env.RestDays >= environmentRestedDays {
		over += environmentRestBoost
		rationale = append(rationale, fmt.Sprintf("%d days of rest", env.RestDays))
	}

	score := sideAligned(clamp(over, 0, 100), prop.Side)
	return Score(EnvironmentName, score, rationale...)
}
