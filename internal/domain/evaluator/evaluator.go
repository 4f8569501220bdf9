// Package evaluator defines the contract for heuristic signal evaluators
// and the fixed set of signal families shipped with the engine.
//
// An evaluator is a pure function over an already-materialized context:
// no I/O, no side effects. When the data its signal family needs is
// missing it must abstain explicitly; a neutral score is indistinguishable
// from "no edge" and would silently dilute the aggregate.
package evaluator

import (
	"context"

	"github.com/propedge/propedge/internal/domain/model"
)

// Evaluator scores one proposition against one signal family.
type Evaluator interface {
	// Name identifies the evaluator in weights, audit records and warnings.
	Name() string

	// Analyze scores the proposition against the materialized context,
	// or abstains when the required data is unavailable.
	Analyze(ctx context.Context, prop model.Proposition, data model.Context) Result
}

// Result is either a score or an explicit abstention. Construct values
// with Score or Abstain; the zero value is not meaningful.
type Result struct {
	Evaluator string
	Score     float64 // 0..100, confidence the proposition as stated hits
	Direction model.Direction
	Rationale []string

	abstained     bool
	AbstainReason string
}

// Score builds a scoring result. The score is clamped to [0, 100].
func Score(name string, score float64, rationale ...string) Result {
	score = clamp(score, 0, 100)
	return Result{
		Evaluator: name,
		Score:     score,
		Direction: directionOf(score),
		Rationale: rationale,
	}
}

// Abstain builds an explicit no-opinion result.
func Abstain(name, reason string) Result {
	return Result{Evaluator: name, abstained: true, AbstainReason: reason}
}

// Abstained reports whether the evaluator declined to score.
func (r Result) Abstained() bool {
	return r.abstained
}

// Direction thresholds: scores near the midpoint are read as neutral.
const (
	overLean  = 55.0
	underLean = 45.0
)

func directionOf(score float64) model.Direction {
	switch {
	case score >= overLean:
		return model.DirectionOver
	case score <= underLean:
		return model.DirectionUnder
	default:
		return model.DirectionNeutral
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// sideAligned converts an OVER-side confidence into a confidence for the
// proposition's actual side.
func sideAligned(overScore float64, side model.Side) float64 {
	if side == model.SideUnder {
		return 100 - overScore
	}
	return overScore
}
