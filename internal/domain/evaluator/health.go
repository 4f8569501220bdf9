package evaluator

import (
	"context"
	"fmt"

	"github.com/propedge/propedge/internal/domain/model"
)

// HealthName identifies the health-status evaluator.
const HealthName = "health"

// Health evaluator tuning constants.
const (
	healthQuestionablePen = 10.0
	healthRestrictionPen  = 15.0
	healthRampUpGames     = 3 // games after a return before full workload
	healthRampUpPen       = 6.0
)

// Health scores a proposition from the entity's availability report.
// An entity ruled out makes the OVER nearly impossible, so the signal
// can be strong in the UNDER direction.
type Health struct{}

// NewHealth creates the health evaluator.
func NewHealth() *Health {
	return &Health{}
}

// Name implements Evaluator.
func (h *Health) Name() string { return HealthName }

// Analyze implements Evaluator.
func (h *Health) Analyze(_ context.Context, prop model.Proposition, data model.Context) Result {
	hs := data.Health
	if hs == nil {
		return Abstain(HealthName, "no health report")
	}

	switch hs.Status {
	case model.HealthOut:
		// The stat cannot accrue at all.
		return Score(HealthName, sideAligned(2, prop.Side), "entity ruled out")
	case model.HealthHealthy, model.HealthQuestionable:
		// scored below
	default:
		return Abstain(HealthName, fmt.Sprintf("unknown health status %q", hs.Status))
	}

	over := 58.0 // a clean bill of health mildly supports the over
	rationale := []string{"status " + hs.Status}
	if hs.Status == model.HealthQuestionable {
		over -= healthQuestionablePen
	}
	if hs.MinutesRestriction {
		over -= healthRestrictionPen
		rationale = append(rationale, "minutes restriction in effect")
	}
	if hs.GamesSinceReturn > 0 && hs.GamesSinceReturn <= healthRampUpGames {
		over -= healthRampUpPen
		rationale = append(rationale, fmt.Sprintf("game %d since return", hs.GamesSinceReturn))
	}

	score := sideAligned(clamp(over, 0, 100), prop.Side)
	return Score(HealthName, score, rationale...)
}
