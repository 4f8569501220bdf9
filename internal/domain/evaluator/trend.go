package evaluator

import (
	"context"
	"fmt"

	"github.com/propedge/propedge/internal/domain/model"
)

// TrendName identifies the recent-trend evaluator.
const TrendName = "trend"

// Trend evaluator tuning constants.
const (
	trendMinGames   = 3
	trendEdgeGain   = 120 // confidence points per unit of relative recent edge
	trendHitRateMax = 20  // extra confidence points from a perfect recent hit rate
)

// Trend scores a proposition from the entity's recent results against the
// line: the recent average and how often the line was actually cleared.
type Trend struct{}

// NewTrend creates the trend evaluator.
func NewTrend() *Trend {
	return &Trend{}
}

// Name implements Evaluator.
func (t *Trend) Name() string { return TrendName }

// Analyze implements Evaluator.
func (t *Trend) Analyze(_ context.Context, prop model.Proposition, data model.Context) Result {
	recent := data.Recent
	if recent == nil || len(recent.Values) == 0 {
		return Abstain(TrendName, "no recent results")
	}
	if len(recent.Values) < trendMinGames {
		return Abstain(TrendName, fmt.Sprintf("only %d recent games", len(recent.Values)))
	}
	if prop.Line == 0 {
		return Abstain(TrendName, "zero line")
	}

	var sum float64
	cleared := 0
	for _, v := range recent.Values {
		sum += v
		if v > prop.Line {
			cleared++
		}
	}
	avg := sum / float64(len(recent.Values))
	hitRate := float64(cleared) / float64(len(recent.Values))

	over := 50 + (avg-prop.Line)/prop.Line*trendEdgeGain + (hitRate-0.5)*trendHitRateMax*2

	score := sideAligned(clamp(over, 0, 100), prop.Side)
	return Score(TrendName, score,
		fmt.Sprintf("recent average %.1f over %d games", avg, len(recent.Values)),
		fmt.Sprintf("cleared the line in %d of %d", cleared, len(recent.Values)),
	)
}
