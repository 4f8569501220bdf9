package evaluator

import (
	"context"
	"fmt"
	"math"

	"github.com/propedge/propedge/internal/domain/model"
)

// VarianceName identifies the outcome-variance evaluator.
const VarianceName = "variance"

// Variance evaluator tuning constants.
const (
	varianceMinGames = 4
	varianceZGain    = 18 // confidence points per standard deviation of edge
	varianceMaxZ     = 2.5
)

// Variance scores a proposition from outcome reliability: how many
// standard deviations the entity's recent mean sits from the line. A
// large edge over a noisy sample is worth less than a small edge over a
// steady one, which is exactly what the z-score captures.
type Variance struct{}

// NewVariance creates the variance evaluator.
func NewVariance() *Variance {
	return &Variance{}
}

// Name implements Evaluator.
func (v *Variance) Name() string { return VarianceName }

// Analyze implements Evaluator.
func (v *Variance) Analyze(_ context.Context, prop model.Proposition, data model.Context) Result {
	recent := data.Recent
	if recent == nil || len(recent.Values) < varianceMinGames {
		n := 0
		if recent != nil {
			n = len(recent.Values)
		}
		return Abstain(VarianceName, fmt.Sprintf("need %d recent games, have %d", varianceMinGames, n))
	}

	mean, std := meanStd(recent.Values)
	if std == 0 {
		// A flat sample is perfectly reliable; the side of the line decides.
		if mean > prop.Line {
			return Score(VarianceName, sideAligned(90, prop.Side), "identical recent results above the line")
		}
		return Score(VarianceName, sideAligned(10, prop.Side), "identical recent results below the line")
	}

	z := (mean - prop.Line) / std
	z = clamp(z, -varianceMaxZ, varianceMaxZ)
	over := 50 + z*varianceZGain

	score := sideAligned(clamp(over, 0, 100), prop.Side)
	return Score(VarianceName, score,
		fmt.Sprintf("recent mean %.1f, stddev %.1f", mean, std),
		fmt.Sprintf("line sits %.2f standard deviations from the mean", z),
	)
}

func meanStd(values []float64) (mean, std float64) {
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	for _, v := range values {
		std += (v - mean) * (v - mean)
	}
	std = math.Sqrt(std / float64(len(values)))
	return mean, std
}
