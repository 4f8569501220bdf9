package evaluator

import (
	"context"
	"fmt"

	"github.com/propedge/propedge/internal/domain/model"
)

// UsageName identifies the usage-share evaluator.
const UsageName = "usage"

// Usage evaluator tuning constants.
const (
	usageLeagueAverage = 0.20 // nominal usage share
	usageShareGain     = 180  // confidence points per unit of share above average
	usageTrendGain     = 60   // confidence points per unit of recent trend
)

// Usage scores a proposition from the entity's share of team
// opportunities. Volume drives counting stats; a rising share is a
// leading indicator the season average understates.
type Usage struct{}

// NewUsage creates the usage evaluator.
func NewUsage() *Usage {
	return &Usage{}
}

// Name implements Evaluator.
func (u *Usage) Name() string { return UsageName }

// Analyze implements Evaluator.
func (u *Usage) Analyze(_ context.Context, prop model.Proposition, data model.Context) Result {
	us := data.Usage
	if us == nil {
		return Abstain(UsageName, "no usage stats")
	}
	if us.Share <= 0 || us.Share > 1 {
		return Abstain(UsageName, fmt.Sprintf("usage share %.2f out of range", us.Share))
	}

	over := 50 + (us.Share-usageLeagueAverage)*usageShareGain + us.TrendPct*usageTrendGain

	score := sideAligned(clamp(over, 0, 100), prop.Side)
	return Score(UsageName, score,
		fmt.Sprintf("usage share %.1f%%", us.Share*100),
		fmt.Sprintf("usage trend %+.1f%%", us.TrendPct*100),
	)
}
