package model

import "time"

// CorrelationWarning flags a pair of bundle legs driven by overlapping
// signals, with a severity tier derived from the pair's strength.
type CorrelationWarning struct {
	LegA          string // proposition id of the first leg
	LegB          string // proposition id of the second leg
	SharedDrivers []string
	Strength      float64
	Severity      string // "high", "medium" or "low"
}

// Bundle is a combination of 2-5 scored propositions wagered together.
// No two legs may reference the same entity.
type Bundle struct {
	ID   string
	Legs []ScoredProposition

	// NaiveConfidence is the arithmetic mean of the legs' confidences,
	// before any correlation adjustment.
	NaiveConfidence float64
	// CorrelationPenalty is zero or negative.
	CorrelationPenalty float64
	// AdjustedConfidence = NaiveConfidence + CorrelationPenalty,
	// clamped to [0, 100].
	AdjustedConfidence float64

	Warnings  []CorrelationWarning
	CreatedAt time.Time
}

// Entities returns the distinct entities referenced by the bundle legs.
func (b Bundle) Entities() []string {
	seen := make(map[string]struct{}, len(b.Legs))
	out := make([]string, 0, len(b.Legs))
	for _, leg := range b.Legs {
		if _, ok := seen[leg.Proposition.Entity]; ok {
			continue
		}
		seen[leg.Proposition.Entity] = struct{}{}
		out = append(out, leg.Proposition.Entity)
	}
	return out
}
