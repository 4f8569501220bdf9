package model

import "time"

// Number of ranked contributors retained as a proposition's "drivers".
const topDriverCount = 2

// Contribution is one evaluator's share of a final confidence score.
type Contribution struct {
	Evaluator string
	Score     float64   // the evaluator's raw score, 0..100
	Direction Direction // the evaluator's directional read
	Weight    float64   // weight applied during aggregation
	Percent   float64   // normalized contribution share, 0..100
}

// ScoredProposition is the orchestrator's output for one proposition:
// a calibrated confidence plus the ranked evaluators that produced it.
type ScoredProposition struct {
	Proposition Proposition
	Confidence  int  // 0..100, derived only from non-abstaining evaluators
	NoSignal    bool // true when zero evaluators contributed
	Tier        string

	// Contributors holds every non-abstaining evaluator, ranked by
	// influence (|score-50| * weight) descending.
	Contributors []Contribution

	ScoredAt time.Time
}

// TopContributors returns the highest-influence contributors, at most two.
func (s ScoredProposition) TopContributors() []Contribution {
	if len(s.Contributors) <= topDriverCount {
		return s.Contributors
	}
	return s.Contributors[:topDriverCount]
}

// Drivers returns the names of the top contributors. Correlation analysis
// treats these as the signals that drove the leg.
func (s ScoredProposition) Drivers() []string {
	top := s.TopContributors()
	names := make([]string, len(top))
	for i, c := range top {
		names[i] = c.Evaluator
	}
	return names
}

// Outcome is the realized result for a proposition, supplied by the
// outcome provider and consumed only during calibration.
type Outcome struct {
	PropositionID string
	ActualValue   float64
	Hit           bool
}
