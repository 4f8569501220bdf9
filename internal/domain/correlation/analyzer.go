// Package correlation quantifies hidden overlap between bundle legs.
//
// Two legs driven by the same underlying signal are not independent bets
// even when their entities differ; a naive combination overstates the
// true joint probability. The analyzer charges a penalty for every leg
// pair whose top drivers intersect.
package correlation

import (
	"context"
	"sort"

	"github.com/propedge/propedge/internal/domain/model"
	"github.com/propedge/propedge/pkg/logger"
	"github.com/propedge/propedge/pkg/metrics"
)

// Default penalty configuration.
const (
	defaultBaseMagnitude = 5.0
	defaultPenaltyFloor  = -20.0
)

// Severity thresholds derived from pair strength.
const (
	severityHighMin   = 1.3
	severityMediumMin = 0.9
)

// Severity labels attached to correlation warnings.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithTable sets the strength table.
func WithTable(t *StrengthTable) Option {
	return func(a *Analyzer) {
		if t != nil {
			a.table = t
		}
	}
}

// WithBaseMagnitude sets the penalty charged per unit of strength.
func WithBaseMagnitude(m float64) Option {
	return func(a *Analyzer) {
		if m > 0 {
			a.baseMagnitude = m
		}
	}
}

// WithPenaltyFloor sets the worst total penalty a bundle can take.
func WithPenaltyFloor(floor float64) Option {
	return func(a *Analyzer) {
		if floor < 0 {
			a.floor = floor
		}
	}
}

// WithLogger sets a custom logger for the analyzer.
func WithLogger(log logger.Logger) Option {
	return func(a *Analyzer) {
		if log != nil {
			a.log = log
		}
	}
}

// Analyzer computes a correlation-aware confidence penalty for a bundle.
type Analyzer struct {
	table         *StrengthTable
	baseMagnitude float64
	floor         float64
	log           logger.Logger
}

// NewAnalyzer creates an analyzer with the default table and penalties.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		table:         DefaultStrengthTable(),
		baseMagnitude: defaultBaseMagnitude,
		floor:         defaultPenaltyFloor,
		log:           logger.Get().Named("correlation"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze returns the total penalty (always <= 0) and one warning per
// flagged leg pair. A single-leg bundle carries no correlation by
// definition; a leg without driver metadata is skipped rather than
// treated as an error.
func (a *Analyzer) Analyze(ctx context.Context, legs []model.ScoredProposition) (float64, []model.CorrelationWarning) {
	if len(legs) < 2 {
		return 0, nil
	}

	var total float64
	var warnings []model.CorrelationWarning
	for i := 0; i < len(legs); i++ {
		for j := i + 1; j < len(legs); j++ {
			shared := sharedDrivers(legs[i], legs[j])
			if len(shared) == 0 {
				continue
			}
			strength := a.pairStrength(shared)
			penalty := -a.baseMagnitude * strength
			total += penalty
			warnings = append(warnings, model.CorrelationWarning{
				LegA:          legs[i].Proposition.ID,
				LegB:          legs[j].Proposition.ID,
				SharedDrivers: shared,
				Strength:      strength,
				Severity:      severityOf(strength),
			})
			a.log.Debug(ctx, "correlated legs flagged",
				logger.String("legA", legs[i].Proposition.ID),
				logger.String("legB", legs[j].Proposition.ID),
				logger.Any("sharedDrivers", shared),
				logger.Float64("strength", strength),
			)
		}
	}

	if total < a.floor {
		total = a.floor
	}
	if total != 0 {
		metrics.RecordCorrelationPenalty(-total)
	}
	return total, warnings
}

// pairStrength resolves the strength for a shared driver set: a full
// shared pair is looked up in the table, a single shared driver uses the
// table default.
func (a *Analyzer) pairStrength(shared []string) float64 {
	if len(shared) >= 2 {
		return a.table.Strength(shared[0], shared[1])
	}
	return a.table.Default()
}

func severityOf(strength float64) string {
	switch {
	case strength >= severityHighMin:
		return SeverityHigh
	case strength >= severityMediumMin:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// sharedDrivers returns the sorted intersection of two legs' top drivers.
func sharedDrivers(a, b model.ScoredProposition) []string {
	da, db := a.Drivers(), b.Drivers()
	if len(da) == 0 || len(db) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(da))
	for _, d := range da {
		set[d] = struct{}{}
	}
	var shared []string
	for _, d := range db {
		if _, ok := set[d]; ok {
			shared = append(shared, d)
		}
	}
	sort.Strings(shared)
	return shared
}
