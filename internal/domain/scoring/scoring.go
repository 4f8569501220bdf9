// Package scoring aggregates evaluator results into a calibrated
// confidence for one proposition.
package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/propedge/propedge/internal/domain/evaluator"
	"github.com/propedge/propedge/internal/domain/model"
	"github.com/propedge/propedge/pkg/logger"
	"github.com/propedge/propedge/pkg/metrics"
)

// Confidence returned when zero evaluators contribute.
const noSignalConfidence = 50

// Weight applied to evaluators absent from a snapshot.
const fallbackWeight = 1.0

// Snapshot is an immutable per-run view of evaluator weights, taken once
// per scoring session. Calibration writes landing mid-run never affect an
// in-flight score.
type Snapshot map[string]float64

// Weight returns the weight for an evaluator, defaulting to
// fallbackWeight for evaluators the snapshot does not know.
func (s Snapshot) Weight(name string) float64 {
	if w, ok := s[name]; ok {
		return w
	}
	return fallbackWeight
}

// Option applies a configuration option to the Orchestrator.
type Option func(*Orchestrator)

// WithTiers sets the recommendation tier table.
func WithTiers(t Tiers) Option {
	return func(o *Orchestrator) {
		if len(t) > 0 {
			o.tiers = t
		}
	}
}

// WithLogger sets a custom logger for the orchestrator.
func WithLogger(log logger.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// Orchestrator runs every registered evaluator for a proposition and
// combines the non-abstaining results into a single confidence.
type Orchestrator struct {
	registry *evaluator.Registry
	tiers    Tiers
	log      logger.Logger
}

// New creates an orchestrator over the given registry.
func New(registry *evaluator.Registry, opts ...Option) (*Orchestrator, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	o := &Orchestrator{
		registry: registry,
		tiers:    DefaultTiers(),
		log:      logger.Get().Named("scoring"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Score produces a ScoredProposition for one proposition.
//
// Abstaining evaluators are excluded from both the score sum and the
// weight sum, so missing data never drags a strong signal toward the
// midpoint. A panicking evaluator is treated as an abstention and never
// aborts the run. Zero contributors yield the neutral confidence with an
// explicit no-signal flag.
func (o *Orchestrator) Score(ctx context.Context, prop model.Proposition, data model.Context, weights Snapshot) (model.ScoredProposition, error) {
	start := time.Now()
	defer func() {
		metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := prop.Validate(); err != nil {
		return model.ScoredProposition{}, err
	}

	contributors := make([]model.Contribution, 0, o.registry.Len())
	for _, eval := range o.registry.All() {
		weight := weights.Weight(eval.Name())
		if weight <= 0 {
			continue // disabled by calibration
		}
		res := o.safeAnalyze(ctx, eval, prop, data)
		if res.Abstained() {
			metrics.RecordEvaluatorAbstain(eval.Name())
			o.log.Debug(ctx, "evaluator abstained",
				logger.String("evaluator", eval.Name()),
				logger.String("proposition", prop.ID),
				logger.String("reason", res.AbstainReason),
			)
			continue
		}
		contributors = append(contributors, model.Contribution{
			Evaluator: eval.Name(),
			Score:     res.Score,
			Direction: res.Direction,
			Weight:    weight,
		})
	}

	sp := model.ScoredProposition{
		Proposition: prop,
		ScoredAt:    time.Now().UTC(),
	}

	if len(contributors) == 0 {
		metrics.RecordNoSignal()
		o.log.Warn(ctx, "no contributing evaluators",
			logger.String("proposition", prop.ID),
		)
		sp.Confidence = noSignalConfidence
		sp.NoSignal = true
		sp.Tier = o.tiers.For(sp.Confidence)
		return sp, nil
	}

	var scoreSum, weightSum float64
	for _, c := range contributors {
		scoreSum += c.Score * c.Weight
		weightSum += c.Weight
	}
	confidence := scoreSum / weightSum
	confidence = math.Min(100, math.Max(0, confidence))
	sp.Confidence = int(math.Round(confidence))

	rankContributors(contributors)
	sp.Contributors = contributors
	sp.Tier = o.tiers.For(sp.Confidence)

	metrics.RecordPropositionScored()
	o.log.Debug(ctx, "proposition scored",
		logger.String("proposition", prop.ID),
		logger.Int("confidence", sp.Confidence),
		logger.String("tier", sp.Tier),
		logger.Int("contributors", len(contributors)),
	)
	return sp, nil
}

// Complement is the single canonical transform for the opposite side of
// the same threshold. It is never re-derived per evaluator, which
// guarantees confidence(side) + confidence(complement) == 100.
func (o *Orchestrator) Complement(sp model.ScoredProposition) model.ScoredProposition {
	out := sp
	out.Proposition.Side = sp.Proposition.Side.Opposite()
	out.Confidence = 100 - sp.Confidence
	out.Tier = o.tiers.For(out.Confidence)
	return out
}

// safeAnalyze isolates evaluator failures: a panic is recovered and
// converted into an abstention.
func (o *Orchestrator) safeAnalyze(ctx context.Context, eval evaluator.Evaluator, prop model.Proposition, data model.Context) (res evaluator.Result) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordEvaluatorFailure(eval.Name())
			o.log.Error(ctx, "evaluator panicked",
				logger.String("evaluator", eval.Name()),
				logger.String("proposition", prop.ID),
				logger.Any("panic", r),
			)
			res = evaluator.Abstain(eval.Name(), fmt.Sprintf("panic: %v", r))
		}
	}()
	return eval.Analyze(ctx, prop, data)
}

// rankContributors orders contributors by influence (|score-50| * weight)
// descending, name ascending on ties, and fills normalized contribution
// percentages over the full contributor set.
func rankContributors(contributors []model.Contribution) {
	influence := func(c model.Contribution) float64 {
		return math.Abs(c.Score-50) * c.Weight
	}
	sort.SliceStable(contributors, func(i, j int) bool {
		a, b := influence(contributors[i]), influence(contributors[j])
		if a != b {
			return a > b
		}
		return contributors[i].Evaluator < contributors[j].Evaluator
	})

	var total float64
	for _, c := range contributors {
		total += influence(c)
	}
	for i := range contributors {
		if total == 0 {
			// All contributors sit exactly at the midpoint; split evenly.
			contributors[i].Percent = 100 / float64(len(contributors))
			continue
		}
		contributors[i].Percent = influence(contributors[i]) / total * 100
	}
}
