// Package calibration adjusts evaluator weights from realized outcomes.
//
// Per calibration period, each evaluator's accuracy (hit rate among
// propositions it contributed to) and overconfidence (mean predicted
// probability minus accuracy) produce one bounded weight delta. Every
// decision, applied or skipped, lands in an append-only audit trail, and
// reprocessing a period is idempotent.
package calibration

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/propedge/propedge/internal/adapters/repository"
	"github.com/propedge/propedge/internal/domain/epoch"
	"github.com/propedge/propedge/internal/domain/model"
	"github.com/propedge/propedge/pkg/logger"
	"github.com/propedge/propedge/pkg/metrics"
)

// Delta rule defaults.
const (
	defaultOverconfidenceGain = 3.0
	defaultAccuracyBonusGain  = 2.0
	defaultAccuracyHigh       = 0.70
	defaultAccuracyLow        = 0.50
	defaultMaxDelta           = 0.5
	defaultMinSampleSize      = 10
	defaultStartWeight        = 1.0
)

// Sample pairs a historical scored proposition with its realized outcome.
type Sample struct {
	Scored  model.ScoredProposition
	Outcome model.Outcome
}

// Option applies a configuration option to the Calibrator.
type Option func(*Calibrator)

// WithOverconfidenceGain sets the gain applied to overconfidence.
func WithOverconfidenceGain(k float64) Option {
	return func(c *Calibrator) {
		if k > 0 {
			c.overconfidenceGain = k
		}
	}
}

// WithAccuracyBonusGain sets the gain applied past the accuracy bands.
func WithAccuracyBonusGain(k float64) Option {
	return func(c *Calibrator) {
		if k > 0 {
			c.accuracyBonusGain = k
		}
	}
}

// WithMinSampleSize sets the sample count below which an adjustment is
// skipped and recorded as insufficient data.
func WithMinSampleSize(n int) Option {
	return func(c *Calibrator) {
		if n > 0 {
			c.minSampleSize = n
		}
	}
}

// WithMaxDelta sets the per-period delta bound.
func WithMaxDelta(d float64) Option {
	return func(c *Calibrator) {
		if d > 0 {
			c.maxDelta = d
		}
	}
}

// WithGuard sets the in-flight period guard.
func WithGuard(g epoch.Guard) Option {
	return func(c *Calibrator) {
		if g != nil {
			c.guard = g
		}
	}
}

// WithLogger sets a custom logger for the calibrator.
func WithLogger(log logger.Logger) Option {
	return func(c *Calibrator) {
		if log != nil {
			c.log = log
		}
	}
}

// Calibrator recomputes evaluator weights from historical outcomes.
type Calibrator struct {
	store repository.WeightStore
	guard epoch.Guard

	overconfidenceGain float64
	accuracyBonusGain  float64
	accuracyHigh       float64
	accuracyLow        float64
	maxDelta           float64
	minSampleSize      int

	log logger.Logger
}

// NewCalibrator creates a calibrator over the given weight store.
func NewCalibrator(store repository.WeightStore, opts ...Option) (*Calibrator, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	c := &Calibrator{
		store:              store,
		guard:              epoch.NewInMemoryGuard(),
		overconfidenceGain: defaultOverconfidenceGain,
		accuracyBonusGain:  defaultAccuracyBonusGain,
		accuracyHigh:       defaultAccuracyHigh,
		accuracyLow:        defaultAccuracyLow,
		maxDelta:           defaultMaxDelta,
		minSampleSize:      defaultMinSampleSize,
		log:                logger.Get().Named("calibration"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// evaluatorStats accumulates one evaluator's evidence for a period.
type evaluatorStats struct {
	samples int
	hits    int
	sumP    float64 // sum of predicted probabilities
}

// Calibrate runs one calibration period. It either fully commits or fully
// rolls back: a persistence failure anywhere aborts the whole run with no
// partial weight writes. Rerunning an identical period is idempotent and
// is audited with ReasonAlreadyCalibrated rather than re-applied.
func (c *Calibrator) Calibrate(ctx context.Context, period string, samples []Sample) ([]model.AdjustmentRecord, error) {
	if period == "" {
		return nil, ErrInvalidPeriod
	}
	if !c.guard.Acquire(ctx, period) {
		return nil, fmt.Errorf("%w: period %s", ErrCalibrationInFlight, period)
	}
	defer c.guard.Release(ctx, period)

	stats := collectStats(samples)
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	tx, err := c.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin calibration: %w", err)
	}

	records := make([]model.AdjustmentRecord, 0, len(names))
	for _, name := range names {
		rec, err := c.calibrateEvaluator(ctx, tx, period, name, stats[name])
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("calibrate %s: %w", name, err)
		}
		records = append(records, rec)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit calibration: %w", err)
	}

	metrics.RecordCalibrationRun()
	for _, rec := range records {
		if rec.Reason == model.ReasonCalibrated {
			metrics.UpdateEvaluatorWeight(rec.Evaluator, rec.NewWeight)
		} else {
			metrics.RecordCalibrationSkip(rec.Reason)
		}
	}
	c.log.Info(ctx, "calibration committed",
		logger.String("period", period),
		logger.Int("evaluators", len(records)),
		logger.Int("samples", len(samples)),
	)
	return records, nil
}

// calibrateEvaluator applies the delta rule for one evaluator inside the
// open transaction and appends the audit record.
func (c *Calibrator) calibrateEvaluator(ctx context.Context, tx repository.Tx, period, name string, st *evaluatorStats) (model.AdjustmentRecord, error) {
	weight, err := tx.GetWeight(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		weight = model.EvaluatorWeight{Evaluator: name, Weight: defaultStartWeight}
	} else if err != nil {
		return model.AdjustmentRecord{}, err
	}

	accuracy := float64(st.hits) / float64(st.samples)
	overconfidence := st.sumP/float64(st.samples) - accuracy

	rec := model.AdjustmentRecord{
		ID:             uuid.NewString(),
		Evaluator:      name,
		Period:         period,
		OldWeight:      weight.Weight,
		NewWeight:      weight.Weight,
		Accuracy:       accuracy,
		Overconfidence: overconfidence,
		SampleSize:     st.samples,
		CreatedAt:      time.Now().UTC(),
	}

	switch {
	case weight.Period == period:
		rec.Reason = model.ReasonAlreadyCalibrated
	case st.samples < c.minSampleSize:
		rec.Reason = model.ReasonInsufficientData
	default:
		rec.Reason = model.ReasonCalibrated
		delta := -overconfidence * c.overconfidenceGain
		if accuracy > c.accuracyHigh {
			delta += (accuracy - c.accuracyHigh) * c.accuracyBonusGain
		}
		if accuracy < c.accuracyLow {
			delta -= (c.accuracyLow - accuracy) * c.accuracyBonusGain
		}
		delta = math.Max(-c.maxDelta, math.Min(c.maxDelta, delta))

		newWeight := weight.Weight + delta
		newWeight = math.Max(model.MinEvaluatorWeight, math.Min(model.MaxEvaluatorWeight, newWeight))
		rec.NewWeight = newWeight
		rec.Delta = newWeight - weight.Weight

		prevSamples := weight.Samples
		weight.Weight = newWeight
		weight.Period = period
		weight.Samples += int64(st.samples)
		weight.Accuracy = (weight.Accuracy*float64(prevSamples) + float64(st.hits)) / float64(weight.Samples)
		weight.UpdatedAt = rec.CreatedAt
		if err := tx.PutWeight(ctx, weight); err != nil {
			return model.AdjustmentRecord{}, err
		}
	}

	if err := tx.AppendRecord(ctx, rec); err != nil {
		return model.AdjustmentRecord{}, err
	}
	c.log.Debug(ctx, "evaluator calibrated",
		logger.String("evaluator", name),
		logger.String("reason", rec.Reason),
		logger.Float64("oldWeight", rec.OldWeight),
		logger.Float64("newWeight", rec.NewWeight),
		logger.Float64("accuracy", accuracy),
		logger.Float64("overconfidence", overconfidence),
		logger.Int("samples", st.samples),
	)
	return rec, nil
}

// collectStats aggregates per-evaluator evidence across samples. Only
// evaluators that actually contributed to a proposition accumulate from
// it; no-signal propositions carry no evidence at all.
func collectStats(samples []Sample) map[string]*evaluatorStats {
	stats := make(map[string]*evaluatorStats)
	for _, s := range samples {
		if s.Scored.NoSignal {
			continue
		}
		for _, contrib := range s.Scored.Contributors {
			st, ok := stats[contrib.Evaluator]
			if !ok {
				st = &evaluatorStats{}
				stats[contrib.Evaluator] = st
			}
			st.samples++
			st.sumP += predictedProbability(contrib)
			if s.Outcome.Hit {
				st.hits++
			}
		}
	}
	return stats
}

// predictedProbability maps a 0-100 contribution score to a probability
// of the proposition hitting. Scores are already aligned with the
// proposition's side, including for UNDER-direction evaluators, so the
// mapping is the same monotone scaling for every direction.
func predictedProbability(c model.Contribution) float64 {
	return c.Score / 100
}
