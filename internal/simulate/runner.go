// Package simulate drives a full engine pass over a generated slate:
// score, bundle, settle, calibrate. It exists so the engine can be
// exercised end to end without live data feeds.
package simulate

import (
	"context"
	"fmt"
	"time"

	"github.com/propedge/propedge/internal/adapters/provider"
	service "github.com/propedge/propedge/internal/app"
	"github.com/propedge/propedge/internal/domain/model"
	"github.com/propedge/propedge/pkg/logger"
)

// Config controls one simulation pass.
type Config struct {
	SlateSize     int
	Games         int
	Seed          int64
	Period        string
	BundleSizes   []int
	MinConfidence int
}

// Stats summarizes one simulation pass.
type Stats struct {
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
	Scored        int
	NoSignal      int
	BundlesBuilt  int
	OutcomeHits   int
	Adjustments   int
	WeightChanges int
}

// Run generates a slate, scores it through the given engine, assembles
// bundles, settles outcomes, and runs one calibration period.
func Run(ctx context.Context, svc *service.Service, sim *provider.StaticProvider, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("simulate")

	log.Info(ctx, "starting simulation pass",
		logger.Int("slateSize", cfg.SlateSize),
		logger.Int("games", cfg.Games),
		logger.Any("seed", cfg.Seed),
		logger.String("period", cfg.Period),
	)

	// Step 1: generate the slate and feed the providers.
	slate := NewGenerator(cfg.Seed).Generate(cfg.SlateSize, cfg.Games)
	for id, data := range slate.Contexts {
		sim.SetContext(id, data)
	}

	// Step 2: score the whole slate concurrently.
	scored, err := svc.ScoreSlate(ctx, slate.Propositions)
	if err != nil {
		return nil, fmt.Errorf("score slate: %w", err)
	}
	stats.Scored = len(scored)
	for _, sp := range scored {
		if sp.NoSignal {
			stats.NoSignal++
		}
	}

	// Step 3: assemble bundles from the ranked pool.
	bundles, err := svc.BuildBundles(ctx, cfg.BundleSizes, cfg.MinConfidence)
	if err != nil {
		return nil, fmt.Errorf("build bundles: %w", err)
	}
	stats.BundlesBuilt = len(bundles)
	for _, b := range bundles {
		log.Info(ctx, "bundle assembled",
			logger.String("bundle", b.ID),
			logger.Int("legs", len(b.Legs)),
			logger.Float64("naive", b.NaiveConfidence),
			logger.Float64("penalty", b.CorrelationPenalty),
			logger.Float64("adjusted", b.AdjustedConfidence),
			logger.Int("warnings", len(b.Warnings)),
		)
	}

	// Step 4: settle outcomes.
	ids := make([]string, 0, len(slate.Propositions))
	for _, prop := range slate.Propositions {
		outcome := slate.Outcomes[prop.ID]
		sim.SetOutcome(prop.ID, outcome)
		if outcome.Hit {
			stats.OutcomeHits++
		}
		ids = append(ids, prop.ID)
	}

	// Step 5: calibrate evaluator weights from the settled slate.
	records, err := svc.Calibrate(ctx, cfg.Period, ids)
	if err != nil {
		return nil, fmt.Errorf("calibrate: %w", err)
	}
	stats.Adjustments = len(records)
	for _, rec := range records {
		if rec.Reason == model.ReasonCalibrated && rec.Delta != 0 {
			stats.WeightChanges++
		}
		log.Info(ctx, "weight adjustment",
			logger.String("evaluator", rec.Evaluator),
			logger.String("reason", rec.Reason),
			logger.Float64("oldWeight", rec.OldWeight),
			logger.Float64("newWeight", rec.NewWeight),
			logger.Float64("accuracy", rec.Accuracy),
			logger.Int("samples", rec.SampleSize),
		)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	return stats, nil
}

// displayFinalStats logs the pass summary.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var hitRate float64
	if stats.Scored > 0 {
		hitRate = float64(stats.OutcomeHits) / float64(stats.Scored)
	}
	log.Info(ctx, "simulation pass complete",
		logger.Int("scored", stats.Scored),
		logger.Int("noSignal", stats.NoSignal),
		logger.Int("bundles", stats.BundlesBuilt),
		logger.Int("outcomeHits", stats.OutcomeHits),
		logger.Float64("hitRate", hitRate),
		logger.Int("adjustments", stats.Adjustments),
		logger.Int("weightChanges", stats.WeightChanges),
		logger.String("duration", stats.Duration.String()),
	)
}
