// Package service provides the core engine facade: scoring propositions,
// assembling bundles and calibrating evaluator weights behind one API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/propedge/propedge/internal/adapters/pool"
	"github.com/propedge/propedge/internal/adapters/provider"
	"github.com/propedge/propedge/internal/adapters/repository"
	"github.com/propedge/propedge/internal/domain/bundle"
	"github.com/propedge/propedge/internal/domain/calibration"
	"github.com/propedge/propedge/internal/domain/correlation"
	"github.com/propedge/propedge/internal/domain/evaluator"
	"github.com/propedge/propedge/internal/domain/model"
	"github.com/propedge/propedge/internal/domain/scoring"
	"github.com/propedge/propedge/pkg/logger"
)

// Default pool read size for bundle assembly.
const defaultPoolLimit = 50

// ErrNotStarted is returned when the service is used before Start.
var ErrNotStarted = errors.New("service not started")

// Service implements the engine facade.
type Service struct {
	mu sync.RWMutex

	// Core components
	registry     *evaluator.Registry
	orchestrator *scoring.Orchestrator
	analyzer     *correlation.Analyzer
	builder      *bundle.Builder
	calibrator   *calibration.Calibrator
	scoringPool  *pool.Pool
	poolStore    repository.PoolStore
	weightStore  repository.WeightStore
	data         provider.DataProvider
	outcomes     provider.OutcomeProvider

	// Configuration
	workerCount   int
	poolLimit     int
	tiers         scoring.Tiers
	strengthTable *correlation.StrengthTable
	baseMagnitude float64
	penaltyFloor  float64
	calOptions    []calibration.Option

	// State
	started bool

	// Logging
	log logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRegistry sets the evaluator registry.
func WithRegistry(r *evaluator.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithWeightStore sets the evaluator weight store.
func WithWeightStore(store repository.WeightStore) Option {
	return func(s *Service) {
		if store != nil {
			s.weightStore = store
		}
	}
}

// WithPoolStore sets the ranked pool store.
func WithPoolStore(store repository.PoolStore) Option {
	return func(s *Service) {
		if store != nil {
			s.poolStore = store
		}
	}
}

// WithDataProvider sets the context source.
func WithDataProvider(p provider.DataProvider) Option {
	return func(s *Service) {
		if p != nil {
			s.data = p
		}
	}
}

// WithOutcomeProvider sets the outcome source used for calibration.
func WithOutcomeProvider(p provider.OutcomeProvider) Option {
	return func(s *Service) {
		if p != nil {
			s.outcomes = p
		}
	}
}

// WithWorkerCount sets the number of scoring workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithPoolLimit caps how many ranked propositions feed bundle assembly.
func WithPoolLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.poolLimit = limit
		}
	}
}

// WithTiers sets the recommendation tier table.
func WithTiers(t scoring.Tiers) Option {
	return func(s *Service) {
		if len(t) > 0 {
			s.tiers = t
		}
	}
}

// WithStrengthTable sets the correlation strength table.
func WithStrengthTable(t *correlation.StrengthTable) Option {
	return func(s *Service) {
		if t != nil {
			s.strengthTable = t
		}
	}
}

// WithPenalty tunes the correlation penalty rule.
func WithPenalty(baseMagnitude, floor float64) Option {
	return func(s *Service) {
		if baseMagnitude > 0 {
			s.baseMagnitude = baseMagnitude
		}
		if floor < 0 {
			s.penaltyFloor = floor
		}
	}
}

// WithCalibrationOptions forwards tuning options to the calibrator.
func WithCalibrationOptions(opts ...calibration.Option) Option {
	return func(s *Service) {
		s.calOptions = append(s.calOptions, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU(),
		poolLimit:     defaultPoolLimit,
		baseMagnitude: 0, // analyzer default applies
		penaltyFloor:  0, // analyzer default applies
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the engine components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.log == nil {
		s.log = logger.Get().Named("service")
	}
	if s.registry == nil {
		s.registry = evaluator.DefaultRegistry()
	}
	if s.weightStore == nil {
		s.weightStore = repository.NewMemoryWeightStore()
	}
	if s.poolStore == nil {
		s.poolStore = repository.NewTreapPool(ctx)
	}
	if s.data == nil {
		s.data = provider.NewStaticProvider()
	}
	if s.outcomes == nil {
		s.outcomes = provider.NewStaticProvider()
	}

	orchOpts := []scoring.Option{scoring.WithLogger(s.log.Named("scoring"))}
	if len(s.tiers) > 0 {
		orchOpts = append(orchOpts, scoring.WithTiers(s.tiers))
	}
	orchestrator, err := scoring.New(s.registry, orchOpts...)
	if err != nil {
		return fmt.Errorf("build orchestrator: %w", err)
	}
	s.orchestrator = orchestrator

	analyzerOpts := []correlation.Option{correlation.WithLogger(s.log.Named("correlation"))}
	if s.strengthTable != nil {
		analyzerOpts = append(analyzerOpts, correlation.WithTable(s.strengthTable))
	}
	if s.baseMagnitude > 0 {
		analyzerOpts = append(analyzerOpts, correlation.WithBaseMagnitude(s.baseMagnitude))
	}
	if s.penaltyFloor < 0 {
		analyzerOpts = append(analyzerOpts, correlation.WithPenaltyFloor(s.penaltyFloor))
	}
	s.analyzer = correlation.NewAnalyzer(analyzerOpts...)
	s.builder = bundle.NewBuilder(
		bundle.WithAnalyzer(s.analyzer),
		bundle.WithLogger(s.log.Named("bundle")),
	)

	calOpts := append([]calibration.Option{calibration.WithLogger(s.log.Named("calibration"))}, s.calOptions...)
	calibrator, err := calibration.NewCalibrator(s.weightStore, calOpts...)
	if err != nil {
		return fmt.Errorf("build calibrator: %w", err)
	}
	s.calibrator = calibrator

	s.scoringPool = pool.New(
		pool.WithWorkers(s.workerCount),
		pool.WithLogger(s.log.Named("pool")),
	)

	s.started = true
	s.log.Info(ctx, "engine started",
		logger.Int("evaluators", s.registry.Len()),
		logger.Int("workers", s.workerCount),
	)
	return nil
}

// Stop releases the engine's resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.poolStore.Clear(ctx)
	if err := s.weightStore.Close(); err != nil {
		s.log.Warn(ctx, "closing weight store", logger.Error(err))
	}
	s.started = false
	s.log.Info(ctx, "engine stopped")
}

// Score scores a single proposition against a materialized context and
// records the result in the ranked pool.
func (s *Service) Score(ctx context.Context, prop model.Proposition, data model.Context) (model.ScoredProposition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.ScoredProposition{}, ErrNotStarted
	}

	weights, err := s.weightStore.Snapshot(ctx)
	if err != nil {
		return model.ScoredProposition{}, fmt.Errorf("snapshot weights: %w", err)
	}
	sp, err := s.orchestrator.Score(ctx, prop, data, weights)
	if err != nil {
		return model.ScoredProposition{}, err
	}
	if err := s.poolStore.Put(ctx, sp); err != nil {
		return model.ScoredProposition{}, fmt.Errorf("store scored proposition: %w", err)
	}
	return sp, nil
}

// ScoreSlate resolves contexts for a batch of propositions, scores them
// concurrently under one weight snapshot, and records the results. A
// proposition without a context is scored against an empty one, which
// yields an explicit no-signal result rather than an error.
func (s *Service) ScoreSlate(ctx context.Context, props []model.Proposition) ([]model.ScoredProposition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}

	// Resolve every context before scoring begins; workers never touch I/O.
	jobs := make([]pool.Job, 0, len(props))
	for _, prop := range props {
		data, err := s.data.GetContext(ctx, prop.ID)
		if errors.Is(err, provider.ErrNoContext) {
			s.log.Warn(ctx, "no context for proposition",
				logger.String("proposition", prop.ID),
			)
			data = model.Context{}
		} else if err != nil {
			return nil, fmt.Errorf("resolve context for %s: %w", prop.ID, err)
		}
		jobs = append(jobs, pool.Job{Proposition: prop, Data: data})
	}

	weights, err := s.weightStore.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot weights: %w", err)
	}
	scored, err := s.scoringPool.ScoreAll(ctx, jobs, weights, s.orchestrator)
	if err != nil {
		return nil, err
	}
	for _, sp := range scored {
		if err := s.poolStore.Put(ctx, sp); err != nil {
			return nil, fmt.Errorf("store scored proposition: %w", err)
		}
	}
	return scored, nil
}

// Complement returns the canonical opposite-side transform of a scored
// proposition.
func (s *Service) Complement(sp model.ScoredProposition) model.ScoredProposition {
	return s.orchestrator.Complement(sp)
}

// BuildBundles assembles bundles from the ranked pool.
func (s *Service) BuildBundles(ctx context.Context, sizes []int, minConfidence int) ([]model.Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}

	candidates, err := s.poolStore.TopN(ctx, s.poolLimit)
	if err != nil {
		return nil, fmt.Errorf("read ranked pool: %w", err)
	}
	return s.builder.Build(ctx, candidates, sizes, minConfidence)
}

// Calibrate gathers outcomes for the given propositions and runs one
// calibration period over them.
func (s *Service) Calibrate(ctx context.Context, period string, propositionIDs []string) ([]model.AdjustmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}

	samples := make([]calibration.Sample, 0, len(propositionIDs))
	for _, id := range propositionIDs {
		sp, err := s.poolStore.Get(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn(ctx, "no scored proposition for calibration",
				logger.String("proposition", id),
			)
			continue
		} else if err != nil {
			return nil, fmt.Errorf("load scored proposition %s: %w", id, err)
		}
		outcome, err := s.outcomes.GetOutcome(ctx, id)
		if errors.Is(err, provider.ErrNoOutcome) {
			s.log.Warn(ctx, "no outcome for proposition",
				logger.String("proposition", id),
			)
			continue
		} else if err != nil {
			return nil, fmt.Errorf("load outcome for %s: %w", id, err)
		}
		samples = append(samples, calibration.Sample{Scored: sp, Outcome: outcome})
	}
	return s.calibrator.Calibrate(ctx, period, samples)
}

// CalibrateSamples runs one calibration period over already-joined
// samples, bypassing the providers.
func (s *Service) CalibrateSamples(ctx context.Context, period string, samples []calibration.Sample) ([]model.AdjustmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.calibrator.Calibrate(ctx, period, samples)
}

// Weights returns the current persisted weight snapshot.
func (s *Service) Weights(ctx context.Context) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.weightStore.Snapshot(ctx)
}

// PoolSize returns the number of scored propositions currently held.
func (s *Service) PoolSize(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return 0
	}
	return s.poolStore.Count(ctx)
}
