// Package bundle assembles diversified bundles from a pool of scored
// propositions.
package bundle

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/propedge/propedge/internal/domain/correlation"
	"github.com/propedge/propedge/internal/domain/model"
	"github.com/propedge/propedge/pkg/logger"
	"github.com/propedge/propedge/pkg/metrics"
)

// Bundle size bounds.
const (
	minBundleSize = 2
	maxBundleSize = 5
)

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithAnalyzer sets the correlation analyzer consulted per candidate.
func WithAnalyzer(a *correlation.Analyzer) Option {
	return func(b *Builder) {
		if a != nil {
			b.analyzer = a
		}
	}
}

// WithLogger sets a custom logger for the builder.
func WithLogger(log logger.Logger) Option {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

// Builder turns a scored pool into correlation-adjusted bundles.
type Builder struct {
	analyzer *correlation.Analyzer
	log      logger.Logger
}

// NewBuilder creates a builder with a default correlation analyzer.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		analyzer: correlation.NewAnalyzer(),
		log:      logger.Get().Named("bundle"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build filters the pool by minConfidence and assembles one bundle per
// requested size. Legs are drawn round-robin across distinct games so the
// output never concentrates in a single favorable context, and a leg is
// consumed once used so bundles do not overlap. No two legs of a bundle
// may reference the same entity, which also forbids carrying both sides
// of one threshold.
//
// The naive combined confidence is the arithmetic mean of the legs'
// confidences; the correlation penalty is then applied on top and the
// result clamped to [0, 100].
func (b *Builder) Build(ctx context.Context, pool []model.ScoredProposition, sizes []int, minConfidence int) ([]model.Bundle, error) {
	if len(sizes) == 0 {
		return nil, fmt.Errorf("%w: no target sizes", ErrInvalidSize)
	}
	for _, size := range sizes {
		if size < minBundleSize || size > maxBundleSize {
			return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidSize, size, minBundleSize, maxBundleSize)
		}
	}
	if minConfidence < 0 || minConfidence > 100 {
		return nil, fmt.Errorf("%w: min confidence %d", ErrInvalidThreshold, minConfidence)
	}

	candidates := eligible(pool, minConfidence)
	if len(candidates) == 0 {
		return nil, nil
	}
	picker := newGamePicker(candidates)

	bundles := make([]model.Bundle, 0, len(sizes))
	for _, size := range sizes {
		legs := picker.pick(size)
		if len(legs) < size {
			b.log.Warn(ctx, "not enough diverse legs for bundle",
				logger.Int("wanted", size),
				logger.Int("available", len(legs)),
			)
			picker.restore(legs)
			continue
		}

		naive := meanConfidence(legs)
		penalty, warnings := b.analyzer.Analyze(ctx, legs)
		adjusted := math.Min(100, math.Max(0, naive+penalty))

		bundles = append(bundles, model.Bundle{
			ID:                 uuid.NewString(),
			Legs:               legs,
			NaiveConfidence:    naive,
			CorrelationPenalty: penalty,
			AdjustedConfidence: adjusted,
			Warnings:           warnings,
			CreatedAt:          time.Now().UTC(),
		})
		metrics.RecordBundleBuilt()
	}
	return bundles, nil
}

// eligible filters and orders the pool: confidence at or above the
// threshold, real signal only, confidence descending with id ascending on
// ties for determinism.
func eligible(pool []model.ScoredProposition, minConfidence int) []model.ScoredProposition {
	out := make([]model.ScoredProposition, 0, len(pool))
	for _, sp := range pool {
		if sp.NoSignal || sp.Confidence < minConfidence {
			continue
		}
		out = append(out, sp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Proposition.ID < out[j].Proposition.ID
	})
	return out
}

func meanConfidence(legs []model.ScoredProposition) float64 {
	var sum float64
	for _, leg := range legs {
		sum += float64(leg.Confidence)
	}
	return sum / float64(len(legs))
}

// gamePicker deals candidates round-robin across games, consuming each
// leg at most once. The cursor persists across picks so consecutive
// bundles cover different games.
type gamePicker struct {
	games  []string                             // distinct games, best candidate first
	byGame map[string][]model.ScoredProposition // per-game queues, best first
	cursor int
}

func newGamePicker(candidates []model.ScoredProposition) *gamePicker {
	p := &gamePicker{byGame: make(map[string][]model.ScoredProposition)}
	for _, c := range candidates {
		game := c.Proposition.GameID
		if _, ok := p.byGame[game]; !ok {
			p.games = append(p.games, game)
		}
		p.byGame[game] = append(p.byGame[game], c)
	}
	return p
}

// pick draws up to size legs, one game at a time, skipping legs that
// would break entity diversity within the bundle.
func (p *gamePicker) pick(size int) []model.ScoredProposition {
	legs := make([]model.ScoredProposition, 0, size)
	entities := make(map[string]struct{}, size)
	misses := 0
	for len(legs) < size && misses < len(p.games) {
		game := p.games[p.cursor%len(p.games)]
		p.cursor++
		leg, ok := p.take(game, entities)
		if !ok {
			misses++
			continue
		}
		misses = 0
		entities[leg.Proposition.Entity] = struct{}{}
		legs = append(legs, leg)
	}
	return legs
}

// take pops the best remaining candidate of a game whose entity is not
// already in the bundle.
func (p *gamePicker) take(game string, entities map[string]struct{}) (model.ScoredProposition, bool) {
	queue := p.byGame[game]
	for i, c := range queue {
		if _, dup := entities[c.Proposition.Entity]; dup {
			continue
		}
		p.byGame[game] = append(queue[:i:i], queue[i+1:]...)
		return c, true
	}
	return model.ScoredProposition{}, false
}

// restore returns unused legs of an abandoned bundle to their queues.
func (p *gamePicker) restore(legs []model.ScoredProposition) {
	for _, leg := range legs {
		game := leg.Proposition.GameID
		p.byGame[game] = append(p.byGame[game], leg)
		sort.SliceStable(p.byGame[game], func(i, j int) bool {
			a, b := p.byGame[game][i], p.byGame[game][j]
			if a.Confidence != b.Confidence {
				return a.Confidence > b.Confidence
			}
			return a.Proposition.ID < b.Proposition.ID
		})
	}
}
