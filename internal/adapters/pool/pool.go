// Package pool runs proposition scoring across a bounded set of workers.
//
// Scoring is embarrassingly parallel: evaluators are pure reads of an
// already-materialized context and share no mutable state. All inputs are
// resolved into memory before jobs are submitted, so no worker ever
// suspends on I/O.
package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/propedge/propedge/internal/domain/model"
	"github.com/propedge/propedge/internal/domain/scoring"
	"github.com/propedge/propedge/pkg/logger"
	"github.com/propedge/propedge/pkg/metrics"
)

// Job is one proposition with its materialized context.
type Job struct {
	Proposition model.Proposition
	Data        model.Context
}

// Scorer computes a scored proposition for one job.
type Scorer interface {
	Score(ctx context.Context, prop model.Proposition, data model.Context, weights scoring.Snapshot) (model.ScoredProposition, error)
}

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithWorkers sets the number of scoring workers.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(log logger.Logger) Option {
	return func(p *Pool) {
		if log != nil {
			p.log = log
		}
	}
}

// Pool fans scoring jobs out to a fixed number of workers.
type Pool struct {
	workers int
	log     logger.Logger
}

// New creates a pool sized to the machine by default.
func New(opts ...Option) *Pool {
	p := &Pool{
		workers: runtime.NumCPU(),
		log:     logger.Get().Named("pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ScoreAll scores every job under the shared weight snapshot and returns
// results in input order. A malformed proposition is dropped with a
// warning rather than failing the batch; any other failure, including a
// caller-imposed timeout, aborts the whole pass with no partial output.
func (p *Pool) ScoreAll(ctx context.Context, jobs []Job, weights scoring.Snapshot, scorer Scorer) ([]model.ScoredProposition, error) {
	if len(jobs) == 0 {
		return nil, nil
	}

	type indexed struct {
		idx int
		job Job
	}

	metrics.UpdatePoolWorkers(p.workers)
	results := make([]*model.ScoredProposition, len(jobs))
	jobCh := make(chan indexed)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobCh)
		for i, job := range jobs {
			select {
			case jobCh <- indexed{idx: i, job: job}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < p.workers; w++ {
		g.Go(func() error {
			for item := range jobCh {
				sp, err := scorer.Score(ctx, item.job.Proposition, item.job.Data, weights)
				if errors.Is(err, model.ErrInvalidProposition) {
					p.log.Warn(ctx, "dropping malformed proposition",
						logger.String("proposition", item.job.Proposition.ID),
						logger.Error(err),
					)
					continue
				}
				if err != nil {
					return fmt.Errorf("score proposition %s: %w", item.job.Proposition.ID, err)
				}
				results[item.idx] = &sp
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]model.ScoredProposition, 0, len(results))
	for _, sp := range results {
		if sp != nil {
			out = append(out, *sp)
		}
	}
	return out, nil
}
