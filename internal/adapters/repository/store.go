// Package repository defines the persistence contracts for scored
// propositions, evaluator weights and the calibration audit trail.
package repository

import (
	"context"

	"github.com/propedge/propedge/internal/domain/model"
)

// PoolStore keeps scored propositions ranked by confidence for bundle
// assembly. Ordering: confidence DESC, then proposition id ASC.
type PoolStore interface {
	// Put inserts or replaces the scored proposition by id.
	Put(ctx context.Context, sp model.ScoredProposition) error

	// Get returns the scored proposition for an id.
	// Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (model.ScoredProposition, error)

	// TopN returns the n highest-confidence propositions in rank order.
	TopN(ctx context.Context, n int) ([]model.ScoredProposition, error)

	// Count returns the number of propositions in the pool.
	Count(ctx context.Context) int

	// Clear empties the pool between scoring sessions.
	Clear(ctx context.Context)
}

// WeightStore persists evaluator weights and append-only adjustment
// records. Calibration mutates weights exclusively through a Tx, which is
// a single-writer read-modify-write cycle: at most one transaction is
// open at a time and a commit is atomic.
type WeightStore interface {
	// Snapshot returns every persisted evaluator weight as a plain map,
	// the immutable view a scoring session reads once.
	Snapshot(ctx context.Context) (map[string]float64, error)

	// GetWeight returns the stored weight state for an evaluator.
	// Returns ErrNotFound for evaluators never calibrated.
	GetWeight(ctx context.Context, evaluator string) (model.EvaluatorWeight, error)

	// History returns the most recent adjustment records for an
	// evaluator, newest first, up to limit.
	History(ctx context.Context, evaluator string, limit int) ([]model.AdjustmentRecord, error)

	// Begin opens the single-writer calibration transaction.
	Begin(ctx context.Context) (Tx, error)

	// Close releases the underlying storage.
	Close() error
}

// Tx is one atomic calibration cycle over the weight store. Either every
// write in the cycle commits or none does.
type Tx interface {
	GetWeight(ctx context.Context, evaluator string) (model.EvaluatorWeight, error)
	PutWeight(ctx context.Context, w model.EvaluatorWeight) error
	AppendRecord(ctx context.Context, rec model.AdjustmentRecord) error
	Commit() error
	Rollback() error
}
