package repository

import (
	"context"
	"sync"

	"github.com/propedge/propedge/internal/domain/model"
)

// MemoryWeightStore implements WeightStore in process memory. Writes are
// staged inside the transaction and only become visible on Commit, so a
// rolled-back calibration leaves the store untouched.
type MemoryWeightStore struct {
	mu      sync.Mutex
	weights map[string]model.EvaluatorWeight
	records []model.AdjustmentRecord
	txOpen  bool
	closed  bool
}

// NewMemoryWeightStore creates an empty in-memory weight store.
func NewMemoryWeightStore() *MemoryWeightStore {
	return &MemoryWeightStore{weights: make(map[string]model.EvaluatorWeight)}
}

// Snapshot implements WeightStore.
func (s *MemoryWeightStore) Snapshot(_ context.Context) (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	out := make(map[string]float64, len(s.weights))
	for name, w := range s.weights {
		out[name] = w.Weight
	}
	return out, nil
}

// GetWeight implements WeightStore.
func (s *MemoryWeightStore) GetWeight(_ context.Context, evaluator string) (model.EvaluatorWeight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.EvaluatorWeight{}, ErrStoreClosed
	}
	w, ok := s.weights[evaluator]
	if !ok {
		return model.EvaluatorWeight{}, ErrNotFound
	}
	return w, nil
}

// History implements WeightStore, newest records first.
func (s *MemoryWeightStore) History(_ context.Context, evaluator string, limit int) ([]model.AdjustmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	out := make([]model.AdjustmentRecord, 0, limit)
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		if s.records[i].Evaluator == evaluator {
			out = append(out, s.records[i])
		}
	}
	return out, nil
}

// Begin implements WeightStore. Only one transaction may be open.
func (s *MemoryWeightStore) Begin(_ context.Context) (Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	if s.txOpen {
		return nil, ErrTxBusy
	}
	s.txOpen = true
	return &memoryTx{
		store:  s,
		staged: make(map[string]model.EvaluatorWeight),
	}, nil
}

// Close implements WeightStore.
func (s *MemoryWeightStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// memoryTx stages calibration writes until Commit.
type memoryTx struct {
	store   *MemoryWeightStore
	staged  map[string]model.EvaluatorWeight
	appends []model.AdjustmentRecord
	done    bool
}

func (t *memoryTx) GetWeight(_ context.Context, evaluator string) (model.EvaluatorWeight, error) {
	if t.done {
		return model.EvaluatorWeight{}, ErrTxDone
	}
	if w, ok := t.staged[evaluator]; ok {
		return w, nil
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	w, ok := t.store.weights[evaluator]
	if !ok {
		return model.EvaluatorWeight{}, ErrNotFound
	}
	return w, nil
}

func (t *memoryTx) PutWeight(_ context.Context, w model.EvaluatorWeight) error {
	if t.done {
		return ErrTxDone
	}
	t.staged[w.Evaluator] = w
	return nil
}

func (t *memoryTx) AppendRecord(_ context.Context, rec model.AdjustmentRecord) error {
	if t.done {
		return ErrTxDone
	}
	t.appends = append(t.appends, rec)
	return nil
}

func (t *memoryTx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for name, w := range t.staged {
		t.store.weights[name] = w
	}
	t.store.records = append(t.store.records, t.appends...)
	t.store.txOpen = false
	return nil
}

func (t *memoryTx) Rollback() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.txOpen = false
	return nil
}
