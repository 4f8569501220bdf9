package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // cgo-free sqlite driver

	"github.com/propedge/propedge/internal/domain/model"
)

// SQLite schema for weight state and the append-only audit trail.
const sqliteDDL = `
CREATE TABLE IF NOT EXISTS evaluator_weight (
	evaluator  TEXT PRIMARY KEY,
	weight     REAL NOT NULL,
	period     TEXT NOT NULL DEFAULT '',
	samples    INTEGER NOT NULL DEFAULT 0,
	accuracy   REAL NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS weight_adjustment (
	id             TEXT PRIMARY KEY,
	evaluator      TEXT NOT NULL,
	period         TEXT NOT NULL,
	old_weight     REAL NOT NULL,
	new_weight     REAL NOT NULL,
	delta          REAL NOT NULL,
	accuracy       REAL NOT NULL,
	overconfidence REAL NOT NULL,
	sample_size    INTEGER NOT NULL,
	reason         TEXT NOT NULL,
	created_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_adjustment_evaluator
	ON weight_adjustment (evaluator, created_at);
`

const (
	upsertWeightSQL = `INSERT INTO evaluator_weight
		(evaluator, weight, period, samples, accuracy, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(evaluator) DO UPDATE SET
			weight = excluded.weight,
			period = excluded.period,
			samples = excluded.samples,
			accuracy = excluded.accuracy,
			updated_at = excluded.updated_at`

	insertRecordSQL = `INSERT INTO weight_adjustment
		(id, evaluator, period, old_weight, new_weight, delta,
		 accuracy, overconfidence, sample_size, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectWeightSQL = `SELECT evaluator, weight, period, samples, accuracy, updated_at
		FROM evaluator_weight WHERE evaluator = ?`
)

// SQLiteWeightStore implements WeightStore over a local SQLite file. The
// calibration transaction maps onto one database transaction, which makes
// the commit-or-rollback guarantee the engine's native behavior.
type SQLiteWeightStore struct {
	db     *sql.DB
	mu     sync.Mutex
	txOpen bool
}

// NewSQLiteWeightStore opens (and if needed initializes) the store at path.
func NewSQLiteWeightStore(ctx context.Context, path string) (*SQLiteWeightStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path not specified")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteWeightStore{db: db}, nil
}

// Snapshot implements WeightStore.
func (s *SQLiteWeightStore) Snapshot(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT evaluator, weight FROM evaluator_weight`)
	if err != nil {
		return nil, fmt.Errorf("snapshot weights: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var name string
		var weight float64
		if err := rows.Scan(&name, &weight); err != nil {
			return nil, fmt.Errorf("scan weight: %w", err)
		}
		out[name] = weight
	}
	return out, rows.Err()
}

// GetWeight implements WeightStore.
func (s *SQLiteWeightStore) GetWeight(ctx context.Context, evaluator string) (model.EvaluatorWeight, error) {
	return scanWeight(s.db.QueryRowContext(ctx, selectWeightSQL, evaluator))
}

// History implements WeightStore, newest records first.
func (s *SQLiteWeightStore) History(ctx context.Context, evaluator string, limit int) ([]model.AdjustmentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, evaluator, period, old_weight, new_weight, delta,
			accuracy, overconfidence, sample_size, reason, created_at
		FROM weight_adjustment WHERE evaluator = ?
		ORDER BY created_at DESC, id LIMIT ?`, evaluator, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []model.AdjustmentRecord
	for rows.Next() {
		var rec model.AdjustmentRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.Evaluator, &rec.Period, &rec.OldWeight, &rec.NewWeight,
			&rec.Delta, &rec.Accuracy, &rec.Overconfidence, &rec.SampleSize, &rec.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Begin implements WeightStore. Only one calibration transaction may be
// open at a time.
func (s *SQLiteWeightStore) Begin(ctx context.Context) (Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.txOpen {
		return nil, ErrTxBusy
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	s.txOpen = true
	return &sqliteTx{tx: tx, release: s.release}, nil
}

func (s *SQLiteWeightStore) release() {
	s.mu.Lock()
	s.txOpen = false
	s.mu.Unlock()
}

// Close implements WeightStore.
func (s *SQLiteWeightStore) Close() error {
	return s.db.Close()
}

// sqliteTx wraps one database transaction as a calibration cycle.
type sqliteTx struct {
	tx      *sql.Tx
	release func()
	done    bool
}

func (t *sqliteTx) GetWeight(ctx context.Context, evaluator string) (model.EvaluatorWeight, error) {
	if t.done {
		return model.EvaluatorWeight{}, ErrTxDone
	}
	return scanWeight(t.tx.QueryRowContext(ctx, selectWeightSQL, evaluator))
}

func (t *sqliteTx) PutWeight(ctx context.Context, w model.EvaluatorWeight) error {
	if t.done {
		return ErrTxDone
	}
	_, err := t.tx.ExecContext(ctx, upsertWeightSQL,
		w.Evaluator, w.Weight, w.Period, w.Samples, w.Accuracy,
		w.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert weight: %w", err)
	}
	return nil
}

func (t *sqliteTx) AppendRecord(ctx context.Context, rec model.AdjustmentRecord) error {
	if t.done {
		return ErrTxDone
	}
	_, err := t.tx.ExecContext(ctx, insertRecordSQL,
		rec.ID, rec.Evaluator, rec.Period, rec.OldWeight, rec.NewWeight, rec.Delta,
		rec.Accuracy, rec.Overconfidence, rec.SampleSize, rec.Reason,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

func (t *sqliteTx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	defer t.release()
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	defer t.release()
	return t.tx.Rollback()
}

// scanWeight reads one evaluator weight row.
func scanWeight(row *sql.Row) (model.EvaluatorWeight, error) {
	var w model.EvaluatorWeight
	var updatedAt string
	err := row.Scan(&w.Evaluator, &w.Weight, &w.Period, &w.Samples, &w.Accuracy, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.EvaluatorWeight{}, ErrNotFound
	}
	if err != nil {
		return model.EvaluatorWeight{}, fmt.Errorf("scan weight: %w", err)
	}
	w.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return w, nil
}
