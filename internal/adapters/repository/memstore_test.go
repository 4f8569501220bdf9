package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/propedge/propedge/internal/adapters/repository"
	"github.com/propedge/propedge/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func weight(name string, w float64, period string) model.EvaluatorWeight {
	return model.EvaluatorWeight{
		Evaluator: name,
		Weight:    w,
		Period:    period,
		Samples:   20,
		Accuracy:  0.6,
		UpdatedAt: time.Now().UTC(),
	}
}

func record(id, name, period string) model.AdjustmentRecord {
	return model.AdjustmentRecord{
		ID:        id,
		Evaluator: name,
		Period:    period,
		OldWeight: 1.0,
		NewWeight: 0.9,
		Delta:     -0.1,
		Reason:    model.ReasonCalibrated,
		CreatedAt: time.Now().UTC(),
	}
}

func TestMemoryWeightStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty in-memory weight store", t, func() {
		store := repository.NewMemoryWeightStore()

		Convey("Then the snapshot is empty and lookups miss", func() {
			snap, err := store.Snapshot(ctx)
			So(err, ShouldBeNil)
			So(snap, ShouldBeEmpty)

			_, err = store.GetWeight(ctx, "trend")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When a transaction commits", func() {
			tx, err := store.Begin(ctx)
			So(err, ShouldBeNil)
			So(tx.PutWeight(ctx, weight("trend", 0.8, "2026-01")), ShouldBeNil)
			So(tx.AppendRecord(ctx, record("r1", "trend", "2026-01")), ShouldBeNil)

			Convey("Writes are invisible until Commit", func() {
				snap, err := store.Snapshot(ctx)
				So(err, ShouldBeNil)
				So(snap, ShouldBeEmpty)
			})

			Convey("And visible after Commit", func() {
				So(tx.Commit(), ShouldBeNil)

				w, err := store.GetWeight(ctx, "trend")
				So(err, ShouldBeNil)
				So(w.Weight, ShouldAlmostEqual, 0.8, 1e-9)
				So(w.Period, ShouldEqual, "2026-01")

				history, err := store.History(ctx, "trend", 10)
				So(err, ShouldBeNil)
				So(len(history), ShouldEqual, 1)
			})
		})

		Convey("When a transaction rolls back", func() {
			tx, err := store.Begin(ctx)
			So(err, ShouldBeNil)
			So(tx.PutWeight(ctx, weight("trend", 0.8, "2026-01")), ShouldBeNil)
			So(tx.AppendRecord(ctx, record("r1", "trend", "2026-01")), ShouldBeNil)
			So(tx.Rollback(), ShouldBeNil)

			Convey("Then nothing landed", func() {
				snap, err := store.Snapshot(ctx)
				So(err, ShouldBeNil)
				So(snap, ShouldBeEmpty)

				history, err := store.History(ctx, "trend", 10)
				So(err, ShouldBeNil)
				So(history, ShouldBeEmpty)
			})
		})

		Convey("Only one transaction may be open", func() {
			tx, err := store.Begin(ctx)
			So(err, ShouldBeNil)

			_, err = store.Begin(ctx)
			So(errors.Is(err, repository.ErrTxBusy), ShouldBeTrue)

			So(tx.Rollback(), ShouldBeNil)
			tx2, err := store.Begin(ctx)
			So(err, ShouldBeNil)
			So(tx2.Commit(), ShouldBeNil)
		})

		Convey("A finished transaction refuses further use", func() {
			tx, err := store.Begin(ctx)
			So(err, ShouldBeNil)
			So(tx.Commit(), ShouldBeNil)

			So(errors.Is(tx.PutWeight(ctx, weight("trend", 1, "p")), repository.ErrTxDone), ShouldBeTrue)
			So(errors.Is(tx.Commit(), repository.ErrTxDone), ShouldBeTrue)
			So(errors.Is(tx.Rollback(), repository.ErrTxDone), ShouldBeTrue)
		})

		Convey("History returns newest first, bounded by limit", func() {
			tx, err := store.Begin(ctx)
			So(err, ShouldBeNil)
			So(tx.AppendRecord(ctx, record("r1", "trend", "2026-01")), ShouldBeNil)
			So(tx.AppendRecord(ctx, record("r2", "trend", "2026-02")), ShouldBeNil)
			So(tx.AppendRecord(ctx, record("r3", "usage", "2026-02")), ShouldBeNil)
			So(tx.Commit(), ShouldBeNil)

			history, err := store.History(ctx, "trend", 1)
			So(err, ShouldBeNil)
			So(len(history), ShouldEqual, 1)
			So(history[0].ID, ShouldEqual, "r2")
		})

		Convey("A closed store refuses everything", func() {
			So(store.Close(), ShouldBeNil)

			_, err := store.Snapshot(ctx)
			So(errors.Is(err, repository.ErrStoreClosed), ShouldBeTrue)
			_, err = store.Begin(ctx)
			So(errors.Is(err, repository.ErrStoreClosed), ShouldBeTrue)
		})
	})
}
