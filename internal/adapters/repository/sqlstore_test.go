package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/propedge/propedge/internal/adapters/repository"
	"github.com/propedge/propedge/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func openSQLiteStore(t *testing.T) *repository.SQLiteWeightStore {
	t.Helper()
	store, err := repository.NewSQLiteWeightStore(context.Background(), filepath.Join(t.TempDir(), "weights.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteWeightStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh sqlite weight store", t, func() {
		store := openSQLiteStore(t)

		Convey("Then it starts empty", func() {
			snap, err := store.Snapshot(ctx)
			So(err, ShouldBeNil)
			So(snap, ShouldBeEmpty)

			_, err = store.GetWeight(ctx, "trend")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("An empty path is rejected", func() {
			_, err := repository.NewSQLiteWeightStore(ctx, "")
			So(err, ShouldNotBeNil)
		})

		Convey("When a calibration transaction commits", func() {
			now := time.Now().UTC().Truncate(time.Millisecond)
			tx, err := store.Begin(ctx)
			So(err, ShouldBeNil)

			w := model.EvaluatorWeight{
				Evaluator: "trend",
				Weight:    0.85,
				Period:    "2026-01",
				Samples:   20,
				Accuracy:  0.55,
				UpdatedAt: now,
			}
			So(tx.PutWeight(ctx, w), ShouldBeNil)
			So(tx.AppendRecord(ctx, model.AdjustmentRecord{
				ID:         "r1",
				Evaluator:  "trend",
				Period:     "2026-01",
				OldWeight:  1.0,
				NewWeight:  0.85,
				Delta:      -0.15,
				Accuracy:   0.55,
				SampleSize: 20,
				Reason:     model.ReasonCalibrated,
				CreatedAt:  now,
			}), ShouldBeNil)
			So(tx.Commit(), ShouldBeNil)

			Convey("Then the weight round-trips", func() {
				got, err := store.GetWeight(ctx, "trend")
				So(err, ShouldBeNil)
				So(got.Weight, ShouldAlmostEqual, 0.85, 1e-9)
				So(got.Period, ShouldEqual, "2026-01")
				So(got.Samples, ShouldEqual, 20)
				So(got.UpdatedAt.Equal(now), ShouldBeTrue)
			})

			Convey("And the snapshot sees it", func() {
				snap, err := store.Snapshot(ctx)
				So(err, ShouldBeNil)
				So(snap["trend"], ShouldAlmostEqual, 0.85, 1e-9)
			})

			Convey("And the audit record round-trips", func() {
				history, err := store.History(ctx, "trend", 10)
				So(err, ShouldBeNil)
				So(len(history), ShouldEqual, 1)
				So(history[0].ID, ShouldEqual, "r1")
				So(history[0].Delta, ShouldAlmostEqual, -0.15, 1e-9)
				So(history[0].Reason, ShouldEqual, model.ReasonCalibrated)
			})

			Convey("And an upsert replaces the weight row", func() {
				tx2, err := store.Begin(ctx)
				So(err, ShouldBeNil)
				w.Weight = 0.6
				w.Period = "2026-02"
				So(tx2.PutWeight(ctx, w), ShouldBeNil)
				So(tx2.Commit(), ShouldBeNil)

				got, err := store.GetWeight(ctx, "trend")
				So(err, ShouldBeNil)
				So(got.Weight, ShouldAlmostEqual, 0.6, 1e-9)
				So(got.Period, ShouldEqual, "2026-02")
			})
		})

		Convey("When a transaction rolls back", func() {
			tx, err := store.Begin(ctx)
			So(err, ShouldBeNil)
			So(tx.PutWeight(ctx, model.EvaluatorWeight{
				Evaluator: "usage", Weight: 0.5, UpdatedAt: time.Now().UTC(),
			}), ShouldBeNil)
			So(tx.Rollback(), ShouldBeNil)

			Convey("Then nothing landed", func() {
				_, err := store.GetWeight(ctx, "usage")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
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
			So(tx2.Rollback(), ShouldBeNil)
		})

		Convey("A finished transaction refuses further use", func() {
			tx, err := store.Begin(ctx)
			So(err, ShouldBeNil)
			So(tx.Commit(), ShouldBeNil)

			_, err = tx.GetWeight(ctx, "trend")
			So(errors.Is(err, repository.ErrTxDone), ShouldBeTrue)
			So(errors.Is(tx.Commit(), repository.ErrTxDone), ShouldBeTrue)
		})
	})

	Convey("Given a store reopened from the same file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "weights.db")

		first, err := repository.NewSQLiteWeightStore(ctx, path)
		So(err, ShouldBeNil)

		tx, err := first.Begin(ctx)
		So(err, ShouldBeNil)
		So(tx.PutWeight(ctx, model.EvaluatorWeight{
			Evaluator: "trend", Weight: 0.7, Period: "2026-01", UpdatedAt: time.Now().UTC(),
		}), ShouldBeNil)
		So(tx.Commit(), ShouldBeNil)
		So(first.Close(), ShouldBeNil)

		Convey("Then state survives the restart", func() {
			second, err := repository.NewSQLiteWeightStore(ctx, path)
			So(err, ShouldBeNil)
			defer second.Close()

			got, err := second.GetWeight(ctx, "trend")
			So(err, ShouldBeNil)
			So(got.Weight, ShouldAlmostEqual, 0.7, 1e-9)
		})
	})
}
