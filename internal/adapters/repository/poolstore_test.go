package repository_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/propedge/propedge/internal/adapters/repository"
	"github.com/propedge/propedge/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func scored(id string, confidence int) model.ScoredProposition {
	return model.ScoredProposition{
		Proposition: model.Proposition{
			ID:       id,
			Entity:   "entity-" + id,
			Category: "points",
			Line:     20,
			Side:     model.SideOver,
		},
		Confidence: confidence,
	}
}

func TestTreapPool(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty treap pool", t, func() {
		pool := repository.NewTreapPool(ctx)

		Convey("Then it starts empty", func() {
			So(pool.Count(ctx), ShouldEqual, 0)
			top, err := pool.TopN(ctx, 10)
			So(err, ShouldBeNil)
			So(top, ShouldBeEmpty)
		})

		Convey("A proposition without an id is rejected", func() {
			err := pool.Put(ctx, model.ScoredProposition{})
			So(errors.Is(err, model.ErrInvalidProposition), ShouldBeTrue)
		})

		Convey("A missing id is not found", func() {
			_, err := pool.Get(ctx, "ghost")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When propositions are inserted", func() {
			So(pool.Put(ctx, scored("a", 70)), ShouldBeNil)
			So(pool.Put(ctx, scored("b", 85)), ShouldBeNil)
			So(pool.Put(ctx, scored("c", 60)), ShouldBeNil)
			So(pool.Put(ctx, scored("d", 85)), ShouldBeNil)

			Convey("Then TopN ranks by confidence desc, id asc on ties", func() {
				top, err := pool.TopN(ctx, 10)
				So(err, ShouldBeNil)
				ids := make([]string, len(top))
				for i, sp := range top {
					ids[i] = sp.Proposition.ID
				}
				So(ids, ShouldResemble, []string{"b", "d", "a", "c"})
			})

			Convey("And TopN honors the limit", func() {
				top, err := pool.TopN(ctx, 2)
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 2)
				So(top[0].Proposition.ID, ShouldEqual, "b")
				So(top[1].Proposition.ID, ShouldEqual, "d")
			})

			Convey("And Get returns the stored value", func() {
				sp, err := pool.Get(ctx, "c")
				So(err, ShouldBeNil)
				So(sp.Confidence, ShouldEqual, 60)
			})

			Convey("And re-putting an id re-ranks it", func() {
				So(pool.Put(ctx, scored("c", 95)), ShouldBeNil)
				So(pool.Count(ctx), ShouldEqual, 4)

				top, err := pool.TopN(ctx, 1)
				So(err, ShouldBeNil)
				So(top[0].Proposition.ID, ShouldEqual, "c")
			})

			Convey("And Clear empties the pool", func() {
				pool.Clear(ctx)
				So(pool.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When a large shuffled set is inserted", func() {
			const n = 500
			rng := rand.New(rand.NewSource(7))
			for _, i := range rng.Perm(n) {
				id := fmt.Sprintf("prop-%04d", i)
				So(pool.Put(ctx, scored(id, i/5)), ShouldBeNil)
			}

			Convey("Then the full ranking is monotone", func() {
				top, err := pool.TopN(ctx, n)
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, n)
				for i := 1; i < len(top); i++ {
					prev, cur := top[i-1], top[i]
					if prev.Confidence == cur.Confidence {
						So(prev.Proposition.ID, ShouldBeLessThan, cur.Proposition.ID)
					} else {
						So(prev.Confidence, ShouldBeGreaterThan, cur.Confidence)
					}
				}
			})
		})

		Convey("When accessed concurrently", func() {
			var wg sync.WaitGroup
			for w := 0; w < 8; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < 50; i++ {
						id := fmt.Sprintf("w%d-%d", w, i)
						_ = pool.Put(ctx, scored(id, i))
						_, _ = pool.TopN(ctx, 5)
						_, _ = pool.Get(ctx, id)
					}
				}(w)
			}
			wg.Wait()

			Convey("Then every write landed", func() {
				So(pool.Count(ctx), ShouldEqual, 400)
			})
		})
	})
}
