package scoring_test

import (
	"context"
	"errors"
	"testing"

	"github.com/propedge/propedge/internal/domain/evaluator"
	"github.com/propedge/propedge/internal/domain/model"
	"github.com/propedge/propedge/internal/domain/scoring"
	"github.com/propedge/propedge/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// stubEvaluator returns a fixed result, abstains, or panics on demand.
type stubEvaluator struct {
	name     string
	score    float64
	abstains bool
	panics   bool
}

func (s *stubEvaluator) Name() string { return s.name }

func (s *stubEvaluator) Analyze(_ context.Context, _ model.Proposition, _ model.Context) evaluator.Result {
	if s.panics {
		panic("stub failure")
	}
	if s.abstains {
		return evaluator.Abstain(s.name, "stubbed abstention")
	}
	return evaluator.Score(s.name, s.score)
}

func validProposition() model.Proposition {
	return model.Proposition{
		ID:       "prop-1",
		Entity:   "J. Carter",
		Category: "points",
		Line:     22.5,
		Side:     model.SideOver,
		Opponent: "Wolves",
		GameID:   "game-1",
	}
}

func TestOrchestrator_Score(t *testing.T) {
	ctx := context.Background()

	Convey("Given an orchestrator over three scoring evaluators", t, func() {
		registry := evaluator.NewRegistry(
			&stubEvaluator{name: "alpha", score: 70},
			&stubEvaluator{name: "beta", score: 80},
			&stubEvaluator{name: "gamma", score: 60},
		)
		orch, err := scoring.New(registry)
		So(err, ShouldBeNil)

		Convey("When scoring with equal weights", func() {
			sp, err := orch.Score(ctx, validProposition(), model.Context{}, nil)

			Convey("Then confidence is the plain mean", func() {
				So(err, ShouldBeNil)
				So(sp.Confidence, ShouldEqual, 70)
				So(sp.NoSignal, ShouldBeFalse)
				So(sp.Tier, ShouldEqual, "strong")
				So(len(sp.Contributors), ShouldEqual, 3)
			})

			Convey("And contributors are ranked by influence", func() {
				So(sp.Contributors[0].Evaluator, ShouldEqual, "beta")
				So(sp.Drivers(), ShouldResemble, []string{"beta", "alpha"})
			})

			Convey("And contribution percentages sum to 100", func() {
				var total float64
				for _, c := range sp.Contributors {
					total += c.Percent
				}
				So(total, ShouldAlmostEqual, 100, 1e-9)
			})
		})

		Convey("When one evaluator is outweighed", func() {
			weights := scoring.Snapshot{"alpha": 1, "beta": 3, "gamma": 1}
			sp, err := orch.Score(ctx, validProposition(), model.Context{}, weights)

			Convey("Then the weighted mean prevails", func() {
				So(err, ShouldBeNil)
				// (70 + 240 + 60) / 5 = 74
				So(sp.Confidence, ShouldEqual, 74)
			})
		})

		Convey("When a weight is zero", func() {
			weights := scoring.Snapshot{"gamma": 0}
			sp, err := orch.Score(ctx, validProposition(), model.Context{}, weights)

			Convey("Then that evaluator never runs", func() {
				So(err, ShouldBeNil)
				So(len(sp.Contributors), ShouldEqual, 2)
				So(sp.Confidence, ShouldEqual, 75)
			})
		})
	})

	Convey("Given an orchestrator where one evaluator abstains", t, func() {
		registry := evaluator.NewRegistry(
			&stubEvaluator{name: "alpha", score: 70},
			&stubEvaluator{name: "beta", score: 80},
			&stubEvaluator{name: "gamma", abstains: true},
		)
		orch, err := scoring.New(registry)
		So(err, ShouldBeNil)

		Convey("When scoring", func() {
			sp, err := orch.Score(ctx, validProposition(), model.Context{}, nil)

			Convey("Then the abstainer is excluded from both sums", func() {
				So(err, ShouldBeNil)
				So(sp.Confidence, ShouldEqual, 75)
				So(len(sp.Contributors), ShouldEqual, 2)
			})
		})
	})

	Convey("Given an orchestrator where one evaluator panics", t, func() {
		registry := evaluator.NewRegistry(
			&stubEvaluator{name: "alpha", score: 70},
			&stubEvaluator{name: "boom", panics: true},
		)
		orch, err := scoring.New(registry)
		So(err, ShouldBeNil)

		Convey("When scoring", func() {
			sp, err := orch.Score(ctx, validProposition(), model.Context{}, nil)

			Convey("Then the panic is isolated as an abstention", func() {
				So(err, ShouldBeNil)
				So(sp.Confidence, ShouldEqual, 70)
				So(len(sp.Contributors), ShouldEqual, 1)
				So(sp.Contributors[0].Evaluator, ShouldEqual, "alpha")
			})
		})
	})

	Convey("Given an orchestrator where every evaluator abstains", t, func() {
		registry := evaluator.NewRegistry(
			&stubEvaluator{name: "alpha", abstains: true},
			&stubEvaluator{name: "beta", abstains: true},
		)
		orch, err := scoring.New(registry)
		So(err, ShouldBeNil)

		Convey("When scoring", func() {
			sp, err := orch.Score(ctx, validProposition(), model.Context{}, nil)

			Convey("Then the result is an explicit no-signal at the midpoint", func() {
				So(err, ShouldBeNil)
				So(sp.Confidence, ShouldEqual, 50)
				So(sp.NoSignal, ShouldBeTrue)
				So(sp.Tier, ShouldEqual, "avoid")
				So(sp.Contributors, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a malformed proposition", t, func() {
		orch, err := scoring.New(evaluator.NewRegistry(&stubEvaluator{name: "alpha", score: 70}))
		So(err, ShouldBeNil)

		Convey("When scoring a proposition without an entity", func() {
			prop := validProposition()
			prop.Entity = ""
			_, err := orch.Score(ctx, prop, model.Context{}, nil)

			Convey("Then it is rejected before any evaluator runs", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, model.ErrInvalidProposition), ShouldBeTrue)
			})
		})
	})

	Convey("Given a nil registry", t, func() {
		_, err := scoring.New(nil)

		Convey("Then construction fails", func() {
			So(errors.Is(err, scoring.ErrNilRegistry), ShouldBeTrue)
		})
	})
}

func TestOrchestrator_Complement(t *testing.T) {
	ctx := context.Background()

	Convey("Given a scored proposition", t, func() {
		registry := evaluator.NewRegistry(
			&stubEvaluator{name: "alpha", score: 72},
		)
		orch, err := scoring.New(registry)
		So(err, ShouldBeNil)

		sp, err := orch.Score(ctx, validProposition(), model.Context{}, nil)
		So(err, ShouldBeNil)

		Convey("When taking the complement", func() {
			comp := orch.Complement(sp)

			Convey("Then the side flips and confidences sum to 100", func() {
				So(comp.Proposition.Side, ShouldEqual, model.SideUnder)
				So(comp.Confidence+sp.Confidence, ShouldEqual, 100)
			})

			Convey("And the tier is recomputed for the new confidence", func() {
				So(sp.Tier, ShouldEqual, "strong")
				So(comp.Tier, ShouldEqual, "avoid")
			})

			Convey("And complementing twice restores the original", func() {
				again := orch.Complement(comp)
				So(again.Proposition.Side, ShouldEqual, sp.Proposition.Side)
				So(again.Confidence, ShouldEqual, sp.Confidence)
				So(again.Tier, ShouldEqual, sp.Tier)
			})
		})
	})
}

func TestTiers(t *testing.T) {
	Convey("Given the default tier table", t, func() {
		tiers := scoring.DefaultTiers()

		Convey("Then confidence maps to the expected labels", func() {
			So(tiers.For(100), ShouldEqual, "elite")
			So(tiers.For(75), ShouldEqual, "elite")
			So(tiers.For(74), ShouldEqual, "strong")
			So(tiers.For(67), ShouldEqual, "solid")
			So(tiers.For(60), ShouldEqual, "lean")
			So(tiers.For(59), ShouldEqual, "avoid")
			So(tiers.For(0), ShouldEqual, "avoid")
		})
	})

	Convey("Given invalid tier tables", t, func() {
		Convey("Too few buckets are rejected", func() {
			_, err := scoring.NewTiers([]scoring.Tier{
				{Name: "yes", Min: 50},
				{Name: "no", Min: 0},
			})
			So(errors.Is(err, scoring.ErrInvalidTiers), ShouldBeTrue)
		})

		Convey("Duplicate floors are rejected", func() {
			_, err := scoring.NewTiers([]scoring.Tier{
				{Name: "a", Min: 80},
				{Name: "b", Min: 80},
				{Name: "c", Min: 60},
				{Name: "d", Min: 40},
				{Name: "e", Min: 0},
			})
			So(errors.Is(err, scoring.ErrInvalidTiers), ShouldBeTrue)
		})

		Convey("A table without a zero floor is rejected", func() {
			_, err := scoring.NewTiers([]scoring.Tier{
				{Name: "a", Min: 80},
				{Name: "b", Min: 70},
				{Name: "c", Min: 60},
				{Name: "d", Min: 50},
				{Name: "e", Min: 40},
			})
			So(errors.Is(err, scoring.ErrInvalidTiers), ShouldBeTrue)
		})
	})
}

func TestSnapshot_Weight(t *testing.T) {
	Convey("Given a weight snapshot", t, func() {
		snap := scoring.Snapshot{"alpha": 2.5}

		Convey("Then known evaluators resolve their weight", func() {
			So(snap.Weight("alpha"), ShouldEqual, 2.5)
		})

		Convey("And unknown evaluators fall back to 1.0", func() {
			So(snap.Weight("unknown"), ShouldEqual, 1.0)
		})

		Convey("And a nil snapshot falls back for everything", func() {
			var empty scoring.Snapshot
			So(empty.Weight("alpha"), ShouldEqual, 1.0)
		})
	})
}
