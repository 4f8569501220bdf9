package simulate_test

import (
	"context"
	"testing"

	"github.com/propedge/propedge/internal/adapters/provider"
	service "github.com/propedge/propedge/internal/app"
	"github.com/propedge/propedge/internal/simulate"
	"github.com/propedge/propedge/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestGenerator(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		slate := simulate.NewGenerator(42).Generate(40, 6)

		Convey("Then the slate is fully materialized", func() {
			So(len(slate.Propositions), ShouldEqual, 40)
			So(len(slate.Contexts), ShouldEqual, 40)
			So(len(slate.Outcomes), ShouldEqual, 40)

			games := map[string]struct{}{}
			for _, prop := range slate.Propositions {
				So(prop.Validate(), ShouldBeNil)
				games[prop.GameID] = struct{}{}

				data, ok := slate.Contexts[prop.ID]
				So(ok, ShouldBeTrue)
				So(data.Season, ShouldNotBeNil)
				So(data.Recent, ShouldNotBeNil)

				outcome, ok := slate.Outcomes[prop.ID]
				So(ok, ShouldBeTrue)
				So(outcome.PropositionID, ShouldEqual, prop.ID)
				So(outcome.ActualValue, ShouldBeGreaterThanOrEqualTo, 0)
			}
			So(len(games), ShouldEqual, 6)
		})

		Convey("And the same seed reproduces the same slate", func() {
			again := simulate.NewGenerator(42).Generate(40, 6)
			So(again.Propositions, ShouldResemble, slate.Propositions)
			So(again.Outcomes, ShouldResemble, slate.Outcomes)
		})

		Convey("And a different seed diverges", func() {
			other := simulate.NewGenerator(43).Generate(40, 6)
			So(other.Propositions, ShouldNotResemble, slate.Propositions)
		})
	})

	Convey("Given degenerate sizes", t, func() {
		slate := simulate.NewGenerator(1).Generate(0, 0)

		Convey("Then the generator still yields a minimal slate", func() {
			So(len(slate.Propositions), ShouldEqual, 1)
		})
	})
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started engine wired to a simulation provider", t, func() {
		sim := provider.NewStaticProvider()
		svc := service.New(
			service.WithDataProvider(sim),
			service.WithOutcomeProvider(sim),
			service.WithPoolLimit(100),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When running one simulation pass", func() {
			stats, err := simulate.Run(ctx, svc, sim, &simulate.Config{
				SlateSize:     40,
				Games:         6,
				Seed:          42,
				Period:        "sim-1",
				BundleSizes:   []int{2, 3},
				MinConfidence: 55,
			})

			Convey("Then the whole slate flows through the engine", func() {
				So(err, ShouldBeNil)
				So(stats.Scored, ShouldEqual, 40)
				So(svc.PoolSize(ctx), ShouldEqual, 40)
				So(stats.Adjustments, ShouldBeGreaterThan, 0)
				So(stats.Duration, ShouldBeGreaterThan, 0)
			})

			Convey("And calibration committed weights for the period", func() {
				weights, err := svc.Weights(ctx)
				So(err, ShouldBeNil)
				So(len(weights), ShouldBeGreaterThan, 0)
			})
		})
	})
}
