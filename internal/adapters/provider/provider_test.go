package provider_test

import (
	"context"
	"errors"
	"testing"

	"github.com/propedge/propedge/internal/adapters/provider"
	"github.com/propedge/propedge/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStaticProvider(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty static provider", t, func() {
		p := provider.NewStaticProvider()

		Convey("Then unknown contexts and outcomes miss explicitly", func() {
			_, err := p.GetContext(ctx, "prop-1")
			So(errors.Is(err, provider.ErrNoContext), ShouldBeTrue)

			_, err = p.GetOutcome(ctx, "prop-1")
			So(errors.Is(err, provider.ErrNoOutcome), ShouldBeTrue)
		})

		Convey("When a context is registered", func() {
			p.SetContext("prop-1", model.Context{
				Usage: &model.UsageStats{Share: 0.25},
			})

			Convey("Then it resolves", func() {
				data, err := p.GetContext(ctx, "prop-1")
				So(err, ShouldBeNil)
				So(data.Usage, ShouldNotBeNil)
				So(data.Usage.Share, ShouldAlmostEqual, 0.25, 1e-9)
			})
		})

		Convey("When an outcome is registered", func() {
			p.SetOutcome("prop-1", model.Outcome{PropositionID: "prop-1", ActualValue: 24, Hit: true})

			Convey("Then it resolves", func() {
				outcome, err := p.GetOutcome(ctx, "prop-1")
				So(err, ShouldBeNil)
				So(outcome.Hit, ShouldBeTrue)
				So(outcome.ActualValue, ShouldAlmostEqual, 24, 1e-9)
			})
		})
	})
}
