package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/propedge/propedge/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestConfig_Defaults(t *testing.T) {
	Convey("Given a default configuration", t, func() {
		cfg := config.New(context.Background())

		Convey("Then the compiled defaults are sane", func() {
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.WorkerCount, ShouldBeGreaterThan, 0)
			So(cfg.MinConfidence, ShouldEqual, 60)
			So(cfg.BundleSizes, ShouldResemble, []int{2, 3, 4})
			So(cfg.PoolLimit, ShouldEqual, 50)
			So(cfg.BaseMagnitude, ShouldEqual, 5.0)
			So(cfg.PenaltyFloor, ShouldEqual, -20.0)
			So(cfg.MinSampleSize, ShouldEqual, 10)
			So(cfg.MaxDelta, ShouldEqual, 0.5)
		})
	})
}

func TestConfig_Load(t *testing.T) {
	ctx := context.Background()

	Convey("Given no file and no environment overrides", t, func() {
		t.Setenv("PROPEDGE_CONFIG", "")

		Convey("Then Load yields the defaults", func() {
			cfg, err := config.Load(ctx)
			So(err, ShouldBeNil)
			So(cfg.MinConfidence, ShouldEqual, 60)
		})
	})

	Convey("Given a YAML config file", t, func() {
		path := filepath.Join(t.TempDir(), "config.yaml")
		raw := []byte("min_confidence: 65\nlog_level: debug\nbundle_sizes: [2, 5]\n")
		So(os.WriteFile(path, raw, 0o600), ShouldBeNil)
		t.Setenv("PROPEDGE_CONFIG", path)

		Convey("Then file values override defaults", func() {
			cfg, err := config.Load(ctx)
			So(err, ShouldBeNil)
			So(cfg.MinConfidence, ShouldEqual, 65)
			So(cfg.LogLevel, ShouldEqual, "debug")
			So(cfg.BundleSizes, ShouldResemble, []int{2, 5})
			// untouched keys keep their defaults
			So(cfg.PoolLimit, ShouldEqual, 50)
		})

		Convey("And environment variables override the file", func() {
			t.Setenv("PROPEDGE_MIN_CONFIDENCE", "72")
			cfg, err := config.Load(ctx)
			So(err, ShouldBeNil)
			So(cfg.MinConfidence, ShouldEqual, 72)
			So(cfg.LogLevel, ShouldEqual, "debug")
		})
	})

	Convey("Given a missing config file", t, func() {
		t.Setenv("PROPEDGE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

		Convey("Then Load fails with a load error", func() {
			_, err := config.Load(ctx)
			So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
		})
	})

	Convey("Given invalid values", t, func() {
		t.Setenv("PROPEDGE_CONFIG", "")

		Convey("A non-positive worker count is rejected", func() {
			t.Setenv("PROPEDGE_WORKER_COUNT", "0")
			_, err := config.Load(ctx)
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("An out-of-range confidence threshold is rejected", func() {
			t.Setenv("PROPEDGE_MIN_CONFIDENCE", "140")
			_, err := config.Load(ctx)
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("An out-of-range bundle size is rejected", func() {
			path := filepath.Join(t.TempDir(), "config.yaml")
			So(os.WriteFile(path, []byte("bundle_sizes: [2, 6]\n"), 0o600), ShouldBeNil)
			t.Setenv("PROPEDGE_CONFIG", path)
			_, err := config.Load(ctx)
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("A positive penalty floor is rejected", func() {
			t.Setenv("PROPEDGE_PENALTY_FLOOR", "3")
			_, err := config.Load(ctx)
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
