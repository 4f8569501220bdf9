// Package config defines engine configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// TierConfig is one recommendation bucket: a label and its confidence floor.
type TierConfig struct {
	Name string `koanf:"name"`
	Min  int    `koanf:"min"`
}

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr configures the Prometheus listen address, e.g. ":9090".
	// Empty disables the metrics endpoint.
	MetricsAddr string `koanf:"metrics_addr"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// MinConfidence filters the scored pool before bundle assembly.
	MinConfidence int `koanf:"min_confidence"`

	// BundleSizes lists the target bundle sizes to assemble, each 2-5.
	BundleSizes []int `koanf:"bundle_sizes"`

	// PoolLimit caps how many ranked propositions feed bundle assembly.
	PoolLimit int `koanf:"pool_limit"`

	// Tiers overrides the recommendation table; empty keeps the default.
	Tiers []TierConfig `koanf:"tiers"`

	// BaseMagnitude and PenaltyFloor tune the correlation penalty.
	BaseMagnitude float64 `koanf:"base_magnitude"`
	PenaltyFloor  float64 `koanf:"penalty_floor"`

	// StrengthTablePath points at a YAML strength table; empty keeps the
	// built-in table.
	StrengthTablePath string `koanf:"strength_table_path"`

	// StorePath is the SQLite file for weights and the audit trail.
	// Empty keeps weights in memory.
	StorePath string `koanf:"store_path"`

	// Calibration delta rule tuning.
	OverconfidenceGain float64 `koanf:"overconfidence_gain"`
	AccuracyBonusGain  float64 `koanf:"accuracy_bonus_gain"`
	MinSampleSize      int     `koanf:"min_sample_size"`
	MaxDelta           float64 `koanf:"max_delta"`

	// Simulation settings used by the batch runner.
	SlateSize int    `koanf:"slate_size"`
	SimGames  int    `koanf:"sim_games"`
	SimSeed   int64  `koanf:"sim_seed"`
	SimPeriod string `koanf:"sim_period"`
}

// New creates a Config with compiled defaults. Context is accepted first
// to satisfy the project-wide convention; it is reserved for future use
// and currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		MetricsAddr:        "",
		WorkerCount:        runtime.NumCPU(),
		MinConfidence:      60,
		BundleSizes:        []int{2, 3, 4},
		PoolLimit:          50,
		BaseMagnitude:      5.0,
		PenaltyFloor:       -20.0,
		OverconfidenceGain: 3.0,
		AccuracyBonusGain:  2.0,
		MinSampleSize:      10,
		MaxDelta:           0.5,
		SlateSize:          40,
		SimGames:           6,
		SimSeed:            42,
		SimPeriod:          "sim",
	}
}
