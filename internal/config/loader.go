package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if PROPEDGE_CONFIG is set
//  3. env (prefix PROPEDGE_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("PROPEDGE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: PROPEDGE_WORKER_COUNT, PROPEDGE_MIN_CONFIDENCE, ...
	// Map env keys like PROPEDGE_WORKER_COUNT -> worker_count (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("PROPEDGE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "propedge_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the engine cannot run with.
func (c *Config) validate() error {
	if c.WorkerCount <= 0 {
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		return fmt.Errorf("%w: min_confidence must be within [0, 100]", ErrInvalidConfig)
	}
	if len(c.BundleSizes) == 0 {
		return fmt.Errorf("%w: bundle_sizes must not be empty", ErrInvalidConfig)
	}
	for _, size := range c.BundleSizes {
		if size < 2 || size > 5 {
			return fmt.Errorf("%w: bundle size %d must be within [2, 5]", ErrInvalidConfig, size)
		}
	}
	if c.PenaltyFloor > 0 {
		return fmt.Errorf("%w: penalty_floor must not be positive", ErrInvalidConfig)
	}
	if c.MaxDelta <= 0 {
		return fmt.Errorf("%w: max_delta must be positive", ErrInvalidConfig)
	}
	return nil
}
