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
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if SCORETABLE_CONFIG is set
//  3. env (prefix SCORETABLE_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("SCORETABLE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: SCORETABLE_ADDR, SCORETABLE_QUEUE_SIZE, ...
	// Env keys map to the flat koanf tags, underscores preserved.
	envProvider := env.Provider("SCORETABLE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "scoretable_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Policy != "lenient" && c.Policy != "strict":
		return fmt.Errorf("%w: policy must be lenient or strict, got %q", ErrInvalidConfig, c.Policy)
	case c.PeriodLengthMS <= 0:
		return fmt.Errorf("%w: period_length_ms must be positive", ErrInvalidConfig)
	case c.RestLengthMS <= 0:
		return fmt.Errorf("%w: rest_length_ms must be positive", ErrInvalidConfig)
	case c.PushIntervalMS <= 0:
		return fmt.Errorf("%w: push_interval_ms must be positive", ErrInvalidConfig)
	}
	return nil
}
