// Package config defines service configuration structures and loading hooks.
package config

import (
	"context"
	"runtime"

	"github.com/scoretable/scoretable/internal/domain/game"
	"github.com/scoretable/scoretable/internal/domain/timeline"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory replay queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of replay workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// PushIntervalMS sets the live-feed clock push interval.
	PushIntervalMS int `koanf:"push_interval_ms"`

	// Policy selects the event sequencing policy: lenient or strict.
	Policy string `koanf:"policy"`

	// Match parameters, all in milliseconds except TimeoutsPerTeam.
	PeriodLengthMS        int64 `koanf:"period_length_ms"`
	RestLengthMS          int64 `koanf:"rest_length_ms"`
	ExclusionLengthMS     int64 `koanf:"exclusion_length_ms"`
	ViolentActionLengthMS int64 `koanf:"violent_action_length_ms"`
	TimeoutLengthMS       int64 `koanf:"timeout_length_ms"`
	TimeoutsPerTeam       int   `koanf:"timeouts_per_team"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	rules := game.DefaultRules()
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		QueueSize:             1024,
		WorkerCount:           runtime.NumCPU(),
		DedupeSize:            50_000,
		PushIntervalMS:        50,
		Policy:                "lenient",
		PeriodLengthMS:        rules.PeriodLength,
		RestLengthMS:          rules.RestLength,
		ExclusionLengthMS:     rules.ExclusionLength,
		ViolentActionLengthMS: rules.ViolentActionLength,
		TimeoutLengthMS:       rules.TimeoutLength,
		TimeoutsPerTeam:       rules.TimeoutsPerTeam,
	}
}

// TimelinePolicy maps the configured policy name onto the annotator policy.
func (c *Config) TimelinePolicy() timeline.Policy {
	if c.Policy == "strict" {
		return timeline.PolicyStrict
	}
	return timeline.PolicyLenient
}

// Rules maps the configured match parameters onto the domain rules.
func (c *Config) Rules() game.Rules {
	return game.Rules{
		PeriodLength:        c.PeriodLengthMS,
		RestLength:          c.RestLengthMS,
		ExclusionLength:     c.ExclusionLengthMS,
		ViolentActionLength: c.ViolentActionLengthMS,
		TimeoutLength:       c.TimeoutLengthMS,
		TimeoutsPerTeam:     c.TimeoutsPerTeam,
	}
}
