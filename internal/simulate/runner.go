package simulate

import (
	"context"
	"fmt"
	"time"

	"github.com/scoretable/scoretable/internal/domain/clock"
	"github.com/scoretable/scoretable/internal/domain/game"
	"github.com/scoretable/scoretable/pkg/logger"
)

// settleDelay gives the replay workers time to materialize the snapshot
// before the final state is fetched.
const settleDelay = 500 * time.Millisecond

// Run posts the scenario's timeline into the service and prints the
// resulting state and clocks.
func Run(ctx context.Context, cfg *Config) error {
	log := logger.Get().Named("simulate")

	script, err := Build(cfg.Scenario)
	if err != nil {
		return err
	}

	log.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("stream", cfg.Stream),
		logger.String("scenario", script.Name),
		logger.Int("events", len(script.Events)),
	)

	c := newClient(cfg.BaseURL, cfg.Timeout)
	if err := c.health(ctx); err != nil {
		return fmt.Errorf("service not reachable: %w", err)
	}

	if cfg.Reset {
		if err := c.clearStream(ctx, cfg.Stream); err != nil {
			return err
		}
		log.Info(ctx, "stream cleared", logger.String("stream", cfg.Stream))
	}

	// Rebase the script so its last event happened just now.
	base := time.Now().UnixMilli() - script.Duration
	for _, ev := range script.Events {
		ev.Timestamp += base
		if err := c.postEvent(ctx, cfg.Stream, ev); err != nil {
			return err
		}
		if cfg.Verbose {
			log.Info(ctx, "event posted",
				logger.String("event", string(ev.Name)),
				logger.Int64("timestamp", ev.Timestamp),
			)
		}
	}

	time.Sleep(settleDelay)

	var state game.GlobalState
	if err := c.getJSON(ctx, fmt.Sprintf("/streams/%s/state", cfg.Stream), &state); err != nil {
		return err
	}
	var times clock.Times
	if err := c.getJSON(ctx, fmt.Sprintf("/streams/%s/clock", cfg.Stream), &times); err != nil {
		return err
	}

	log.Info(ctx, "simulation finished",
		logger.String("scenario", script.Name),
		logger.Int("period", state.Period),
		logger.Int("whiteGoals", state.White.Goals),
		logger.Int("blueGoals", state.Blue.Goals),
		logger.Int64("periodClock", times.PeriodClock),
		logger.Int64("restClock", times.RestClock),
		logger.Int64("matchClock", times.MatchClock),
	)
	return nil
}
