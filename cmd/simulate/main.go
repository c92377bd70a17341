package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/scoretable/scoretable/internal/simulate"
	"github.com/scoretable/scoretable/pkg/logger"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultRunTimeout = 2 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		stream   = flag.String("stream", "demo", "Stream (match) identifier")
		scenario = flag.String("scenario", "full-match",
			"Scenario to play: "+strings.Join(simulate.Scenarios(), ", "))
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		reset   = flag.Bool("reset", true, "Clear the stream before posting")
		verbose = flag.Bool("verbose", false, "Log every posted event")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &simulate.Config{
		BaseURL:  *baseURL,
		Stream:   *stream,
		Scenario: *scenario,
		Timeout:  *timeout,
		Reset:    *reset,
		Verbose:  *verbose,
	}

	if err := simulate.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
