// Package simulate drives a running service with scripted match
// timelines. Event timestamps are back-dated so the final event lands at
// the current wall time, which makes the live clocks meaningful right
// after a run.
package simulate

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Stream   string        // Stream (match) identifier to post into
	Scenario string        // Scenario name, see Scenarios()
	Timeout  time.Duration // HTTP request timeout
	Reset    bool          // Clear the stream before posting
	Verbose  bool          // Enable verbose logging
}
