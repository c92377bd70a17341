package timeline

import "errors"

// Sentinel kinds for sequencing violations, surfaced only under
// PolicyStrict.
var (
	ErrAlreadyPaused  = errors.New("match already paused")
	ErrAlreadyRunning = errors.New("match already running")
)
