package queue

import "errors"

// ErrBackpressure reports that the replay queue refused a job because it
// is full.
var ErrBackpressure = errors.New("replay queue full")
