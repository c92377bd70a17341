// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
)

// StateHandler serves reduced match state and sampled clock values.
type StateHandler struct {
	deps Dependencies
}

// NewStateHandler creates a new state handler.
func NewStateHandler(deps Dependencies) *StateHandler {
	return &StateHandler{deps: deps}
}

// HandleGetState handles GET /streams/{stream}/state requests.
func (h *StateHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_state"
	stream := r.PathValue("stream")
	if stream == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: missing stream", op, ErrBadRequest))
		return
	}

	state, err := h.deps.State(r.Context(), stream)
	if err != nil {
		writeAnnotateError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// HandleGetClock handles GET /streams/{stream}/clock requests.
func (h *StateHandler) HandleGetClock(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_clock"
	stream := r.PathValue("stream")
	if stream == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: missing stream", op, ErrBadRequest))
		return
	}

	times, err := h.deps.Clock(r.Context(), stream)
	if err != nil {
		writeAnnotateError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, times)
}
