// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/scoretable/scoretable/internal/adapters/mq/queue"
	"github.com/scoretable/scoretable/internal/domain/timeline"
)

// EventsHandler handles event log requests.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandlePostEvent handles POST /streams/{stream}/events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	stream := r.PathValue("stream")
	if stream == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: missing stream", op, ErrBadRequest))
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}

	log, duplicate, err := h.deps.AppendEvent(r.Context(), stream, req.toEvent())
	if err != nil {
		if errors.Is(err, queue.ErrBackpressure) {
			writeError(w, http.StatusTooManyRequests, "backpressure", fmt.Errorf("%s: %w", op, ErrBackpressure))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", fmt.Errorf("%s: %w", op, err))
		return
	}

	status := "accepted"
	code := http.StatusAccepted
	if duplicate {
		status = "duplicate"
		code = http.StatusOK
	}
	writeJSON(w, code, appendResponse{Status: status, Duplicate: duplicate, Events: log})
}

// HandleGetEvents handles GET /streams/{stream}/events requests. With
// ?annotated=1 the log is returned enriched with timing annotations.
func (h *EventsHandler) HandleGetEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_events"
	stream := r.PathValue("stream")
	if stream == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: missing stream", op, ErrBadRequest))
		return
	}

	if r.URL.Query().Get("annotated") == "1" {
		annotated, err := h.deps.Annotated(r.Context(), stream)
		if err != nil {
			writeAnnotateError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, annotated)
		return
	}

	events, err := h.deps.Events(r.Context(), stream)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", fmt.Errorf("%s: %w", op, err))
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleDeleteStream handles DELETE /streams/{stream} requests. Deleting
// a stream that does not exist is a no-op.
func (h *EventsHandler) HandleDeleteStream(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_stream"
	stream := r.PathValue("stream")
	if stream == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: missing stream", op, ErrBadRequest))
		return
	}
	if err := h.deps.ClearStream(r.Context(), stream); err != nil {
		writeError(w, http.StatusInternalServerError, "internal", fmt.Errorf("%s: %w", op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeAnnotateError maps sequencing violations raised under the strict
// timeline policy to 422; anything else is a server fault.
func writeAnnotateError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, timeline.ErrAlreadyPaused) || errors.Is(err, timeline.ErrAlreadyRunning) {
		writeError(w, http.StatusUnprocessableEntity, "sequence_violation", fmt.Errorf("%s: %w", op, err))
		return
	}
	writeError(w, http.StatusInternalServerError, "internal", fmt.Errorf("%s: %w", op, err))
}
