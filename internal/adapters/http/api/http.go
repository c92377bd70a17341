// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/scoretable/scoretable/internal/domain/clock"
	"github.com/scoretable/scoretable/internal/domain/game"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// AppendEvent records an event on a stream and returns the full log.
	// Duplicate is true when the event id was already recorded.
	AppendEvent(ctx context.Context, stream string, ev game.Event) (log []game.Event, duplicate bool, err error)

	// Events returns the raw event log for a stream.
	Events(ctx context.Context, stream string) ([]game.Event, error)

	// Annotated returns the event log enriched with timing annotations.
	Annotated(ctx context.Context, stream string) ([]game.AnnotatedEvent, error)

	// ClearStream removes a stream and all its events.
	ClearStream(ctx context.Context, stream string) error

	// State returns the reduced match state for a stream.
	State(ctx context.Context, stream string) (game.GlobalState, error)

	// Clock returns the sampled clock values for a stream.
	Clock(ctx context.Context, stream string) (clock.Times, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	eventsHandler *EventsHandler
	stateHandler  *StateHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		eventsHandler: NewEventsHandler(deps),
		stateHandler:  NewStateHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /streams/{stream}/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events_post"))
	mux.HandleFunc("GET /streams/{stream}/events", MetricsMiddleware(s.eventsHandler.HandleGetEvents, "events_get"))
	mux.HandleFunc("DELETE /streams/{stream}", MetricsMiddleware(s.eventsHandler.HandleDeleteStream, "stream_delete"))
	mux.HandleFunc("GET /streams/{stream}/state", MetricsMiddleware(s.stateHandler.HandleGetState, "state"))
	mux.HandleFunc("GET /streams/{stream}/clock", MetricsMiddleware(s.stateHandler.HandleGetClock, "clock"))
}

// eventRequest mirrors the wire schema for POST /streams/{stream}/events.
// ID and timestamp are optional; the service assigns them when absent so
// a table client can post bare events.
type eventRequest struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Timestamp int64     `json:"timestamp,omitempty"`
	Team      game.Team `json:"team,omitempty"`
	Cap       game.Cap  `json:"cap,omitempty"`
	UndoIDs   []string  `json:"undo_ids,omitempty"`
}

func (e eventRequest) validate() error {
	name := game.EventName(strings.TrimSpace(e.Name))
	switch {
	case name == "":
		return errors.New("missing name")
	case name.CarriesTeam() && e.Team != game.TeamWhite && e.Team != game.TeamBlue:
		return errors.New("missing or invalid team")
	case name.CarriesCap() && !e.Cap.IsValid():
		return errors.New("missing or invalid cap")
	case name == game.EventUndo && len(e.UndoIDs) == 0:
		return errors.New("missing undo_ids")
	}
	return nil
}

func (e eventRequest) toEvent() game.Event {
	return game.Event{
		ID:        strings.TrimSpace(e.ID),
		Name:      game.EventName(strings.TrimSpace(e.Name)),
		Timestamp: e.Timestamp,
		Team:      e.Team,
		Cap:       e.Cap,
		UndoIDs:   e.UndoIDs,
	}
}

type appendResponse struct {
	Status    string       `json:"status"`
	Duplicate bool         `json:"duplicate"`
	Events    []game.Event `json:"events"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
