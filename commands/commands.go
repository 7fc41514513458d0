// Package commands exposes the bot's top-level commands over HTTP. The
// platform gateway translates slash commands into these endpoints; the
// interaction engine handles everything after the first render.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/dmaines/notewarden/faults"
	"github.com/dmaines/notewarden/notes"
)

// API holds the dependencies needed by the command handlers.
type API struct {
	svc *notes.Service
	log *slog.Logger
}

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for command events.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) { a.log = logger }
}

// New creates a new API instance over the notes service.
func New(svc *notes.Service, opts ...Option) *API {
	a := &API{svc: svc}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	a.log = a.log.With("component", "commands")
	return a
}

// Router returns a chi.Router with all command routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/queue", a.Queue)
	r.Post("/review", a.Review)
	r.Post("/publish", a.Publish)
	return r
}

// commandRequest is the wire form of a command invocation. IsAdmin is
// asserted by the gateway, which owns platform permission checks.
type commandRequest struct {
	UserID  string `json:"user_id"`
	GuildID string `json:"guild_id"`
	IsAdmin bool   `json:"is_admin"`
	NoteID  string `json:"note_id,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (r commandRequest) command() notes.Command {
	return notes.Command{UserID: r.UserID, GuildID: r.GuildID, IsAdmin: r.IsAdmin}
}

// Queue starts the request-queue browsing flow.
func (a *API) Queue(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decode(w, r)
	if !ok {
		return
	}
	// The flow outlives this request; only process shutdown ends it.
	ctx := context.WithoutCancel(r.Context())
	a.respond(w, r, a.svc.StartQueue(ctx, req.command()))
}

// Review starts the pending-note rating flow.
func (a *API) Review(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decode(w, r)
	if !ok {
		return
	}
	ctx := context.WithoutCancel(r.Context())
	a.respond(w, r, a.svc.StartReview(ctx, req.command()))
}

// Publish starts the force-publish confirmation flow.
func (a *API) Publish(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decode(w, r)
	if !ok {
		return
	}
	if req.NoteID == "" {
		writeError(w, http.StatusBadRequest, "note_id is required")
		return
	}
	ctx := context.WithoutCancel(r.Context())
	a.respond(w, r, a.svc.StartPublish(ctx, req.command(), req.NoteID))
}

func (a *API) decode(w http.ResponseWriter, r *http.Request) (commandRequest, bool) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.UserID == "" || req.GuildID == "" {
		writeError(w, http.StatusBadRequest, "user_id and guild_id are required")
		return req, false
	}
	return req, true
}

// respond maps service errors onto HTTP statuses. Internal failures get
// a correlation id in the body and the detail in the log, never both in
// the same place.
func (a *API) respond(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
		w.WriteHeader(http.StatusAccepted)
	case errors.Is(err, notes.ErrCoolingDown):
		writeError(w, http.StatusTooManyRequests, "You're invoking commands too quickly. Try again shortly.")
	case errors.Is(err, notes.ErrNotAdmin):
		writeError(w, http.StatusForbidden, "This command requires moderator permissions.")
	default:
		id := faults.NewCorrelationID()
		faults.Report(a.log, err, id, slog.String("path", r.URL.Path))
		writeError(w, http.StatusInternalServerError, faults.UserMessage(faults.Classify(err), id))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg})
}
