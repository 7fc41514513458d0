// Package httpsurface bridges the interaction layer to a rendering
// gateway over HTTP. Renders, updates, and modals go out as JSON POSTs
// to the gateway; component events come back in on a chi route and are
// fed to whichever collector is attached to the target surface.
package httpsurface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmaines/notewarden/interact"
	"github.com/dmaines/notewarden/paginate"
)

const defaultTimeout = 10 * time.Second

// Bridge implements interact.Surface against a remote rendering
// gateway. One Bridge serves many concurrent surfaces.
type Bridge struct {
	gatewayURL string
	http       *http.Client

	mu         sync.Mutex
	collectors map[interact.Handle]*collector
}

var _ interact.Surface = (*Bridge)(nil)

// Option configures a Bridge.
type Option func(*Bridge)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(b *Bridge) {
		b.http = c
	}
}

// New creates a Bridge that talks to the gateway at gatewayURL.
func New(gatewayURL string, opts ...Option) *Bridge {
	b := &Bridge{
		gatewayURL: gatewayURL,
		http:       &http.Client{Timeout: defaultTimeout},
		collectors: make(map[interact.Handle]*collector),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type renderResponse struct {
	Handle string `json:"handle"`
}

// Render posts the view to the gateway and returns the handle the
// gateway assigned to the new surface.
func (b *Bridge) Render(ctx context.Context, vm paginate.ViewModel) (interact.Handle, error) {
	var resp renderResponse
	if err := b.post(ctx, "/render", vm, &resp); err != nil {
		return "", fmt.Errorf("rendering surface: %w", err)
	}
	if resp.Handle == "" {
		// Gateways that do not assign handles get one from us.
		resp.Handle = uuid.NewString()
	}
	return interact.Handle(resp.Handle), nil
}

// Update replaces the content of an existing surface in place. The
// handle is stable across updates.
func (b *Bridge) Update(ctx context.Context, h interact.Handle, vm paginate.ViewModel) (interact.Handle, error) {
	if err := b.post(ctx, "/surfaces/"+string(h), vm, nil); err != nil {
		return "", fmt.Errorf("updating surface %s: %w", h, err)
	}
	return h, nil
}

// ShowModal asks the gateway to open a modal for the acting user.
func (b *Bridge) ShowModal(ctx context.Context, spec interact.ModalSpec) error {
	if err := b.post(ctx, "/modals", spec, nil); err != nil {
		return fmt.Errorf("showing modal: %w", err)
	}
	return nil
}

// AttachCollector registers a collector for the surface, replacing any
// previous one. Incoming events for the handle are filtered by kind and
// delivered until the collector is stopped or times out.
func (b *Bridge) AttachCollector(h interact.Handle, kind interact.EventKind, timeout time.Duration) (interact.Collector, error) {
	c := newCollector(kind, timeout, func(c *collector) { b.detachIf(h, c) })

	b.mu.Lock()
	prev := b.collectors[h]
	b.collectors[h] = c
	b.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}
	return c, nil
}

// detachIf deregisters the collector only while it is still the one
// registered for the handle. A replaced collector's stop callback must
// not deregister its successor.
func (b *Bridge) detachIf(h interact.Handle, c *collector) {
	b.mu.Lock()
	if b.collectors[h] == c {
		delete(b.collectors, h)
	}
	b.mu.Unlock()
}

func (b *Bridge) lookup(h interact.Handle) (*collector, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.collectors[h]
	return c, ok
}

func (b *Bridge) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.gatewayURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("gateway returned %s", resp.Status)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// inboundEvent is the wire form of a component event from the gateway.
type inboundEvent struct {
	Kind     string            `json:"kind"`
	UserID   string            `json:"user_id"`
	CustomID string            `json:"custom_id"`
	Values   map[string]string `json:"values,omitempty"`
}

type replyRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// Routes returns the chi router the gateway posts events to. Mount it
// under a path of your choosing; events arrive as
// POST {mount}/events/{handle}.
func (b *Bridge) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/events/{handle}", b.handleEvent)
	return r
}

func (b *Bridge) handleEvent(w http.ResponseWriter, r *http.Request) {
	h := interact.Handle(chi.URLParam(r, "handle"))

	var in inboundEvent
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid event body", http.StatusBadRequest)
		return
	}

	c, ok := b.lookup(h)
	if !ok {
		// No listener: the flow ended or timed out.
		http.Error(w, "no active collector for surface", http.StatusGone)
		return
	}

	ev := interact.Event{
		Kind:     parseEventKind(in.Kind),
		UserID:   in.UserID,
		CustomID: in.CustomID,
		Values:   in.Values,
	}
	ev.Reply = func(ctx context.Context, msg string) error {
		return b.post(ctx, "/surfaces/"+string(h)+"/replies", replyRequest{
			UserID:  in.UserID,
			Message: msg,
		}, nil)
	}

	if !c.deliver(r.Context(), ev) {
		http.Error(w, "collector stopped", http.StatusGone)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func parseEventKind(s string) interact.EventKind {
	switch s {
	case "modal":
		return interact.EventModal
	default:
		return interact.EventButton
	}
}
