package interact

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/dmaines/notewarden/faults"
	"github.com/dmaines/notewarden/ratelimit"
	"github.com/dmaines/notewarden/token"
)

const (
	msgNotOwner    = "This belongs to another user. Start your own with the command."
	msgRateLimited = "You're doing that too fast. Give it a moment and try again."
)

// Handler processes one decoded action token for an event. The binding
// is the flow instance the event arrived on; handlers re-render through
// it themselves. A returned error is classified and reported to the
// user with a correlation id.
type Handler func(ctx context.Context, b *Binding, ev Event, tok token.Token) error

type registration struct {
	parts   int
	handler Handler
}

// Router dispatches collector events to verb handlers after the
// authorization, rate-limit, and decode gates.
type Router struct {
	routes  map[token.Verb]registration
	limiter *ratelimit.Limiter
	log     *flowLogger
	active  atomic.Int64
}

// Option configures the Router.
type Option func(*Router)

// WithLogger sets the structured logger for pipeline events. If not
// set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) { r.log = newFlowLogger(logger) }
}

// NewRouter creates a router gated by the given limiter.
func NewRouter(limiter *ratelimit.Limiter, opts ...Option) *Router {
	r := &Router{
		routes:  make(map[token.Verb]registration),
		limiter: limiter,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = newFlowLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}
	return r
}

// Register binds a verb to a handler expecting exactly parts token
// segments (verb included). Registering a verb twice is a programming
// error and panics at startup, not at dispatch time.
func (r *Router) Register(verb token.Verb, parts int, h Handler) {
	if _, dup := r.routes[verb]; dup {
		panic(fmt.Sprintf("interact: verb %q registered twice", verb))
	}
	if parts < 1 || h == nil {
		panic(fmt.Sprintf("interact: invalid registration for verb %q", verb))
	}
	r.routes[verb] = registration{parts: parts, handler: h}
}

// ActiveFlows reports the number of running collector loops, for
// operational status.
func (r *Router) ActiveFlows() int64 {
	return r.active.Load()
}

// Dispatch runs the pipeline for one event: authorize, rate-check,
// decode, handle. Local rejections are answered in place and never
// propagate; handler errors are classified and surfaced with a
// correlation id.
func (r *Router) Dispatch(ctx context.Context, b *Binding, ev Event) {
	if ev.UserID != b.Owner() {
		r.log.log(FlowRejectedOwner,
			slog.String("user_id", ev.UserID),
			slog.String("owner_id", b.Owner()))
		r.reply(ctx, ev, msgNotOwner)
		return
	}

	if r.limiter.CheckAndRecord(ev.UserID) {
		r.log.log(FlowRateLimited, slog.String("user_id", ev.UserID))
		r.reply(ctx, ev, msgRateLimited)
		return
	}

	verbPart, _, _ := strings.Cut(ev.CustomID, ":")
	verb, err := token.ParseVerb(verbPart)
	if err != nil {
		r.rejectMalformed(ctx, ev, err)
		return
	}
	reg, ok := r.routes[verb]
	if !ok {
		// A known verb with no handler is a wiring bug, not user input.
		r.rejectMalformed(ctx, ev, fmt.Errorf("no handler for verb %q", verb))
		return
	}
	tok, err := token.Decode(ev.CustomID, reg.parts)
	if err != nil {
		r.rejectMalformed(ctx, ev, err)
		return
	}

	r.log.log(FlowDispatched,
		slog.String("user_id", ev.UserID),
		slog.String("verb", string(tok.Verb)))

	if err := reg.handler(ctx, b, ev, tok); err != nil {
		id := faults.NewCorrelationID()
		faults.Report(r.log.logger, err, id, slog.String("verb", string(tok.Verb)))
		r.log.log(FlowHandlerError,
			slog.String("verb", string(tok.Verb)),
			slog.String("correlation_id", id))
		r.reply(ctx, ev, faults.UserMessage(faults.Classify(err), id))
	}
}

// Run pumps events from the binding's current collector through
// Dispatch until the collector expires. Swapped-out collectors close
// their Done channel too, so the loop re-reads the active collector and
// only treats Done as terminal when no swap happened.
func (r *Router) Run(ctx context.Context, b *Binding) {
	r.active.Add(1)
	go func() {
		defer r.active.Add(-1)
		for {
			cur := b.Collector()
			select {
			case ev, ok := <-cur.Events():
				if !ok {
					continue
				}
				r.Dispatch(ctx, b, ev)
			case <-cur.Done():
				if b.Collector() != cur {
					// Swapped mid-flight; keep pumping the replacement.
					continue
				}
				r.log.log(FlowExpired, slog.String("owner_id", b.Owner()))
				if b.OnExpire != nil {
					b.OnExpire()
				}
				if err := b.expire(ctx); err != nil {
					r.log.log(FlowRenderFailed, slog.String("error", err.Error()))
				}
				return
			case <-ctx.Done():
				cur.Stop()
				return
			}
		}
	}()
}

func (r *Router) rejectMalformed(ctx context.Context, ev Event, err error) {
	id := faults.NewCorrelationID()
	r.log.log(FlowMalformed,
		slog.String("user_id", ev.UserID),
		slog.String("custom_id", ev.CustomID),
		slog.String("correlation_id", id),
		slog.String("error", err.Error()))
	r.reply(ctx, ev, fmt.Sprintf("This interaction's data is invalid. Please restart the flow. (ref: %s)", id))
}

func (r *Router) reply(ctx context.Context, ev Event, msg string) {
	if ev.Reply == nil {
		return
	}
	if err := ev.Reply(ctx, msg); err != nil {
		r.log.log(FlowReplyFailed, slog.String("error", err.Error()))
	}
}
