// Package notes implements the bot's moderation flows on top of the
// interaction engine: browsing the request queue, rating notes,
// drafting and submitting notes through a modal, and the two-step
// force-publish confirmation. The notes backend owns all business
// logic; this package only orchestrates sessions, rendering, and
// authorization around it.
package notes

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/dmaines/notewarden/backend"
	"github.com/dmaines/notewarden/interact"
	"github.com/dmaines/notewarden/ratelimit"
	"github.com/dmaines/notewarden/session"
	"github.com/dmaines/notewarden/token"
)

// ErrCoolingDown is returned by command entrypoints when the user
// invoked a command within the cooldown period.
var ErrCoolingDown = errors.New("command on cooldown")

// ErrNotAdmin is returned when a non-admin invokes an admin-only command.
var ErrNotAdmin = errors.New("admin permission required")

const (
	msgSessionExpired = "This session has expired. Please run the command again."
	defaultPageSize   = 5
	defaultTimeout    = 3 * time.Minute
)

// Command is a top-level command invocation, delivered by the command
// layer with the requester's precomputed authorization flag.
type Command struct {
	UserID  string
	GuildID string
	IsAdmin bool
}

// Timeouts groups the tunable lifetimes of a flow.
type Timeouts struct {
	Collector  time.Duration
	Confirm    time.Duration
	Pagination time.Duration
	Draft      time.Duration
}

// Service wires the interaction engine to the notes backend.
type Service struct {
	backend  *backend.Client
	sessions session.Store
	surface  interact.Surface
	router   *interact.Router
	cooldown *ratelimit.Cooldown
	logger   *slog.Logger

	pageSize int
	timeouts Timeouts
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the structured logger. If not set, a default JSON
// logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithPageSize overrides the default page size for list views.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithTimeouts overrides the default collector timeout and TTL tiers.
func WithTimeouts(t Timeouts) Option {
	return func(s *Service) { s.timeouts = t }
}

// New creates the service and registers every verb handler on the
// router. Registration happens exactly once per router; constructing
// two services over one router panics by design.
func New(bc *backend.Client, store session.Store, surface interact.Surface, router *interact.Router, cooldown *ratelimit.Cooldown, opts ...Option) *Service {
	s := &Service{
		backend:  bc,
		sessions: store,
		surface:  surface,
		router:   router,
		cooldown: cooldown,
		pageSize: defaultPageSize,
		timeouts: Timeouts{
			Collector:  defaultTimeout,
			Confirm:    session.TTLConfirm,
			Pagination: session.TTLPagination,
			Draft:      session.TTLDraft,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	s.logger = s.logger.With("component", "notes")

	s.registerRoutes()
	return s
}

func (s *Service) registerRoutes() {
	// Part counts include the verb segment.
	s.router.Register(token.VerbQueuePrev, 2, s.handleQueueNav(-1))
	s.router.Register(token.VerbQueueNext, 2, s.handleQueueNav(+1))
	s.router.Register(token.VerbReviewPrev, 2, s.handleReviewNav(-1))
	s.router.Register(token.VerbReviewNext, 2, s.handleReviewNav(+1))
	s.router.Register(token.VerbRateHelpful, 3, s.handleRate(true))
	s.router.Register(token.VerbRateUnhelpful, 3, s.handleRate(false))
	s.router.Register(token.VerbNoteWrite, 3, s.handleNoteWrite)
	s.router.Register(token.VerbNoteSubmit, 2, s.handleNoteSubmit)
	s.router.Register(token.VerbNoteAI, 3, s.handleNoteAI)
	s.router.Register(token.VerbPublishAsk, 3, s.handlePublishAsk)
	s.router.Register(token.VerbPublishConfirm, 2, s.handlePublishConfirm)
	s.router.Register(token.VerbPublishCancel, 2, s.handlePublishCancel)
}

// checkCooldown gates a command entrypoint.
func (s *Service) checkCooldown(userID string) error {
	if s.cooldown.CheckAndRecord(userID) {
		return ErrCoolingDown
	}
	return nil
}
