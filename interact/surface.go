// Package interact dispatches UI callback events to verb handlers and
// manages the time-boxed collectors bound to rendered surfaces. It owns
// the per-event pipeline: authorize the acting user, admit through the
// rate limiter, decode the action token, dispatch to exactly one
// handler, and re-render with a fresh collector when content changes.
package interact

import (
	"context"
	"time"

	"github.com/dmaines/notewarden/paginate"
)

// Handle identifies one rendered surface instance.
type Handle string

// EventKind selects which component events a collector receives.
type EventKind int

const (
	// EventAny delivers every component event for the surface,
	// including modal submissions spawned from it.
	EventAny EventKind = iota
	EventButton
	EventModal
)

func (k EventKind) String() string {
	switch k {
	case EventAny:
		return "any"
	case EventButton:
		return "button"
	case EventModal:
		return "modal"
	default:
		return "unknown"
	}
}

// Event is one user-triggered callback delivered by a collector.
// Reply sends a short, scoped message to the acting user without
// touching the rendered content; the surface adapter provides it.
type Event struct {
	Kind     EventKind
	UserID   string
	CustomID string
	// Values carries modal field submissions, keyed by field custom id.
	Values map[string]string

	Reply func(ctx context.Context, msg string) error
}

// ModalField describes one input in a modal.
type ModalField struct {
	CustomID    string
	Label       string
	Placeholder string
	Paragraph   bool
	Required    bool
}

// ModalSpec describes a modal to show. The CustomID is an encoded
// action token; the submission comes back as an EventModal event
// carrying it.
type ModalSpec struct {
	Title    string
	CustomID string
	Fields   []ModalField
}

// Collector is a time-boxed listener bound to a rendered surface. It
// delivers events in receipt order until stopped or expired, then
// closes Done. Stop is idempotent.
type Collector interface {
	Events() <-chan Event
	Done() <-chan struct{}
	Stop()
}

// Surface is the external rendering system. These four operations are
// all the interaction layer requires; how a button or modal looks is
// the surface's concern.
type Surface interface {
	Render(ctx context.Context, vm paginate.ViewModel) (Handle, error)
	Update(ctx context.Context, h Handle, vm paginate.ViewModel) (Handle, error)
	AttachCollector(h Handle, kind EventKind, timeout time.Duration) (Collector, error)
	ShowModal(ctx context.Context, spec ModalSpec) error
}
