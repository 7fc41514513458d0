package interact

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmaines/notewarden/paginate"
)

// Binding associates one rendered surface instance with its active
// collector and the flow owner. At most one collector is active per
// binding; Swap stops the old collector before the replacement becomes
// authoritative, so a stale click cannot be processed twice.
type Binding struct {
	surface Surface
	owner   string
	kind    EventKind
	timeout time.Duration

	mu        sync.Mutex
	handle    Handle
	collector Collector
	lastVM    paginate.ViewModel

	// OnExpire runs once when the collector times out, before the
	// surface is redrawn in its disabled state. Flows use it to delete
	// session entries.
	OnExpire func()
}

// Bind renders the initial view model and attaches the first collector.
func Bind(ctx context.Context, surface Surface, owner string, vm paginate.ViewModel, kind EventKind, timeout time.Duration) (*Binding, error) {
	handle, err := surface.Render(ctx, vm)
	if err != nil {
		return nil, fmt.Errorf("rendering surface: %w", err)
	}
	collector, err := surface.AttachCollector(handle, kind, timeout)
	if err != nil {
		return nil, fmt.Errorf("attaching collector: %w", err)
	}
	return &Binding{
		surface:   surface,
		owner:     owner,
		kind:      kind,
		timeout:   timeout,
		handle:    handle,
		collector: collector,
		lastVM:    vm,
	}, nil
}

// Owner returns the user id that started the flow.
func (b *Binding) Owner() string { return b.owner }

// Handle returns the current surface handle.
func (b *Binding) Handle() Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handle
}

// Collector returns the currently active collector.
func (b *Binding) Collector() Collector {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.collector
}

// Swap replaces the rendered content and the collector: the old
// collector is stopped first, then the surface is updated and a fresh
// collector attached with a renewed timeout.
func (b *Binding) Swap(ctx context.Context, vm paginate.ViewModel) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.collector.Stop()

	handle, err := b.surface.Update(ctx, b.handle, vm)
	if err != nil {
		return fmt.Errorf("updating surface: %w", err)
	}
	collector, err := b.surface.AttachCollector(handle, b.kind, b.timeout)
	if err != nil {
		return fmt.Errorf("reattaching collector: %w", err)
	}
	b.handle = handle
	b.collector = collector
	b.lastVM = vm
	return nil
}

// Finish stops the collector and redraws the surface with the given
// terminal view model. Used on explicit terminal verbs (confirm/cancel).
func (b *Binding) Finish(ctx context.Context, vm paginate.ViewModel) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.collector.Stop()
	if _, err := b.surface.Update(ctx, b.handle, vm); err != nil {
		return fmt.Errorf("updating surface: %w", err)
	}
	b.lastVM = vm
	return nil
}

// expire redraws the last view model with every control disabled. The
// surface is left in its final rendered state; no further events are
// accepted.
func (b *Binding) expire(ctx context.Context) error {
	b.mu.Lock()
	vm := paginate.DisabledCopy(b.lastVM)
	handle := b.handle
	b.mu.Unlock()

	if _, err := b.surface.Update(ctx, handle, vm); err != nil {
		return fmt.Errorf("disabling expired surface: %w", err)
	}
	return nil
}
