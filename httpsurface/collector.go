package httpsurface

import (
	"context"
	"sync"
	"time"

	"github.com/dmaines/notewarden/interact"
)

// collector is a time-boxed event listener for one surface. Stop closes
// Done exactly once; the Events channel is never closed so late senders
// cannot panic a request handler.
type collector struct {
	kind   interact.EventKind
	events chan interact.Event
	done   chan struct{}
	timer  *time.Timer

	stopOnce sync.Once
	onStop   func(*collector)
}

var _ interact.Collector = (*collector)(nil)

func newCollector(kind interact.EventKind, timeout time.Duration, onStop func(*collector)) *collector {
	c := &collector{
		kind:   kind,
		events: make(chan interact.Event, 16),
		done:   make(chan struct{}),
		onStop: onStop,
	}
	c.timer = time.AfterFunc(timeout, c.Stop)
	return c
}

func (c *collector) Events() <-chan interact.Event { return c.events }

func (c *collector) Done() <-chan struct{} { return c.done }

func (c *collector) Stop() {
	c.stopOnce.Do(func() {
		c.timer.Stop()
		close(c.done)
		if c.onStop != nil {
			c.onStop(c)
		}
	})
}

// deliver hands an event to the consumer. Events of the wrong kind are
// dropped unless the collector listens for everything. Returns false
// when the collector is already stopped.
func (c *collector) deliver(ctx context.Context, ev interact.Event) bool {
	if c.kind != interact.EventAny && ev.Kind != c.kind {
		return true
	}
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	case <-ctx.Done():
		return false
	}
}
