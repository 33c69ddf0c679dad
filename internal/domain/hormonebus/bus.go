// Package hormonebus implements the organism's central nervous system: a
// pub/sub event bus that organs use to react to each other without being
// wired together directly.
package hormonebus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/w0rd-garden/w0rd/internal/domain"
)

// MaxDepth bounds how many hops a signal chain may travel before the bus
// drops it and logs a warning, preventing feedback loops between organs.
const MaxDepth = 8

// Subscriber reacts to a dispatched hormone. Handlers run concurrently
// with every other subscriber of the same hormone name; a handler error
// is logged and does not stop its siblings.
type Subscriber func(ctx context.Context, h *domain.Hormone) error

type subscriberList struct {
	mu   sync.RWMutex
	subs []Subscriber
}

// Bus fans instant hormones out to subscribers immediately and queues
// slow-release hormones for a later flush, mirroring the asyncio-based
// reference implementation's dispatch loop.
type Bus struct {
	subscribers *xsync.MapOf[string, *subscriberList]
	history     []*domain.Hormone
	historyMu   sync.Mutex
	maxHistory  int

	slowReleaseMu    sync.Mutex
	slowReleaseQueue []*domain.Hormone

	logger *slog.Logger
}

// New creates a Bus. maxHistory bounds the in-memory hormone log kept
// for introspection; pass 0 for an effectively unbounded history.
func New(logger *slog.Logger, maxHistory int) *Bus {
	return &Bus{
		subscribers: xsync.NewMapOf[string, *subscriberList](),
		maxHistory:  maxHistory,
		logger:      logger.With("organ", "hormonebus"),
	}
}

// Subscribe registers a handler for every hormone of the given name.
func (b *Bus) Subscribe(name string, sub Subscriber) {
	list, _ := b.subscribers.LoadOrCompute(name, func() *subscriberList {
		return &subscriberList{}
	})
	list.mu.Lock()
	list.subs = append(list.subs, sub)
	list.mu.Unlock()
}

// SubscriberCount returns how many handlers are registered for name.
func (b *Bus) SubscriberCount(name string) int {
	list, ok := b.subscribers.Load(name)
	if !ok {
		return 0
	}
	list.mu.RLock()
	defer list.mu.RUnlock()
	return len(list.subs)
}

// Emit appends h to history and, if within MaxDepth, dispatches it: an
// instant hormone fans out to subscribers right away; a slow-release
// hormone is queued for FlushSlowRelease.
func (b *Bus) Emit(ctx context.Context, h *domain.Hormone) {
	if h.ID == "" {
		h.ID = uuid.New().String()[:12]
	}
	if h.Timestamp.IsZero() {
		h.Timestamp = time.Now()
	}
	b.appendHistory(h)

	if h.Depth > MaxDepth {
		b.logger.Warn("dropping hormone, max depth exceeded",
			"hormone", h.Name, "emitter", h.Emitter, "depth", h.Depth)
		return
	}

	switch h.Type {
	case domain.HormoneSlowRelease:
		b.slowReleaseMu.Lock()
		b.slowReleaseQueue = append(b.slowReleaseQueue, h)
		b.slowReleaseMu.Unlock()
	default:
		b.dispatch(ctx, h)
	}
}

// Signal is a convenience wrapper for emitting in direct response to
// another hormone: depth is set to parentDepth+1 so chains are tracked.
func (b *Bus) Signal(ctx context.Context, name string, payload map[string]any, emitter string, kind domain.HormoneType, parentDepth int) {
	h := domain.NewHormone(uuid.New().String()[:12], name, payload, emitter, kind)
	h.Depth = parentDepth + 1
	b.Emit(ctx, h)
}

// dispatch fans h out to every subscriber of its name concurrently,
// mirroring the reference bus's asyncio.gather(return_exceptions=True):
// one handler's error never prevents its siblings from running.
func (b *Bus) dispatch(ctx context.Context, h *domain.Hormone) {
	list, ok := b.subscribers.Load(h.Name)
	if !ok {
		return
	}
	list.mu.RLock()
	subs := make([]Subscriber, len(list.subs))
	copy(subs, list.subs)
	list.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub Subscriber) {
			defer wg.Done()
			if err := sub(ctx, h); err != nil {
				b.logger.Error("subscriber failed", "hormone", h.Name, "error", err)
			}
		}(sub)
	}
	wg.Wait()
}

// FlushSlowRelease drains and dispatches every queued slow-release
// hormone in FIFO order.
func (b *Bus) FlushSlowRelease(ctx context.Context) {
	b.slowReleaseMu.Lock()
	queued := b.slowReleaseQueue
	b.slowReleaseQueue = nil
	b.slowReleaseMu.Unlock()

	for _, h := range queued {
		b.dispatch(ctx, h)
	}
}

func (b *Bus) appendHistory(h *domain.Hormone) {
	b.historyMu.Lock()
	defer b.historyMu.Unlock()
	b.history = append(b.history, h)
	if b.maxHistory > 0 && len(b.history) > b.maxHistory {
		b.history = b.history[len(b.history)-b.maxHistory:]
	}
}

// History returns a snapshot of the retained hormone history: the most
// recent maxHistory hormones emitted (all of them when maxHistory <= 0).
func (b *Bus) History() []*domain.Hormone {
	b.historyMu.Lock()
	defer b.historyMu.Unlock()
	out := make([]*domain.Hormone, len(b.history))
	copy(out, b.history)
	return out
}

// Recent returns the last n hormones emitted.
func (b *Bus) Recent(n int) []*domain.Hormone {
	b.historyMu.Lock()
	defer b.historyMu.Unlock()
	if n > len(b.history) {
		n = len(b.history)
	}
	out := make([]*domain.Hormone, n)
	copy(out, b.history[len(b.history)-n:])
	return out
}

// HistoryFor returns every recorded hormone with the given name.
func (b *Bus) HistoryFor(name string) []*domain.Hormone {
	b.historyMu.Lock()
	defer b.historyMu.Unlock()
	var out []*domain.Hormone
	for _, h := range b.history {
		if h.Name == name {
			out = append(out, h)
		}
	}
	return out
}

// ClearHistory discards the recorded hormone log without affecting
// subscriptions or the slow-release queue.
func (b *Bus) ClearHistory() {
	b.historyMu.Lock()
	defer b.historyMu.Unlock()
	b.history = nil
}
