// Package hook is the host event bus plugins register against.
//
// Context
// -------
// A Bus maps event names (init, admin_menu, <plugin>_cron_hook, …) to
// ordered callbacks.  It is an explicit value built by the host's startup
// routine and handed to every registrar; nothing registers itself at
// construction time.
//
// Ordering
// --------
// Callbacks run in ascending priority, then in registration order.  On
// uses DefaultPriority.  Every callback runs even when an earlier one
// fails; Fire returns all failures joined.
//
// Notes
// -----
// • Safe for concurrent use.  Fire snapshots the list, so a callback may
//   register further callbacks without deadlocking; they run on the next Fire.
// • Oxford commas, two spaces after periods.
package hook

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Well-known events fired by the host.
const (
	Init      = "init"
	AdminMenu = "admin_menu"
)

// DefaultPriority matches the host's default ordering slot.
const DefaultPriority = 10

// Func is one callback.  args are event-specific.
type Func func(ctx context.Context, args ...any) error

type entry struct {
	prio int
	seq  int
	fn   Func
}

// Bus is the zero-config event registry.  Use NewBus.
type Bus struct {
	mu    sync.RWMutex
	seq   int
	hooks map[string][]entry
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{hooks: make(map[string][]entry)}
}

// On registers fn at DefaultPriority.
func (b *Bus) On(event string, fn Func) {
	b.OnPriority(event, DefaultPriority, fn)
}

// OnPriority registers fn at prio.  Lower runs first.
func (b *Bus) OnPriority(event string, prio int, fn Func) {
	if fn == nil {
		panic("hook: nil callback for " + event)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	list := append(b.hooks[event], entry{prio: prio, seq: b.seq, fn: fn})
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].prio != list[j].prio {
			return list[i].prio < list[j].prio
		}
		return list[i].seq < list[j].seq
	})
	b.hooks[event] = list
}

// Has reports whether event has at least one callback.
func (b *Bus) Has(event string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.hooks[event]) > 0
}

// Fire runs every callback for event.  A canceled ctx stops the chain
// before the next callback starts.
func (b *Bus) Fire(ctx context.Context, event string, args ...any) error {
	b.mu.RLock()
	list := make([]entry, len(b.hooks[event]))
	copy(list, b.hooks[event])
	b.mu.RUnlock()

	zap.L().Debug("hook fire", zap.String("event", event), zap.Int("callbacks", len(list)))

	var errs []error
	for i, e := range list {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("%s: stopped before callback %d: %w", event, i, err))
			break
		}
		if err := e.fn(ctx, args...); err != nil {
			errs = append(errs, fmt.Errorf("%s[%d]: %w", event, e.prio, err))
		}
	}
	return errors.Join(errs...)
}
