// Package scheduler provides the host's in-process task runner.
//
// Context
// -------
// Ticker implements plugin.Scheduler.  Each scheduled hook gets one
// goroutine that waits until `start`, fires the hook on the bus, then fires
// again every `every` until the hook is unscheduled, Stop is called, or the
// parent context ends.
//
// Notes
// -----
// • No persistence, no catch-up of missed runs, and no cross-process
//   locking.  A restart simply reschedules on the next `init`.
// • A firing that overruns the interval delays the next one; runs of the
//   same hook never overlap.
// • Oxford commas, two spaces after periods.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/plubo/internal/hook"
)

type entry struct {
	group  string
	every  time.Duration
	cancel context.CancelFunc
}

// Ticker is safe for concurrent use.
type Ticker struct {
	bus    *hook.Bus
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	jobs map[string]entry
}

// NewTicker returns a Ticker bound to ctx.  Call Stop to release it.
func NewTicker(ctx context.Context, bus *hook.Bus) *Ticker {
	ctx, cancel := context.WithCancel(ctx)
	return &Ticker{bus: bus, ctx: ctx, cancel: cancel, jobs: make(map[string]entry)}
}

// Scheduled reports whether hook has a live schedule.
func (t *Ticker) Scheduled(hook string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.jobs[hook]
	return ok
}

// ScheduleRecurring fires hook at start and then every interval.  A start
// in the past fires immediately.
func (t *Ticker) ScheduleRecurring(start time.Time, every time.Duration, hook, group string) error {
	if every <= 0 {
		return fmt.Errorf("scheduler: interval must be positive, got %s", every)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ctx.Err() != nil {
		return fmt.Errorf("scheduler: stopped")
	}
	if _, dup := t.jobs[hook]; dup {
		return fmt.Errorf("scheduler: %q already scheduled", hook)
	}

	ctx, cancel := context.WithCancel(t.ctx)
	t.jobs[hook] = entry{group: group, every: every, cancel: cancel}

	t.wg.Add(1)
	go t.loop(ctx, start, every, hook)
	return nil
}

// Unschedule cancels hook.  Unknown hooks are ignored.
func (t *Ticker) Unschedule(hook string) {
	t.mu.Lock()
	e, ok := t.jobs[hook]
	delete(t.jobs, hook)
	t.mu.Unlock()
	if ok {
		e.cancel()
	}
}

// Stop cancels every schedule and waits for running hooks to return.
func (t *Ticker) Stop() {
	t.cancel()
	t.wg.Wait()
	t.mu.Lock()
	clear(t.jobs)
	t.mu.Unlock()
}

func (t *Ticker) loop(ctx context.Context, start time.Time, every time.Duration, name string) {
	defer t.wg.Done()
	log := zap.L().With(zap.String("hook", name))

	timer := time.NewTimer(max(time.Until(start), 0))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		began := time.Now()
		if err := t.bus.Fire(ctx, name); err != nil {
			log.Warn("scheduled hook failed", zap.Error(err))
		}
		log.Debug("scheduled hook ran", zap.Duration("took", time.Since(began)))

		timer.Reset(every)
	}
}
