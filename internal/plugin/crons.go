// internal/plugin/crons.go
//
// Recurring job shim.
//
// Context
// -------
// On `init` the shim makes sure `<plugin>_cron_hook` is scheduled, once.
// It prefers the primary scheduler (a queue-backed runner) and falls back
// to the secondary one when no primary is configured.  Firing the hook runs
// the job.
//
// Notes
// -----
// • Scheduling semantics (catch-up, locking, persistence) belong to the
//   scheduler, not to this shim.
// • Oxford commas, two spaces after periods.

package plugin

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/plubo/internal/hook"
	"github.com/yanizio/plubo/internal/metrics"
)

// Hourly is the default recurrence.
const Hourly = time.Hour

// Scheduler is implemented by the host's task runners.
type Scheduler interface {
	Scheduled(hook string) bool
	ScheduleRecurring(start time.Time, every time.Duration, hook, group string) error
}

// Job is the work a cron hook performs.
type Job func(ctx context.Context) error

// Crons schedules and runs one recurring job.
type Crons struct {
	plugin   Plugin
	job      Job
	every    time.Duration
	primary  Scheduler
	fallback Scheduler
	now      func() time.Time
}

// NewCrons has no side effects; call Register.  every <= 0 means Hourly.
// Either scheduler may be nil, but not both.
func NewCrons(p Plugin, job Job, every time.Duration, primary, fallback Scheduler) *Crons {
	if every <= 0 {
		every = Hourly
	}
	return &Crons{
		plugin:   p,
		job:      job,
		every:    every,
		primary:  primary,
		fallback: fallback,
		now:      time.Now,
	}
}

// Hook returns the event name the job is bound to.
func (c *Crons) Hook() string { return c.plugin.CronHook() }

// Register attaches the shim to bus.
func (c *Crons) Register(bus *hook.Bus) {
	bus.On(hook.Init, c.schedule)
	bus.On(c.Hook(), c.run)
}

func (c *Crons) schedule(context.Context, ...any) error {
	name := c.Hook()

	if c.primary != nil {
		if c.primary.Scheduled(name) {
			return nil
		}
		zap.L().Info("cron scheduled", zap.String("hook", name), zap.String("scheduler", "primary"))
		return c.primary.ScheduleRecurring(c.now(), c.every, name, c.plugin.Name)
	}

	if c.fallback == nil {
		return errors.New("cron: no scheduler available for " + name)
	}
	if c.fallback.Scheduled(name) {
		return nil
	}
	zap.L().Info("cron scheduled", zap.String("hook", name), zap.String("scheduler", "fallback"))
	return c.fallback.ScheduleRecurring(c.now(), c.every, name, "")
}

func (c *Crons) run(ctx context.Context, _ ...any) error {
	if c.job == nil {
		return nil
	}
	err := c.job(ctx)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		zap.L().Error("cron job failed", zap.String("hook", c.Hook()), zap.Error(err))
	}
	metrics.CronRunsTotal.WithLabelValues(c.Hook(), outcome).Inc()
	return err
}
