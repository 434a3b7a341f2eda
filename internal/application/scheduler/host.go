package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"

	"github.com/example/teetime-scheduler/internal/domain/settings"
	"github.com/example/teetime-scheduler/internal/domain/teetime"
	"github.com/example/teetime-scheduler/internal/platform/logging"
)

// ReminderSchedule is when the reminder sweep runs.
const ReminderSchedule = "0 * * * *"

// Sweeper sends due tee-time reminders.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Host owns the cron timer. It keeps at most one booking entry, armed only
// while the scheduler is enabled, plus the hourly reminder entry.
type Host struct {
	Coordinator *Coordinator
	Settings    settings.Store
	Reminders   Sweeper
	Location    *time.Location
	Log         *logging.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	baseCtx context.Context
	entry   cron.EntryID
	armed   bool
	expr    string
}

type Status struct {
	Enabled                   bool       `json:"enabled"`
	CronExpression            string     `json:"cronExpression"`
	BookingDaysAhead          int        `json:"bookingDaysAhead"`
	PreferredTeeTime          string     `json:"preferredTeeTime"`
	TeeTimeFlexibilityMinutes int        `json:"teeTimeFlexibilityMinutes"`
	NextRunTime               *time.Time `json:"nextRunTime"`
	IsRunning                 bool       `json:"isRunning"`
	Scheduled                 bool       `json:"scheduled"`
}

type cronLogger struct{ l *logging.Logger }

func (c cronLogger) Info(msg string, kv ...any) { c.l.Debug("cron: "+msg, kv...) }
func (c cronLogger) Error(err error, msg string, kv ...any) {
	c.l.Error("cron: "+msg, append([]any{"error", err}, kv...)...)
}

// Start creates the timer from the stored settings. Runs fired by the timer
// use ctx as their parent.
func (h *Host) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cron != nil {
		return errors.New("scheduler host already started")
	}

	loc := h.Location
	if loc == nil {
		loc = time.Local
	}
	logger := cronLogger{h.Log}
	h.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger)),
	)
	h.baseCtx = ctx

	if h.Reminders != nil {
		if _, err := h.cron.AddFunc(ReminderSchedule, h.sweep); err != nil {
			return errors.Wrap(err, "schedule reminders")
		}
	}

	s, err := h.Settings.Get(ctx)
	if err != nil {
		return errors.Wrap(err, "load scheduler settings")
	}
	if err := h.rearm(s.Scheduler); err != nil {
		return err
	}
	h.cron.Start()
	h.Log.Info("scheduler started", "enabled", s.Scheduler.Enabled, "cron", s.Scheduler.CronExpression)
	return nil
}

// Stop halts the timer and waits for a run that is already in progress.
func (h *Host) Stop(ctx context.Context) error {
	h.mu.Lock()
	c := h.cron
	h.mu.Unlock()
	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		h.Log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reschedule replaces the booking entry with one for cfg, or removes it when
// cfg is disabled. An invalid expression is rejected and leaves the current
// entry untouched. A run already in progress is not interrupted.
func (h *Host) Reschedule(cfg settings.Scheduler) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cron == nil {
		return errors.New("scheduler host not started")
	}
	if err := h.rearm(cfg); err != nil {
		return err
	}
	h.Log.Info("scheduler rescheduled", "enabled", cfg.Enabled, "cron", cfg.CronExpression)
	return nil
}

func (h *Host) rearm(cfg settings.Scheduler) error {
	var sched cron.Schedule
	if cfg.Enabled {
		s, err := cron.ParseStandard(cfg.CronExpression)
		if err != nil {
			return teetime.WrapConfiguration(err, "cron expression %q", cfg.CronExpression)
		}
		sched = s
	}

	if h.armed {
		h.cron.Remove(h.entry)
		h.armed = false
		h.expr = ""
	}
	if sched == nil {
		return nil
	}
	h.entry = h.cron.Schedule(sched, cron.FuncJob(h.fire))
	h.armed = true
	h.expr = cfg.CronExpression
	return nil
}

func (h *Host) fire() {
	res := h.Coordinator.Trigger(h.baseCtx, SourceCron)
	if res.Busy {
		h.Log.Warn("scheduled run skipped, previous run still active", "run_id", res.RunID)
	}
}

func (h *Host) sweep() {
	n, err := h.Reminders.Sweep(h.baseCtx)
	if err != nil {
		h.Log.Error("reminder sweep", "error", err)
		return
	}
	if n > 0 {
		h.Log.Info("reminders sent", "count", n)
	}
}

// NextRun returns the next firing time of the booking entry, or nil when the
// scheduler is disarmed.
func (h *Host) NextRun() *time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cron == nil || !h.armed {
		return nil
	}
	next := h.cron.Entry(h.entry).Next
	if next.IsZero() {
		// the timer computes Next once it is running
		n, err := NextFire(h.expr, time.Now().In(h.cron.Location()))
		if err != nil {
			return nil
		}
		next = n
	}
	return &next
}

// NextFire returns the first time after t matched by a five-field cron
// expression, in t's location.
func NextFire(expr string, t time.Time) (time.Time, error) {
	s, err := cron.ParseStandard(expr)
	if err != nil {
		return time.Time{}, teetime.WrapConfiguration(err, "cron expression %q", expr)
	}
	return s.Next(t), nil
}

func (h *Host) Status(ctx context.Context) (Status, error) {
	s, err := h.Settings.Get(ctx)
	if err != nil {
		return Status{}, err
	}
	h.mu.Lock()
	armed := h.armed
	h.mu.Unlock()
	return Status{
		Enabled:                   s.Scheduler.Enabled,
		CronExpression:            s.Scheduler.CronExpression,
		BookingDaysAhead:          s.Scheduler.BookingDaysAhead,
		PreferredTeeTime:          s.Scheduler.PreferredTeeTime,
		TeeTimeFlexibilityMinutes: s.Scheduler.TeeTimeFlexibilityMinutes,
		NextRunTime:               h.NextRun(),
		IsRunning:                 h.Coordinator.Running(),
		Scheduled:                 armed,
	}, nil
}
