// Package scheduler runs booking attempts, either on a cron schedule or on
// demand, one at a time.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/example/teetime-scheduler/internal/application/usecases"
	"github.com/example/teetime-scheduler/internal/domain/booking"
	"github.com/example/teetime-scheduler/internal/domain/player"
	"github.com/example/teetime-scheduler/internal/domain/settings"
	"github.com/example/teetime-scheduler/internal/domain/teetime"
	"github.com/example/teetime-scheduler/internal/platform/logging"
)

type Source string

const (
	SourceCron   Source = "cron"
	SourceManual Source = "manual"
	// SourceDirect is a caller-chosen slot booked without probing.
	SourceDirect Source = "direct"
)

// Notifier receives the outcome of an attempt.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, a teetime.BookingAttempt, to string) (bool, error)
	SendBookingFailure(ctx context.Context, a teetime.BookingAttempt, reason, to string) (bool, error)
}

type Result struct {
	RunID   string                  `json:"runId"`
	Success bool                    `json:"success"`
	Busy    bool                    `json:"-"`
	Message string                  `json:"message,omitempty"`
	Booking *teetime.BookingAttempt `json:"booking,omitempty"`
	Errors  []string                `json:"errors,omitempty"`
}

func failed(runID string, err error) Result {
	return Result{RunID: runID, Errors: []string{err.Error()}}
}

// Coordinator owns the process-wide run lock. At most one run or search holds
// it at a time; a trigger that finds it held returns immediately.
type Coordinator struct {
	Settings    settings.Store
	Players     player.Store
	Bookings    booking.Store
	Prober      usecases.Prober
	Executor    usecases.Executor
	Notifier    Notifier
	Credentials teetime.Credentials
	Location    *time.Location
	// RunTimeout bounds a whole run. When it expires the browser session is
	// torn down and the run ends as a probe failure.
	RunTimeout time.Duration
	Now        func() time.Time
	Log        *logging.Logger

	running atomic.Bool
}

// Running reports whether a run currently holds the lock.
func (c *Coordinator) Running() bool { return c.running.Load() }

func (c *Coordinator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Coordinator) acquire() bool { return c.running.CompareAndSwap(false, true) }
func (c *Coordinator) release()      { c.running.Store(false) }

func (c *Coordinator) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.RunTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.RunTimeout)
}

// Trigger performs one acquisition run. Cron-fired runs are skipped when the
// scheduler is disabled in the settings they read; manual runs always
// proceed.
func (c *Coordinator) Trigger(ctx context.Context, source Source) Result {
	runID := uuid.NewString()
	if !c.acquire() {
		c.Log.Warn("run rejected, another run is in progress", "run_id", runID, "trigger", string(source))
		return Result{RunID: runID, Busy: true, Errors: []string{teetime.ErrBusy.Error()}}
	}
	defer c.release()

	ctx, cancel := c.runContext(ctx)
	defer cancel()

	log := c.Log.With("run_id", runID, "trigger", string(source))
	started := c.now()
	res := c.run(ctx, log, runID, source)
	log.Info("run finished", "success", res.Success, "errors", res.Errors, "elapsed", time.Since(started).String())
	return res
}

func (c *Coordinator) run(ctx context.Context, log *logging.Logger, runID string, source Source) Result {
	snap, err := c.Settings.Get(ctx)
	if err != nil {
		log.Error("load settings", "step", "settings", "error", err)
		return failed(runID, err)
	}
	if source == SourceCron && !snap.Scheduler.Enabled {
		log.Info("scheduler disabled, skipping run")
		return Result{RunID: runID, Success: true, Message: "scheduler disabled"}
	}

	target, err := teetime.Resolve(snap.Scheduler.Preference(), c.now(), c.Location)
	if err != nil {
		log.Error("resolve preference", "step", "resolve", "kind", teetime.Kind(err), "error", err)
		return failed(runID, err)
	}
	log = log.With("date", target.DateString(), "window", target.Window.String())

	if !c.Credentials.Complete() {
		err := teetime.ConfigurationErrorf("booking site credentials are not configured")
		log.Error("missing credentials", "step", "resolve", "kind", teetime.Kind(err))
		return failed(runID, err)
	}

	// Players are checked before any external call.
	roster, err := c.Players.List(ctx)
	if err != nil {
		log.Error("list players", "step", "players", "error", err)
		return failed(runID, err)
	}
	need := snap.DefaultPlayers
	if len(roster) < need {
		err := errors.Mark(
			errors.Newf("insufficient players: need %d, only %d registered", need, len(roster)),
			teetime.ErrInsufficientPlayers)
		log.Error("not enough players", "step", "players", "need", need, "have", len(roster))
		return failed(runID, err)
	}
	participants := roster[:need]

	candidates, err := c.Prober.Probe(ctx, target.Date, target.Window, need)
	if err != nil {
		err = c.deadline(ctx, err)
		log.Error("probe failed", "step", "probe", "kind", teetime.Kind(err), "error", err)
		return failed(runID, err)
	}
	if len(candidates) == 0 {
		log.Info("no candidates in window", "step", "probe")
		return Result{RunID: runID, Success: true, Message: "no available tee times in the preferred window"}
	}

	best := teetime.Rank(candidates, target.PreferredMinutes)[0]
	log.Info("selected candidate", "step", "rank", "time", best.Time24, "spots", best.AvailableSpots, "candidates", len(candidates))

	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.ID)
	}
	attempt, err := c.Executor.Execute(ctx, usecases.Reservation{
		Date:        target.Date,
		Candidate:   best,
		PlayerIDs:   ids,
		UseCart:     snap.DefaultUseCart,
		Credentials: c.Credentials,
	})
	if err != nil {
		err = c.deadline(ctx, err)
	}
	to, _ := player.FirstEmail(participants)
	return c.finish(ctx, log, runID, attempt, to, err)
}

// deadline relabels an error caused by the run deadline.
func (c *Coordinator) deadline(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, teetime.ErrProbe) {
		return errors.Mark(errors.Wrap(err, "run deadline exceeded"), teetime.ErrProbe)
	}
	return err
}

// finish persists the attempt and notifies to, when set. Attempts rejected
// before a session was opened because of their input are neither stored
// nor reported.
func (c *Coordinator) finish(ctx context.Context, log *logging.Logger, runID string, attempt teetime.BookingAttempt, to string, runErr error) Result {
	// Notification and persistence must not be cut short by an expired run
	// deadline.
	ctx = context.WithoutCancel(ctx)
	hasEmail := to != ""

	if runErr != nil && (errors.Is(runErr, teetime.ErrConfiguration) || errors.Is(runErr, teetime.ErrUnknownPlayer)) {
		log.Error("booking not attempted", "step", "execute", "kind", teetime.Kind(runErr), "error", runErr)
		return failed(runID, runErr)
	}

	saved, err := c.Bookings.Create(ctx, attempt)
	if err != nil {
		log.Error("store booking", "step", "persist", "error", err)
		saved = attempt
	}

	if attempt.Status == teetime.StatusConfirmed {
		if hasEmail {
			if _, nerr := c.Notifier.SendBookingConfirmation(ctx, saved, to); nerr != nil {
				log.Warn("confirmation email", "error", nerr)
			}
		}
		res := Result{RunID: runID, Success: true, Message: fmt.Sprintf("booked %s %s", saved.Date, saved.Time24), Booking: &saved}
		if err != nil {
			res.Errors = []string{fmt.Sprintf("booking confirmed (%s) but could not be saved: %v", saved.ConfirmationNumber, err)}
		}
		return res
	}

	reason := attempt.FailureReason
	if reason == "" && runErr != nil {
		reason = runErr.Error()
	}
	log.Error("booking failed", "step", "execute", "kind", teetime.Kind(runErr), "reason", reason)
	if hasEmail {
		if _, nerr := c.Notifier.SendBookingFailure(ctx, saved, reason, to); nerr != nil {
			log.Warn("failure email", "error", nerr)
		}
	}
	return Result{RunID: runID, Booking: &saved, Errors: []string{reason}}
}

// Book reserves a caller-chosen slot without probing first. It holds the run
// lock for the whole attempt, so it is rejected while a run or search is
// active, and its outcome is stored and notified like a run's. An empty email
// notifies the first participant that has one.
func (c *Coordinator) Book(ctx context.Context, r usecases.Reservation, email string) Result {
	runID := uuid.NewString()
	if !c.acquire() {
		c.Log.Warn("booking rejected, another run is in progress", "run_id", runID, "trigger", string(SourceDirect))
		return Result{RunID: runID, Busy: true, Errors: []string{teetime.ErrBusy.Error()}}
	}
	defer c.release()

	ctx, cancel := c.runContext(ctx)
	defer cancel()

	log := c.Log.With("run_id", runID, "trigger", string(SourceDirect),
		"date", r.Date.Format(teetime.DateLayout), "time", r.Candidate.Time24)
	r.Credentials = c.Credentials
	to := strings.TrimSpace(email)
	if to == "" {
		to = c.firstEmail(ctx, r.PlayerIDs)
	}

	attempt, err := c.Executor.Execute(ctx, r)
	if err != nil {
		err = c.deadline(ctx, err)
	}
	res := c.finish(ctx, log, runID, attempt, to, err)
	log.Info("booking finished", "success", res.Success, "errors", res.Errors)
	return res
}

// firstEmail looks up ids in order and returns the first address found.
// Unknown ids are skipped; the executor reports them.
func (c *Coordinator) firstEmail(ctx context.Context, ids []string) string {
	found := make([]player.Player, 0, len(ids))
	for _, id := range ids {
		if p, err := c.Players.Get(ctx, id); err == nil {
			found = append(found, p)
		}
	}
	to, _ := player.FirstEmail(found)
	return to
}

// Search probes the configured facility for an ad-hoc date and window. It
// shares the run lock, so it returns teetime.ErrBusy while a run is active.
func (c *Coordinator) Search(ctx context.Context, date time.Time, window teetime.TimeWindow, preferredMinutes, minPlayers int) ([]teetime.Candidate, error) {
	if !c.acquire() {
		return nil, teetime.ErrBusy
	}
	defer c.release()

	ctx, cancel := c.runContext(ctx)
	defer cancel()

	got, err := c.Prober.Probe(ctx, date, window, minPlayers)
	if err != nil {
		return nil, c.deadline(ctx, err)
	}
	return teetime.Rank(got, preferredMinutes), nil
}
