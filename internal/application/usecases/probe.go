package usecases

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/example/teetime-scheduler/internal/domain/teetime"
	"github.com/example/teetime-scheduler/internal/platform/logging"
)

// Prober lists open tee times on one date.
type Prober struct {
	Surface     teetime.Surface
	StepTimeout time.Duration
	Log         *logging.Logger
}

// Probe opens a session, reads the schedule for date and returns the slots
// inside window that have at least minPlayers open spots. An empty result is
// not an error.
func (p Prober) Probe(ctx context.Context, date time.Time, window teetime.TimeWindow, minPlayers int) ([]teetime.Candidate, error) {
	log := p.Log.With("step", "probe", "date", date.Format(teetime.DateLayout), "window", window.String())

	sess, err := p.Surface.Open(ctx)
	if err != nil {
		return nil, classify(ctx, err, teetime.ErrProbe, "open session")
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn("close session", "error", cerr)
		}
	}()

	stepCtx, cancel := withStep(ctx, p.StepTimeout)
	raw, err := sess.ListSlots(stepCtx, date)
	cancel()
	if err != nil {
		return nil, classify(ctx, err, teetime.ErrProbe, "list slots")
	}

	out := make([]teetime.Candidate, 0, len(raw))
	for _, r := range raw {
		c, err := teetime.Normalize(r)
		if err != nil {
			return nil, err
		}
		if !window.Contains(c.Minutes()) || c.AvailableSpots < minPlayers {
			continue
		}
		out = append(out, c)
	}
	log.Info("probe finished", "slots", len(raw), "candidates", len(out), "min_players", minPlayers)
	return out, nil
}

func withStep(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

var taxonomy = []error{
	teetime.ErrConfiguration,
	teetime.ErrProbe,
	teetime.ErrSlotUnavailable,
	teetime.ErrUnknownPlayer,
	teetime.ErrAuth,
	teetime.ErrInsufficientPlayers,
	teetime.ErrBookingRejected,
}

// classify wraps err with the step name. Errors that already carry a failure
// class keep it; timeouts and cancellations become probe errors; anything
// else gets def.
func classify(ctx context.Context, err error, def error, step string) error {
	for _, k := range taxonomy {
		if errors.Is(err, k) {
			return errors.Wrap(err, step)
		}
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errors.Mark(errors.Wrapf(err, "%s: timed out", step), teetime.ErrProbe)
	}
	return errors.Mark(errors.Wrap(err, step), def)
}
