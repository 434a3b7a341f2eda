package usecases

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/example/teetime-scheduler/internal/db"
	"github.com/example/teetime-scheduler/internal/domain/player"
	"github.com/example/teetime-scheduler/internal/domain/teetime"
	"github.com/example/teetime-scheduler/internal/platform/logging"
)

const unknownBookingError = "unknown booking error"

// Executor books one candidate. It never retries.
type Executor struct {
	Surface     teetime.Surface
	Players     player.Store
	StepTimeout time.Duration
	Log         *logging.Logger
}

type Reservation struct {
	Date        time.Time
	Candidate   teetime.Candidate
	PlayerIDs   []string
	UseCart     bool
	Credentials teetime.Credentials
}

// Execute drives the booking sequence and always returns the attempt, in a
// terminal state, together with the error that ended it (nil on success).
// Credentials and players are checked before a session is opened.
func (e Executor) Execute(ctx context.Context, r Reservation) (attempt teetime.BookingAttempt, err error) {
	attempt = teetime.NewAttempt(r.Date.Format(teetime.DateLayout), r.Candidate.Time24, r.PlayerIDs, r.UseCart)
	attempt.Price = r.Candidate.Price
	log := e.Log.With("date", attempt.Date, "time", attempt.Time24)

	fail := func(ferr error) (teetime.BookingAttempt, error) {
		stage := attempt.Stage()
		attempt.Fail(ferr.Error())
		log.Warn("booking attempt failed", "stage", stage.String(), "kind", teetime.Kind(ferr), "error", ferr)
		return attempt, ferr
	}

	if !r.Credentials.Complete() {
		return fail(teetime.ConfigurationErrorf("booking site credentials are not configured"))
	}
	if n := len(r.PlayerIDs); n < 1 || n > 4 {
		return fail(teetime.ConfigurationErrorf("a booking needs between 1 and 4 players, got %d", n))
	}
	players, err := e.resolvePlayers(ctx, r.PlayerIDs)
	if err != nil {
		return fail(err)
	}

	sess, err := e.Surface.Open(ctx)
	if err != nil {
		return fail(classify(ctx, err, teetime.ErrProbe, "open session"))
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn("close session", "error", cerr)
		}
	}()
	defer func() {
		if p := recover(); p != nil {
			attempt, err = fail(errors.Mark(errors.Newf("booking session panicked: %v", p), teetime.ErrProbe))
		}
	}()

	step := func(name string, def error, fn func(context.Context) error) error {
		sctx, cancel := withStep(ctx, e.StepTimeout)
		defer cancel()
		if err := fn(sctx); err != nil {
			return classify(ctx, err, def, name)
		}
		return nil
	}

	if err := step("authenticate", teetime.ErrAuth, func(c context.Context) error {
		return sess.Authenticate(c, r.Credentials)
	}); err != nil {
		return fail(err)
	}
	if err := attempt.Advance(teetime.StageAuthenticated); err != nil {
		return fail(err)
	}

	if err := step("select slot", teetime.ErrSlotUnavailable, func(c context.Context) error {
		return sess.SelectSlot(c, r.Date, r.Candidate)
	}); err != nil {
		return fail(err)
	}
	if err := attempt.Advance(teetime.StageSlotSelected); err != nil {
		return fail(err)
	}

	if err := step("fill players", teetime.ErrProbe, func(c context.Context) error {
		return sess.FillPlayers(c, players, r.UseCart)
	}); err != nil {
		return fail(err)
	}
	if err := attempt.Advance(teetime.StagePlayersFilled); err != nil {
		return fail(err)
	}

	var outcome teetime.Outcome
	if err := step("submit", teetime.ErrProbe, func(c context.Context) error {
		var serr error
		outcome, serr = sess.Submit(c)
		return serr
	}); err != nil {
		return fail(err)
	}
	if err := attempt.Advance(teetime.StageSubmitted); err != nil {
		return fail(err)
	}

	if !outcome.Confirmed || outcome.ConfirmationNumber == "" {
		reason := outcome.Message
		if reason == "" {
			reason = unknownBookingError
		}
		return fail(errors.Mark(errors.New(reason), teetime.ErrBookingRejected))
	}
	if err := attempt.Confirm(outcome.ConfirmationNumber); err != nil {
		return fail(err)
	}
	log.Info("booking confirmed", "confirmation", outcome.ConfirmationNumber, "players", len(players))
	return attempt, nil
}

func (e Executor) resolvePlayers(ctx context.Context, ids []string) ([]player.Player, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]player.Player, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, teetime.ConfigurationErrorf("player %s listed twice", id)
		}
		seen[id] = struct{}{}
		p, err := e.Players.Get(ctx, id)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, errors.Mark(errors.Newf("player %s not found", id), teetime.ErrUnknownPlayer)
			}
			return nil, errors.Wrapf(err, "load player %s", id)
		}
		out = append(out, p)
	}
	return out, nil
}
