package usecases

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/example/teetime-scheduler/internal/db"
	"github.com/example/teetime-scheduler/internal/domain/booking"
	"github.com/example/teetime-scheduler/internal/domain/player"
	"github.com/example/teetime-scheduler/internal/domain/teetime"
	"github.com/example/teetime-scheduler/internal/platform/logging"
	"github.com/example/teetime-scheduler/internal/platform/validation"
)

// BookingRecord is the editable part of a stored booking. It is used to
// record tee times booked outside the engine and to correct stored ones.
type BookingRecord struct {
	Date               string   `json:"date" validate:"required,datetime=2006-01-02"`
	Time               string   `json:"time" validate:"required,hhmm"`
	Players            []string `json:"players" validate:"required,min=1,max=4,unique,dive,required"`
	UseCart            bool     `json:"useCart"`
	Status             string   `json:"status" validate:"omitempty,oneof=confirmed failed"`
	ConfirmationNumber string   `json:"confirmationNumber"`
	Notes              string   `json:"notes"`
}

// BookingService reads and edits stored booking attempts.
type BookingService struct {
	Store   booking.Store
	Players player.Store
	Log     *logging.Logger
}

func (s BookingService) List(ctx context.Context) ([]teetime.BookingAttempt, error) {
	return s.Store.List(ctx)
}

func (s BookingService) ListUpcoming(ctx context.Context, now time.Time) ([]teetime.BookingAttempt, error) {
	return s.Store.ListUpcoming(ctx, now)
}

func (s BookingService) ListPast(ctx context.Context, now time.Time) ([]teetime.BookingAttempt, error) {
	return s.Store.ListPast(ctx, now)
}

func (s BookingService) Get(ctx context.Context, id string) (teetime.BookingAttempt, error) {
	return s.Store.Get(ctx, id)
}

func (s BookingService) Delete(ctx context.Context, id string) error {
	return s.Store.Delete(ctx, id)
}

// Create stores a booking made outside the engine. It is confirmed unless
// the record says otherwise.
func (s BookingService) Create(ctx context.Context, in BookingRecord) (teetime.BookingAttempt, error) {
	in, err := s.check(ctx, in)
	if err != nil {
		return teetime.BookingAttempt{}, err
	}
	a := teetime.BookingAttempt{
		Date:               in.Date,
		Time24:             in.Time,
		PlayerIDs:          in.Players,
		UseCart:            in.UseCart,
		Status:             teetime.Status(in.Status),
		ConfirmationNumber: in.ConfirmationNumber,
		Notes:              in.Notes,
	}
	if a.Status == teetime.StatusFailed {
		a.FailureReason = "recorded as failed"
	}
	out, err := s.Store.Create(ctx, a)
	if err != nil {
		return teetime.BookingAttempt{}, err
	}
	s.Log.Info("booking recorded", "id", out.ID, "date", out.Date, "time", out.Time24, "status", string(out.Status))
	return out, nil
}

// Update replaces the editable fields of a stored booking. The attempt's
// stage history is kept. Moving the tee time re-arms its reminder.
func (s BookingService) Update(ctx context.Context, id string, in BookingRecord) (teetime.BookingAttempt, error) {
	cur, err := s.Store.Get(ctx, id)
	if err != nil {
		return teetime.BookingAttempt{}, err
	}
	if in.Status == "" {
		in.Status = string(cur.Status)
	}
	in, err = s.check(ctx, in)
	if err != nil {
		return teetime.BookingAttempt{}, err
	}

	if cur.Date != in.Date || cur.Time24 != in.Time {
		cur.ReminderSent = false
	}
	cur.Date, cur.Time24 = in.Date, in.Time
	cur.PlayerIDs = in.Players
	cur.UseCart = in.UseCart
	cur.ConfirmationNumber = in.ConfirmationNumber
	cur.Notes = in.Notes
	switch next := teetime.Status(in.Status); {
	case next == cur.Status:
	case next == teetime.StatusConfirmed:
		cur.Status, cur.FailureReason = next, ""
	default:
		cur.Status = next
		if cur.FailureReason == "" {
			cur.FailureReason = "recorded as failed"
		}
	}

	out, err := s.Store.Update(ctx, cur)
	if err != nil {
		return teetime.BookingAttempt{}, err
	}
	s.Log.Info("booking updated", "id", out.ID, "date", out.Date, "time", out.Time24, "status", string(out.Status))
	return out, nil
}

// check validates in, trims it and makes sure every player exists.
func (s BookingService) check(ctx context.Context, in BookingRecord) (BookingRecord, error) {
	in.ConfirmationNumber = strings.TrimSpace(in.ConfirmationNumber)
	in.Notes = strings.TrimSpace(in.Notes)
	if in.Status == "" {
		in.Status = string(teetime.StatusConfirmed)
	}
	if err := validation.Struct(in); err != nil {
		return in, err
	}
	for _, id := range in.Players {
		if _, err := s.Players.Get(ctx, id); err != nil {
			if db.IsNotFound(err) {
				return in, errors.Mark(errors.Newf("player %s not found", id), teetime.ErrUnknownPlayer)
			}
			return in, errors.Wrapf(err, "load player %s", id)
		}
	}
	in.Players = append([]string(nil), in.Players...)
	return in, nil
}
