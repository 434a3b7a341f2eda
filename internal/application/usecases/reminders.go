package usecases

import (
	"context"
	"time"

	"github.com/example/teetime-scheduler/internal/domain/booking"
	"github.com/example/teetime-scheduler/internal/domain/player"
	"github.com/example/teetime-scheduler/internal/domain/settings"
	"github.com/example/teetime-scheduler/internal/domain/teetime"
	"github.com/example/teetime-scheduler/internal/platform/logging"
)

type ReminderSender interface {
	SendTeeTimeReminder(ctx context.Context, a teetime.BookingAttempt, to string) (bool, error)
}

// Reminders emails the first participant of each confirmed booking once,
// when its tee time comes within the configured number of hours.
type Reminders struct {
	Bookings booking.Store
	Players  player.Store
	Settings settings.Store
	Sender   ReminderSender
	Location *time.Location
	Now      func() time.Time
	Log      *logging.Logger
}

func (r Reminders) Sweep(ctx context.Context) (int, error) {
	s, err := r.Settings.Get(ctx)
	if err != nil {
		return 0, err
	}
	if !s.Notifications.Enabled || !s.Notifications.EmailReminderEnabled {
		return 0, nil
	}

	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	horizon := now.Add(time.Duration(s.Notifications.EmailReminderHoursBefore) * time.Hour)

	upcoming, err := r.Bookings.ListUpcoming(ctx, now)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, b := range upcoming {
		if b.ReminderSent {
			continue
		}
		at, err := b.TeeTime(r.Location)
		if err != nil || at.After(horizon) {
			continue
		}
		to, ok := r.firstEmail(ctx, b.PlayerIDs)
		if !ok {
			continue
		}
		ok, err = r.Sender.SendTeeTimeReminder(ctx, b, to)
		if err != nil {
			r.Log.Warn("reminder email", "booking_id", b.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		if err := r.Bookings.MarkReminderSent(ctx, b.ID); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func (r Reminders) firstEmail(ctx context.Context, ids []string) (string, bool) {
	for _, id := range ids {
		p, err := r.Players.Get(ctx, id)
		if err != nil {
			continue
		}
		if p.Email != "" {
			return p.Email, true
		}
	}
	return "", false
}
