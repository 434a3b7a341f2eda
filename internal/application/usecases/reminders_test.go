package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/teetime-scheduler/internal/domain/settings"
	"github.com/example/teetime-scheduler/internal/domain/teetime"
	"github.com/example/teetime-scheduler/internal/infrastructure/memory"
	"github.com/example/teetime-scheduler/internal/platform/logging"
)

type reminderRecorder struct{ to []string }

func (r *reminderRecorder) SendTeeTimeReminder(ctx context.Context, a teetime.BookingAttempt, to string) (bool, error) {
	r.to = append(r.to, to+" "+a.Date+" "+a.Time24)
	return true, nil
}

func TestRemindersSweep(t *testing.T) {
	ctx := context.Background()
	players, ids := seedPlayers(t, "ann")
	bookings := memory.NewBookingStore(time.UTC)
	create := func(date, clock string, status teetime.Status) teetime.BookingAttempt {
		a, err := bookings.Create(ctx, teetime.BookingAttempt{Date: date, Time24: clock, PlayerIDs: ids, Status: status})
		require.NoError(t, err)
		return a
	}
	due := create("2025-06-09", "09:00", teetime.StatusConfirmed)
	create("2025-06-12", "09:00", teetime.StatusConfirmed)
	create("2025-06-09", "10:00", teetime.StatusFailed)
	create("2025-06-08", "09:00", teetime.StatusConfirmed)

	rec := &reminderRecorder{}
	r := Reminders{
		Bookings: bookings,
		Players:  players,
		Settings: memory.NewSettingsStore(settings.Defaults()),
		Sender:   rec,
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC) },
		Log:      logging.NewNop(),
	}

	n, err := r.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"ann@example.com 2025-06-09 09:00"}, rec.to)

	got, err := bookings.Get(ctx, due.ID)
	require.NoError(t, err)
	assert.True(t, got.ReminderSent)

	n, err = r.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "a booking is reminded only once")
}

func TestRemindersDisabled(t *testing.T) {
	s := settings.Defaults()
	s.Notifications.EmailReminderEnabled = false
	r := Reminders{Settings: memory.NewSettingsStore(s), Log: logging.NewNop()}

	n, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
