package scheduler

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/teetime-scheduler/internal/application/usecases"
	"github.com/example/teetime-scheduler/internal/domain/player"
	"github.com/example/teetime-scheduler/internal/domain/settings"
	"github.com/example/teetime-scheduler/internal/domain/teetime"
	"github.com/example/teetime-scheduler/internal/domain/teetime/teetimetest"
	"github.com/example/teetime-scheduler/internal/infrastructure/memory"
	"github.com/example/teetime-scheduler/internal/platform/logging"
)

type notification struct {
	kind   string
	to     string
	reason string
	status teetime.Status
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (f *fakeNotifier) SendBookingConfirmation(ctx context.Context, a teetime.BookingAttempt, to string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notification{kind: "confirmation", to: to, status: a.Status})
	return true, nil
}

func (f *fakeNotifier) SendBookingFailure(ctx context.Context, a teetime.BookingAttempt, reason, to string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notification{kind: "failure", to: to, reason: reason, status: a.Status})
	return true, nil
}

type fixture struct {
	coord    *Coordinator
	surface  *teetimetest.Surface
	players  *memory.PlayerStore
	bookings *memory.BookingStore
	settings *memory.SettingsStore
	notifier *fakeNotifier
}

var fixedNow = time.Date(2025, 6, 2, 7, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, nPlayers int, mutate func(*settings.Settings)) *fixture {
	t.Helper()
	s := settings.Defaults()
	s.Scheduler.Enabled = true
	s.Scheduler.PreferredTeeTime = "09:00"
	s.Scheduler.TeeTimeFlexibilityMinutes = 60
	if mutate != nil {
		mutate(&s)
	}

	f := &fixture{
		surface:  &teetimetest.Surface{},
		players:  memory.NewPlayerStore(),
		bookings: memory.NewBookingStore(time.UTC),
		settings: memory.NewSettingsStore(s),
		notifier: &fakeNotifier{},
	}
	names := []string{"ann", "bob", "cat", "dan", "eve"}
	for i := 0; i < nPlayers; i++ {
		email := names[i] + "@example.com"
		if i == 0 {
			email = ""
		}
		_, err := f.players.Create(context.Background(), player.Player{Name: names[i], Email: email})
		require.NoError(t, err)
	}

	log := logging.NewNop()
	f.coord = &Coordinator{
		Settings:    f.settings,
		Players:     f.players,
		Bookings:    f.bookings,
		Prober:      usecases.Prober{Surface: f.surface, StepTimeout: time.Second, Log: log},
		Executor:    usecases.Executor{Surface: f.surface, Players: f.players, StepTimeout: time.Second, Log: log},
		Notifier:    f.notifier,
		Credentials: teetime.Credentials{Username: "golfer", Password: "secret"},
		Location:    time.UTC,
		RunTimeout:  5 * time.Second,
		Now:         func() time.Time { return fixedNow },
		Log:         log,
	}
	return f
}

func slots(labels ...string) []teetime.RawSlot {
	out := make([]teetime.RawSlot, 0, len(labels))
	for _, l := range labels {
		out = append(out, teetime.RawSlot{TimeLabel: l, SpotsText: "4", PriceText: "$50"})
	}
	return out
}

func TestTriggerBooksClosestSlot(t *testing.T) {
	f := newFixture(t, 5, nil)
	f.surface.Slots = slots("7:30 AM", "9:10 AM", "8:50 AM", "10:30 AM")

	res := f.coord.Trigger(context.Background(), SourceManual)
	require.True(t, res.Success, res.Errors)
	require.NotNil(t, res.Booking)
	assert.Equal(t, "08:50", res.Booking.Time24)
	assert.Equal(t, "2025-06-09", res.Booking.Date)
	assert.Equal(t, teetime.StatusConfirmed, res.Booking.Status)
	assert.Len(t, res.Booking.PlayerIDs, 4)
	assert.Equal(t, "08:50", f.surface.Selected.Time24)

	saved, err := f.bookings.List(context.Background())
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "CONF-1", saved[0].ConfirmationNumber)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "confirmation", f.notifier.sent[0].kind)
	assert.Equal(t, "bob@example.com", f.notifier.sent[0].to, "first participant with an email")

	// probe and booking each used and closed their own session
	assert.Equal(t, 2, f.surface.Opened())
	assert.Equal(t, 2, f.surface.Closed())
	assert.Equal(t, 1, f.surface.MaxConcurrent())
	assert.False(t, f.coord.Running())
}

func TestTriggerNoCandidatesIsSuccess(t *testing.T) {
	f := newFixture(t, 4, nil)
	f.surface.Slots = slots("6:00 AM", "11:30 AM")

	res := f.coord.Trigger(context.Background(), SourceManual)
	assert.True(t, res.Success)
	assert.Nil(t, res.Booking)
	assert.Empty(t, res.Errors)
	assert.Empty(t, f.notifier.sent)

	saved, err := f.bookings.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestTriggerInsufficientPlayersMakesNoExternalCall(t *testing.T) {
	f := newFixture(t, 2, nil)
	f.surface.Slots = slots("9:00 AM")

	res := f.coord.Trigger(context.Background(), SourceManual)
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "insufficient players")
	assert.Zero(t, f.surface.Opened())
	assert.Empty(t, f.notifier.sent)
}

func TestTriggerBusyWhileRunning(t *testing.T) {
	f := newFixture(t, 4, nil)
	f.surface.Slots = slots("9:00 AM")
	f.surface.BlockListing = make(chan struct{})

	first := make(chan Result, 1)
	go func() { first <- f.coord.Trigger(context.Background(), SourceCron) }()
	require.Eventually(t, func() bool { return f.surface.Opened() == 1 }, time.Second, time.Millisecond)

	res := f.coord.Trigger(context.Background(), SourceManual)
	assert.True(t, res.Busy)
	assert.False(t, res.Success)
	assert.Equal(t, []string{teetime.ErrBusy.Error()}, res.Errors)
	assert.Equal(t, 1, f.surface.Opened(), "second trigger must not open a session")

	_, err := f.coord.Search(context.Background(), fixedNow, teetime.TimeWindow{Start: 0, End: 1439}, 540, 1)
	assert.ErrorIs(t, err, teetime.ErrBusy)

	close(f.surface.BlockListing)
	r := <-first
	assert.True(t, r.Success, r.Errors)
	assert.False(t, f.coord.Running())

	res = f.coord.Trigger(context.Background(), SourceManual)
	assert.False(t, res.Busy)
}

func TestTriggerFailureIsPersistedAndNotified(t *testing.T) {
	f := newFixture(t, 4, nil)
	f.surface.Slots = slots("9:00 AM")
	f.surface.Outcome = &teetime.Outcome{}

	res := f.coord.Trigger(context.Background(), SourceManual)
	assert.False(t, res.Success)
	assert.Equal(t, []string{"unknown booking error"}, res.Errors)
	require.NotNil(t, res.Booking)
	assert.Equal(t, teetime.StatusFailed, res.Booking.Status)

	saved, err := f.bookings.List(context.Background())
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, teetime.StatusFailed, saved[0].Status)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "failure", f.notifier.sent[0].kind)
	assert.Equal(t, "unknown booking error", f.notifier.sent[0].reason)
}

func TestTriggerConfigurationErrors(t *testing.T) {
	t.Run("bad preferred time", func(t *testing.T) {
		f := newFixture(t, 4, func(s *settings.Settings) { s.Scheduler.PreferredTeeTime = "late" })
		res := f.coord.Trigger(context.Background(), SourceManual)
		assert.False(t, res.Success)
		require.Len(t, res.Errors, 1)
		assert.Contains(t, res.Errors[0], "preferred tee time")
		assert.Zero(t, f.surface.Opened())
	})
	t.Run("missing credentials", func(t *testing.T) {
		f := newFixture(t, 4, nil)
		f.coord.Credentials = teetime.Credentials{}
		res := f.coord.Trigger(context.Background(), SourceManual)
		assert.False(t, res.Success)
		assert.Zero(t, f.surface.Opened())
		assert.Empty(t, f.notifier.sent)
	})
}

func TestCronTriggerSkipsWhenDisabled(t *testing.T) {
	f := newFixture(t, 4, func(s *settings.Settings) { s.Scheduler.Enabled = false })
	f.surface.Slots = slots("9:00 AM")

	res := f.coord.Trigger(context.Background(), SourceCron)
	assert.True(t, res.Success)
	assert.Equal(t, "scheduler disabled", res.Message)
	assert.Zero(t, f.surface.Opened())

	res = f.coord.Trigger(context.Background(), SourceManual)
	assert.True(t, res.Success)
	assert.NotNil(t, res.Booking)
}

func TestTriggerRunDeadlineReleasesLock(t *testing.T) {
	f := newFixture(t, 4, nil)
	f.surface.Slots = slots("9:00 AM")
	f.surface.BlockListing = make(chan struct{})
	f.coord.RunTimeout = 30 * time.Millisecond
	f.coord.Prober.StepTimeout = 0

	res := f.coord.Trigger(context.Background(), SourceManual)
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.True(t, strings.Contains(res.Errors[0], "timed out") || strings.Contains(res.Errors[0], "deadline"), res.Errors[0])
	assert.Equal(t, 1, f.surface.Closed())
	assert.False(t, f.coord.Running())
}

func TestTriggerUsesSettingsSnapshot(t *testing.T) {
	f := newFixture(t, 4, nil)
	f.surface.Slots = slots("9:00 AM", "2:00 PM")
	f.surface.BlockListing = make(chan struct{})

	done := make(chan Result, 1)
	go func() { done <- f.coord.Trigger(context.Background(), SourceManual) }()
	require.Eventually(t, func() bool { return f.surface.Opened() == 1 }, time.Second, time.Millisecond)

	_, err := f.settings.Update(context.Background(), func(s *settings.Settings) error {
		s.Scheduler.PreferredTeeTime = "14:00"
		return nil
	})
	require.NoError(t, err)
	close(f.surface.BlockListing)

	res := <-done
	require.True(t, res.Success, res.Errors)
	assert.Equal(t, "09:00", res.Booking.Time24)
}

func TestSearchRanksCandidates(t *testing.T) {
	f := newFixture(t, 0, nil)
	f.surface.Slots = slots("8:00 AM", "9:40 AM", "9:20 AM")

	got, err := f.coord.Search(context.Background(), fixedNow, teetime.TimeWindow{Start: 480, End: 600}, 570, 2)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "09:20", got[0].Time24)
	assert.Equal(t, "09:40", got[1].Time24)
	assert.Equal(t, "08:00", got[2].Time24)
	assert.False(t, f.coord.Running())
}

func playerIDs(t *testing.T, f *fixture) []string {
	t.Helper()
	ps, err := f.players.List(context.Background())
	require.NoError(t, err)
	ids := make([]string, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestBookConfirmsChosenSlot(t *testing.T) {
	f := newFixture(t, 3, nil)
	ids := playerIDs(t, f)
	date := time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)

	res := f.coord.Book(context.Background(), usecases.Reservation{
		Date:      date,
		Candidate: teetime.Candidate{Time24: "13:20", BookingHandle: "/book?slot=42"},
		PlayerIDs: ids[:2],
		UseCart:   true,
	}, "organizer@example.com")
	require.True(t, res.Success, res.Errors)
	require.NotNil(t, res.Booking)
	assert.Equal(t, "2025-06-12", res.Booking.Date)
	assert.Equal(t, "13:20", res.Booking.Time24)
	assert.Equal(t, teetime.StatusConfirmed, res.Booking.Status)

	// no slot listing, just one booking session with the configured credentials
	assert.Equal(t, []string{"open", "auth", "select", "fill", "submit", "close"}, f.surface.CallLog())
	assert.Equal(t, "/book?slot=42", f.surface.Selected.BookingHandle)
	assert.Equal(t, "golfer", f.surface.Creds.Username)
	assert.True(t, f.surface.UsedCart)
	assert.Len(t, f.surface.Filled, 2)

	saved, err := f.bookings.List(context.Background())
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, res.Booking.ID, saved[0].ID)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "confirmation", f.notifier.sent[0].kind)
	assert.Equal(t, "organizer@example.com", f.notifier.sent[0].to)
	assert.False(t, f.coord.Running())
}

func TestBookNotifiesFirstParticipantWithoutEmail(t *testing.T) {
	f := newFixture(t, 3, nil)
	ids := playerIDs(t, f)
	f.surface.Outcome = &teetime.Outcome{Message: "slot taken"}

	var withEmail string
	for _, id := range ids {
		p, err := f.players.Get(context.Background(), id)
		require.NoError(t, err)
		if p.Email != "" && withEmail == "" {
			withEmail = p.Email
		}
	}

	res := f.coord.Book(context.Background(), usecases.Reservation{
		Date:      fixedNow,
		Candidate: teetime.Candidate{Time24: "09:00"},
		PlayerIDs: ids,
	}, "")
	assert.False(t, res.Success)
	assert.Equal(t, []string{"slot taken"}, res.Errors)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "failure", f.notifier.sent[0].kind)
	assert.Equal(t, withEmail, f.notifier.sent[0].to)

	saved, err := f.bookings.List(context.Background())
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, teetime.StatusFailed, saved[0].Status)
}

func TestBookUnknownPlayerOpensNoSession(t *testing.T) {
	f := newFixture(t, 1, nil)
	ids := playerIDs(t, f)

	res := f.coord.Book(context.Background(), usecases.Reservation{
		Date:      fixedNow,
		Candidate: teetime.Candidate{Time24: "09:00"},
		PlayerIDs: []string{ids[0], "no-such-player"},
	}, "ann@example.com")
	assert.False(t, res.Success)
	assert.False(t, res.Busy)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "player no-such-player not found")
	assert.Nil(t, res.Booking)

	assert.Zero(t, f.surface.Opened())
	assert.Empty(t, f.notifier.sent)
	saved, err := f.bookings.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, saved)
	assert.False(t, f.coord.Running())
}

func TestBookBusyWhileRunning(t *testing.T) {
	f := newFixture(t, 4, nil)
	ids := playerIDs(t, f)
	f.surface.Slots = slots("9:00 AM")
	f.surface.BlockListing = make(chan struct{})

	first := make(chan Result, 1)
	go func() { first <- f.coord.Trigger(context.Background(), SourceCron) }()
	require.Eventually(t, func() bool { return f.surface.Opened() == 1 }, time.Second, time.Millisecond)

	res := f.coord.Book(context.Background(), usecases.Reservation{
		Date:      fixedNow,
		Candidate: teetime.Candidate{Time24: "10:00"},
		PlayerIDs: ids[:1],
	}, "")
	assert.True(t, res.Busy)
	assert.Equal(t, []string{teetime.ErrBusy.Error()}, res.Errors)
	assert.Equal(t, 1, f.surface.Opened(), "rejected booking must not open a session")

	close(f.surface.BlockListing)
	r := <-first
	assert.True(t, r.Success, r.Errors)
	assert.Equal(t, 1, f.surface.MaxConcurrent())
}
