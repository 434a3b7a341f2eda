package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/teetime-scheduler/internal/db"
	"github.com/example/teetime-scheduler/internal/domain/player"
	"github.com/example/teetime-scheduler/internal/domain/settings"
	"github.com/example/teetime-scheduler/internal/domain/teetime"
	"github.com/example/teetime-scheduler/internal/migrate"
)

// Runs against a throwaway database: TEST_DATABASE_URL=postgres://... go test ./...
func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	d, err := db.Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	require.NoError(t, migrate.Up(ctx, d))
	require.NoError(t, d.Exec(ctx, `TRUNCATE players, bookings, settings, users`))
	return d
}

func TestPlayerAndBookingRepos(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	players := NewPlayerRepo(d)
	bookings := NewBookingRepo(d, time.UTC)

	p, err := players.Create(ctx, player.Player{Name: "Ann Lee", Email: "ann@example.com"})
	require.NoError(t, err)
	got, err := players.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", got.Name)

	found, err := players.SearchByName(ctx, "lee")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	price := 45.0
	a := teetime.NewAttempt("2030-06-09", "09:10", []string{p.ID}, true)
	a.Price = &price
	a.Status = teetime.StatusConfirmed
	a.ConfirmationNumber = "X1"
	saved, err := bookings.Create(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "2030-06-09", saved.Date)
	assert.Equal(t, []string{p.ID}, saved.PlayerIDs)

	up, err := bookings.ListUpcoming(ctx, time.Date(2030, 6, 9, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, up, 1)

	saved.Time24 = "09:40"
	saved.Notes = "moved"
	updated, err := bookings.Update(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, "09:40", updated.Time24)
	assert.Equal(t, "moved", updated.Notes)

	require.NoError(t, bookings.MarkReminderSent(ctx, saved.ID))
	require.NoError(t, bookings.Delete(ctx, saved.ID))
	_, err = bookings.Update(ctx, saved)
	assert.True(t, db.IsNotFound(err))
	_, err = bookings.Get(ctx, saved.ID)
	assert.True(t, db.IsNotFound(err))
}

func TestSettingsRepoSeedsAndUpdates(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	repo := NewSettingsRepo(d, settings.Defaults())

	s, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, s.DefaultPlayers)

	s, err = repo.Update(ctx, func(cur *settings.Settings) error {
		cur.DefaultPlayers = 2
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, s.DefaultPlayers)

	_, err = repo.Update(ctx, func(cur *settings.Settings) error {
		cur.DefaultPlayers = 9
		return nil
	})
	assert.Error(t, err)
}
