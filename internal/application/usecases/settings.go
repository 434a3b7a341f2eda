package usecases

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/example/teetime-scheduler/internal/domain/settings"
	"github.com/example/teetime-scheduler/internal/platform/logging"
	"github.com/example/teetime-scheduler/internal/platform/validation"
)

// Rescheduler re-arms or disarms the cron timer.
type Rescheduler interface {
	Reschedule(cfg settings.Scheduler) error
}

// SettingsService is the only writer of settings. Scheduler changes take
// effect on the timer as soon as they are stored.
type SettingsService struct {
	Store     settings.Store
	Scheduler Rescheduler
	Log       *logging.Logger
}

func (s SettingsService) Get(ctx context.Context) (settings.Settings, error) {
	return s.Store.Get(ctx)
}

func (s SettingsService) UpdateScheduler(ctx context.Context, in settings.Scheduler) (settings.Settings, error) {
	if err := validation.Struct(in); err != nil {
		return settings.Settings{}, err
	}
	out, err := s.Store.Update(ctx, func(cur *settings.Settings) error {
		cur.Scheduler = in
		return nil
	})
	if err != nil {
		return settings.Settings{}, err
	}
	if s.Scheduler != nil {
		if err := s.Scheduler.Reschedule(out.Scheduler); err != nil {
			return out, errors.Wrap(err, "settings saved but the timer could not be updated")
		}
	}
	s.Log.Info("scheduler settings updated", "enabled", out.Scheduler.Enabled, "cron", out.Scheduler.CronExpression,
		"days_ahead", out.Scheduler.BookingDaysAhead, "preferred", out.Scheduler.PreferredTeeTime,
		"flexibility", out.Scheduler.TeeTimeFlexibilityMinutes)
	return out, nil
}

func (s SettingsService) UpdateNotifications(ctx context.Context, in settings.Notifications) (settings.Settings, error) {
	if err := validation.Struct(in); err != nil {
		return settings.Settings{}, err
	}
	return s.Store.Update(ctx, func(cur *settings.Settings) error {
		cur.Notifications = in
		return nil
	})
}

type defaultPlayers struct {
	DefaultPlayers int `json:"defaultPlayers" validate:"gte=1,lte=4"`
}

func (s SettingsService) UpdateDefaultPlayers(ctx context.Context, n int) (settings.Settings, error) {
	if err := validation.Struct(defaultPlayers{DefaultPlayers: n}); err != nil {
		return settings.Settings{}, err
	}
	return s.Store.Update(ctx, func(cur *settings.Settings) error {
		cur.DefaultPlayers = n
		return nil
	})
}

func (s SettingsService) UpdateDefaultUseCart(ctx context.Context, useCart bool) (settings.Settings, error) {
	return s.Store.Update(ctx, func(cur *settings.Settings) error {
		cur.DefaultUseCart = useCart
		return nil
	})
}
