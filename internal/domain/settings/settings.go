package settings

import (
	"context"
	"time"

	"github.com/example/teetime-scheduler/internal/domain/teetime"
	"github.com/example/teetime-scheduler/internal/platform/validation"
)

type Notifications struct {
	Enabled                  bool `json:"enabled" yaml:"enabled"`
	EmailOnBookingSuccess    bool `json:"emailOnBookingSuccess" yaml:"emailOnBookingSuccess"`
	EmailOnBookingFailure    bool `json:"emailOnBookingFailure" yaml:"emailOnBookingFailure"`
	EmailReminderEnabled     bool `json:"emailReminderEnabled" yaml:"emailReminderEnabled"`
	EmailReminderHoursBefore int  `json:"emailReminderHoursBefore" yaml:"emailReminderHoursBefore" validate:"gte=1,lte=72"`
}

// Scheduler is the configuration the run coordinator reads at the start of
// every run. The coordinator never writes it.
type Scheduler struct {
	Enabled                   bool   `json:"enabled" yaml:"enabled"`
	CronExpression            string `json:"cronExpression" yaml:"cronExpression" validate:"required,cron"`
	BookingDaysAhead          int    `json:"bookingDaysAhead" yaml:"bookingDaysAhead" validate:"gte=1,lte=30"`
	PreferredTeeTime          string `json:"preferredTeeTime" yaml:"preferredTeeTime" validate:"required,hhmm"`
	TeeTimeFlexibilityMinutes int    `json:"teeTimeFlexibilityMinutes" yaml:"teeTimeFlexibilityMinutes" validate:"gte=0,lte=240"`
}

func (s Scheduler) Preference() teetime.Preference {
	return teetime.Preference{
		DaysAhead:          s.BookingDaysAhead,
		PreferredTeeTime:   s.PreferredTeeTime,
		FlexibilityMinutes: s.TeeTimeFlexibilityMinutes,
	}
}

type Settings struct {
	Notifications  Notifications `json:"notifications" yaml:"notifications"`
	Scheduler      Scheduler     `json:"scheduler" yaml:"scheduler"`
	DefaultPlayers int           `json:"defaultPlayers" yaml:"defaultPlayers" validate:"gte=1,lte=4"`
	DefaultUseCart bool          `json:"defaultUseCart" yaml:"defaultUseCart"`
	UpdatedAt      time.Time     `json:"updatedAt" yaml:"-"`
}

func (s Settings) Validate() error {
	return validation.Struct(s)
}

// Defaults mirror a freshly installed system: scheduler off, daily 07:00,
// one week ahead around 10:00.
func Defaults() Settings {
	return Settings{
		Notifications: Notifications{
			Enabled:                  true,
			EmailOnBookingSuccess:    true,
			EmailOnBookingFailure:    true,
			EmailReminderEnabled:     true,
			EmailReminderHoursBefore: 24,
		},
		Scheduler: Scheduler{
			Enabled:                   false,
			CronExpression:            "0 7 * * *",
			BookingDaysAhead:          7,
			PreferredTeeTime:          "10:00",
			TeeTimeFlexibilityMinutes: 60,
		},
		DefaultPlayers: 4,
		DefaultUseCart: false,
	}
}

// Store holds the single settings record. Update is the only write path: fn
// receives the current value and its result is validated and stored
// atomically.
type Store interface {
	Get(ctx context.Context) (Settings, error)
	Update(ctx context.Context, fn func(*Settings) error) (Settings, error)
}
