package cmd

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/example/teetime-scheduler/internal/application/scheduler"
	"github.com/example/teetime-scheduler/internal/application/usecases"
	"github.com/example/teetime-scheduler/internal/config"
	"github.com/example/teetime-scheduler/internal/db"
	"github.com/example/teetime-scheduler/internal/domain/booking"
	"github.com/example/teetime-scheduler/internal/domain/player"
	"github.com/example/teetime-scheduler/internal/domain/settings"
	"github.com/example/teetime-scheduler/internal/domain/teetime"
	"github.com/example/teetime-scheduler/internal/domain/user"
	"github.com/example/teetime-scheduler/internal/infrastructure/memory"
	"github.com/example/teetime-scheduler/internal/infrastructure/postgres"
	"github.com/example/teetime-scheduler/internal/infrastructure/teeon"
	"github.com/example/teetime-scheduler/internal/migrate"
	"github.com/example/teetime-scheduler/internal/notify"
	"github.com/example/teetime-scheduler/internal/platform/logging"
)

// app holds the configured stores shared by every command.
type app struct {
	cfg config.Config
	log *logging.Logger
	db  *db.DB

	users    user.Store
	players  player.Store
	bookings booking.Store
	settings settings.Store
}

func openApp(ctx context.Context, opts *rootOptions, migrateUp bool) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.Log.Format, cfg.Log.Level)
	logging.SetDefault(log)

	a := &app{cfg: cfg, log: log}
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Warn("using in-memory store, nothing survives a restart")
		a.users = memory.NewUserStore()
		a.players = memory.NewPlayerStore()
		a.bookings = memory.NewBookingStore(cfg.Location)
		a.settings = memory.NewSettingsStore(cfg.Seed)
		return a, nil
	}

	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := d.Ping(ctx); err != nil {
		d.Close()
		return nil, errors.Wrap(err, "db ping")
	}
	if migrateUp {
		if err := migrate.Up(ctx, d); err != nil {
			d.Close()
			return nil, err
		}
	}
	a.db = d
	a.users = postgres.NewUserRepo(d)
	a.players = postgres.NewPlayerRepo(d)
	a.bookings = postgres.NewBookingRepo(d, cfg.Location)
	a.settings = postgres.NewSettingsRepo(d, cfg.Seed)
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	_ = a.log.Sync()
}

func (a *app) notifier() *notify.Notifier {
	var mailer notify.Mailer
	smtpCfg := notify.SMTPConfig{
		Host:     a.cfg.SMTP.Host,
		Port:     a.cfg.SMTP.Port,
		Username: a.cfg.SMTP.Username,
		Password: a.cfg.SMTP.Password,
		From:     a.cfg.SMTP.From,
	}
	if smtpCfg.Configured() {
		mailer = notify.NewSMTPMailer(smtpCfg)
	} else {
		a.log.Warn("SMTP not configured, email notifications are disabled")
	}
	return &notify.Notifier{
		Settings: a.settings,
		Players:  a.players,
		Mailer:   mailer,
		Facility: a.cfg.Facility,
		Location: a.cfg.Location,
		Log:      a.log.With("component", "notify"),
	}
}

// coordinator wires the acquisition engine against the facility portal.
func (a *app) coordinator(n scheduler.Notifier) *scheduler.Coordinator {
	var surface teetime.Surface = teeon.NewSurface(teeon.Config{
		LoginURL:    a.cfg.TeeOn.LoginURL,
		ScheduleURL: a.cfg.TeeOn.ScheduleURL,
		Headless:    a.cfg.TeeOn.Headless,
		StepTimeout: a.cfg.TeeOn.StepTimeout,
	}, a.log)

	return &scheduler.Coordinator{
		Settings: a.settings,
		Players:  a.players,
		Bookings: a.bookings,
		Prober: usecases.Prober{
			Surface:     surface,
			StepTimeout: a.cfg.TeeOn.StepTimeout,
			Log:         a.log,
		},
		Executor: usecases.Executor{
			Surface:     surface,
			Players:     a.players,
			StepTimeout: a.cfg.TeeOn.StepTimeout,
			Log:         a.log,
		},
		Notifier: n,
		Credentials: teetime.Credentials{
			Username: a.cfg.TeeOn.Username,
			Password: a.cfg.TeeOn.Password,
		},
		Location:   a.cfg.Location,
		RunTimeout: a.cfg.RunTimeout,
		Now:        time.Now,
		Log:        a.log.With("component", "coordinator"),
	}
}
