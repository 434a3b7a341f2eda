package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/teetime-scheduler/internal/application/scheduler"
	"github.com/example/teetime-scheduler/internal/application/usecases"
	"github.com/example/teetime-scheduler/internal/auth"
	"github.com/example/teetime-scheduler/internal/interfaces/web"
)

func newServerCmd(opts *rootOptions) *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the admin API and the booking scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := openApp(ctx, opts, migrateUp)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.cfg.RequireCookieKeys(); err != nil {
				return err
			}

			n := a.notifier()
			coord := a.coordinator(n)
			host := &scheduler.Host{
				Coordinator: coord,
				Settings:    a.settings,
				Reminders: usecases.Reminders{
					Bookings: a.bookings,
					Players:  a.players,
					Settings: a.settings,
					Sender:   n,
					Location: a.cfg.Location,
					Now:      time.Now,
					Log:      a.log.With("component", "reminders"),
				},
				Location: a.cfg.Location,
				Log:      a.log.With("component", "scheduler"),
			}
			if err := host.Start(ctx); err != nil {
				return err
			}
			defer func() {
				stopCtx, stop := context.WithTimeout(context.Background(), a.cfg.RunTimeout)
				defer stop()
				if err := host.Stop(stopCtx); err != nil {
					a.log.Warn("scheduler did not stop cleanly", "error", err)
				}
			}()

			ws := &web.Server{
				Auth:    auth.NewStore(a.users, a.cfg.CookieHashKey, a.cfg.CookieBlockKey),
				Players: usecases.PlayerService{Store: a.players},
				Bookings: usecases.BookingService{
					Store:   a.bookings,
					Players: a.players,
					Log:     a.log.With("component", "bookings"),
				},
				Settings: usecases.SettingsService{
					Store:     a.settings,
					Scheduler: host,
					Log:       a.log.With("component", "settings"),
				},
				Runner:    coord,
				Scheduler: host,
				Location:  a.cfg.Location,
				Log:       a.log.With("component", "http"),
			}
			return web.Start(ctx, a.cfg.ListenAddr, ws.Routes(), a.log)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
