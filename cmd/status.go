package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/teetime-scheduler/internal/application/scheduler"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored scheduler settings and the next run time",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx, opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.settings.Get(ctx)
			if err != nil {
				return err
			}
			sc := s.Scheduler
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "enabled:      %t\n", sc.Enabled)
			fmt.Fprintf(out, "cron:         %s (%s)\n", sc.CronExpression, a.cfg.Location)
			fmt.Fprintf(out, "days ahead:   %d\n", sc.BookingDaysAhead)
			fmt.Fprintf(out, "preferred:    %s ±%d min\n", sc.PreferredTeeTime, sc.TeeTimeFlexibilityMinutes)
			fmt.Fprintf(out, "players:      %d (cart: %t)\n", s.DefaultPlayers, s.DefaultUseCart)
			if !sc.Enabled {
				fmt.Fprintln(out, "next run:     -")
				return nil
			}
			next, err := scheduler.NextFire(sc.CronExpression, time.Now().In(a.cfg.Location))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "next run:     %s\n", next.Format(time.RFC1123))
			return nil
		},
	}
}
