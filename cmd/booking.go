package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/example/teetime-scheduler/internal/domain/teetime"
)

func newBookingCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "booking",
		Short: "Inspect recorded booking attempts",
	}
	cmd.AddCommand(newBookingListCmd(opts))
	return cmd
}

func newBookingListCmd(opts *rootOptions) *cobra.Command {
	var scope string
	c := &cobra.Command{
		Use:   "list",
		Short: "List booking attempts (all, upcoming or past)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx, opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			var list []teetime.BookingAttempt
			switch scope {
			case "all":
				list, err = a.bookings.List(ctx)
			case "upcoming":
				list, err = a.bookings.ListUpcoming(ctx, time.Now())
			case "past":
				list, err = a.bookings.ListPast(ctx, time.Now())
			default:
				return errors.Newf("--scope must be all, upcoming or past (got %q)", scope)
			}
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tTIME\tPLAYERS\tSTATUS\tCONFIRMATION\tREASON")
			for _, b := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
					b.ID, b.Date, b.Time24, len(b.PlayerIDs), b.Status, b.ConfirmationNumber, b.FailureReason)
			}
			return tw.Flush()
		},
	}
	c.Flags().StringVar(&scope, "scope", "all", "all, upcoming or past")
	return c
}
