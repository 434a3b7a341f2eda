package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/teetime-scheduler/internal/application/usecases"
	"github.com/example/teetime-scheduler/internal/domain/player"
)

func newPlayerCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Manage the player roster",
	}
	cmd.AddCommand(newPlayerAddCmd(opts), newPlayerListCmd(opts), newPlayerRmCmd(opts))
	return cmd
}

func newPlayerAddCmd(opts *rootOptions) *cobra.Command {
	var p player.Player
	c := &cobra.Command{
		Use:   "add",
		Short: "Add a player",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx, opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			created, err := usecases.PlayerService{Store: a.players}.Create(ctx, p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created player %s (%s)\n", created.Name, created.ID)
			return nil
		},
	}
	c.Flags().StringVar(&p.Name, "name", "", "full name")
	c.Flags().StringVar(&p.Email, "email", "", "email address")
	c.Flags().StringVar(&p.Phone, "phone", "", "phone number")
	_ = c.MarkFlagRequired("name")
	return c
}

func newPlayerListCmd(opts *rootOptions) *cobra.Command {
	var query string
	c := &cobra.Command{
		Use:   "list",
		Short: "List players in booking order",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx, opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			ps, err := usecases.PlayerService{Store: a.players}.List(ctx, query)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPHONE")
			for _, p := range ps {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Email, p.Phone)
			}
			return tw.Flush()
		},
	}
	c.Flags().StringVar(&query, "search", "", "only players whose name contains this text")
	return c
}

func newPlayerRmCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Remove a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx, opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := (usecases.PlayerService{Store: a.players}).Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed player %s\n", args[0])
			return nil
		},
	}
}
