package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

type rootOptions struct {
	configPath string
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "teesched",
		Short:         "Scheduled tee-time acquisition: finds and books the best open tee time days ahead",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("TEESCHED_CONFIG"), "optional YAML config file (env vars override it)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newKeysCmd())
	root.AddCommand(newServerCmd(opts))
	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newPlayerCmd(opts))
	root.AddCommand(newBookingCmd(opts))
	root.AddCommand(newUserCmd(opts))

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
