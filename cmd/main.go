package main

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

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "reservation-core",
		Short:         "Reservation admission and lifecycle service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional .env file with configuration")

	root.AddCommand(newServeCmd(&envFile))
	root.AddCommand(newWorkerCmd(&envFile))
	root.AddCommand(newMigrateCmd(&envFile))
	root.AddCommand(newVersionCmd())

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
