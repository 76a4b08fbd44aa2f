package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/datalogger/internal/service/ctl"
)

var (
	// startCmd starts or restarts a session.
	startCmd = &cobra.Command{
		Use:       "start <ad|iv|temp>",
		Short:     "Start or restart a monitoring session.",
		Long:      "Starts logging a domain into new record files. A running session is written out and restarted.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"ad", "iv", "temp"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			return ctl.Start(ctx, options(cmd), args[0])
		},
	}

	// stopCmd stops a session.
	stopCmd = &cobra.Command{
		Use:       "stop <ad|iv|temp>",
		Short:     "Stop a monitoring session.",
		Long:      "Stops a session and writes every buffered point to its record files.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"ad", "iv", "temp"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			return ctl.Stop(ctx, options(cmd), args[0])
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(startCmd, stopCmd)
}
