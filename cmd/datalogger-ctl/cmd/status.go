package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/datalogger/internal/service/ctl"
)

var (
	// watch keeps printing a one-line summary.
	watch bool
	// watchInterval is the refresh period in watch mode.
	watchInterval = ctl.DefaultWatchInterval

	// statusCmd prints the daemon status.
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show sessions, alarms and outputs.",
		Long:  "Prints the status of the last completed tick as JSON, or a one-line summary per interval with --watch.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			if watch {
				return ctl.Watch(ctx, options(cmd), watchInterval)
			}

			return ctl.Status(ctx, options(cmd))
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	statusCmd.Flags().BoolVarP(&watch, "watch", "w", false, "print a summary line every interval")
	statusCmd.Flags().DurationVarP(&watchInterval, "interval", "i", ctl.DefaultWatchInterval, "refresh period with --watch")
	rootCmd.AddCommand(statusCmd)
}
