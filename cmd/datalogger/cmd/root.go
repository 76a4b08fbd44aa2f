package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/datalogger/internal/config"
	"github.com/oshokin/datalogger/internal/service/daemon"
	"github.com/oshokin/datalogger/internal/version"
)

var (
	// configPath to the settings file.
	configPath string
	// panelFile path where operator fields are persisted.
	panelFile string
	// allowMultiple skips the single-instance check.
	allowMultiple bool

	// rootCmd represents the base command for running the data logger.
	rootCmd = &cobra.Command{
		Use:   "datalogger [listen-address]",
		Short: "Run the field data logger.",
		Long: `Runs the data logger poll loop and its gRPC status server.

Each tick reads the sensors, advances the AD, IV and TEMP monitoring sessions,
evaluates the alarms and drives the relay and the digital output.
Samples are appended to per-quantity CSV record files in the storage directory.

The server listens on the configured address unless one is given as argument
(e.g., :7311, 0.0.0.0:7311). Operator fields are persisted to a JSON file and
restored on start. On SIGINT or SIGTERM running sessions are written out before exit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return daemon.Run(ctx, &daemon.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				PanelFile:     panelFile,
				AllowMultiple: allowMultiple,
			})
		},
	}
)

// Execute runs the datalogger CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&panelFile, "panel-file", "p", "", "path to persist operator fields (overrides config)")
	rootCmd.Flags().BoolVar(&allowMultiple, "allow-multiple", false, "skip the single-instance check")
}
