package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/datalogger/internal/config"
	"github.com/oshokin/datalogger/internal/service/ctl"
	"github.com/oshokin/datalogger/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides the configured daemon address.
	serverAddress string

	// rootCmd represents the base command of the operator CLI.
	rootCmd = &cobra.Command{
		Use:   "datalogger-ctl",
		Short: "Control a running data logger.",
		Long: `Operator CLI for the data logger daemon.

Starts and stops monitoring sessions, edits panel fields such as alarm
thresholds and the sample interval, and shows the live status.
The history and ports commands work on the local machine without the daemon.`,
		SilenceUsage: true,
	}
)

// Execute runs the datalogger-ctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// options builds the service options from the persistent flags.
func options(cmd *cobra.Command) *ctl.Options {
	return &ctl.Options{
		ConfigPath:    cfgPath,
		ServerAddress: serverAddress,
		Out:           cmd.OutOrStdout(),
	}
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&serverAddress, "server", "s", "", "daemon address (overrides config)")
}
