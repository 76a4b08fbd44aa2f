package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/datalogger/internal/service/ctl"
)

// setCmd edits one panel field.
var setCmd = &cobra.Command{
	Use:   "set <screen> <field> <value>",
	Short: "Set a panel field.",
	Long: `Sets one operator field, exactly as the panel would.

Examples:
  datalogger-ctl set setup interval 0.5       sample every 30 seconds
  datalogger-ctl set ad alarm Enabled
  datalogger-ctl set ad limit1 100
  datalogger-ctl set relay alarm_action "Turn On"
  datalogger-ctl set dout mode PWM
  datalogger-ctl set clock time "2026-10-17 18:00:00"
  datalogger-ctl set ad count 0               clear the digital input counter`,
	Args: cobra.ExactArgs(3), //nolint:mnd // screen, field, value.
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		return ctl.Set(ctx, options(cmd), args[0], args[1], args[2])
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(setCmd)
}
