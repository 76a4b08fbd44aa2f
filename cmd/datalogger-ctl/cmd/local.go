package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/datalogger/internal/service/ctl"
)

var (
	// historyCmd prints record files.
	historyCmd = &cobra.Command{
		Use:   "history [file|dir]",
		Short: "Print a record file or list record files.",
		Long:  "Prints the points of a record file. Given a directory, or nothing, lists the record files of the storage directory.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) > 0 {
				path = args[0]
			}

			return ctl.History(options(cmd), path)
		},
	}

	// portsCmd lists serial ports.
	portsCmd = &cobra.Command{
		Use:   "ports",
		Short: "List serial ports.",
		Long:  "Lists the serial ports of this machine, to pick sensors.port in the settings file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctl.Ports(options(cmd))
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(historyCmd, portsCmd)
}
