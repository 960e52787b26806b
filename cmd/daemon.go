package cmd

import (
	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the aggregation on a schedule",
	Long:  "Runs every scheduler.interval (aligned to the run timezone plus scheduler.offset) and renders the report after each run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return svc.Daemon(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
