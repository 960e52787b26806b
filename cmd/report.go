package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thewisemo/al-eairy-ota/internal/app"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render CSV, chart and summary from the latest snapshot",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().String("source", "", "Snapshot URL or path (default report.source, then the local latest)")
	reportCmd.Flags().String("out", "", "Output directory (default report.out_dir)")
	reportCmd.Flags().StringSlice("city", nil, "Only these cities (repeatable)")
	reportCmd.Flags().Bool("notify", false, "Send the summary to Telegram")
	reportCmd.Flags().Bool("no-files", false, "Print the summary without writing files")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	source, _ := cmd.Flags().GetString("source")
	out, _ := cmd.Flags().GetString("out")
	cities, _ := cmd.Flags().GetStringSlice("city")
	notify, _ := cmd.Flags().GetBool("notify")
	noFiles, _ := cmd.Flags().GetBool("no-files")

	res, err := svc.Report(cmd.Context(), app.ReportOptions{
		Source:  source,
		OutDir:  out,
		Cities:  cities,
		Notify:  notify,
		NoFiles: noFiles,
	})
	if err != nil {
		return err
	}

	fmt.Fprint(os.Stdout, res.Report.Text())
	if !noFiles {
		w := cmd.ErrOrStderr()
		fmt.Fprintf(w, "\nCSV:     %s\n", res.Artifacts.CSV)
		if res.Artifacts.Chart != "" {
			fmt.Fprintf(w, "Chart:   %s\n", res.Artifacts.Chart)
		}
		fmt.Fprintf(w, "Summary: %s\n", res.Artifacts.Summary)
	}
	if res.Notified {
		fmt.Fprintln(cmd.ErrOrStderr(), "Summary sent to Telegram.")
	}
	return nil
}
