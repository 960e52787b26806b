package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thewisemo/al-eairy-ota/internal/app"
	"github.com/thewisemo/al-eairy-ota/internal/platform"
	"github.com/thewisemo/al-eairy-ota/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one aggregation over all cities and providers",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringSlice("city", nil, "Only these cities (repeatable)")
	runCmd.Flags().StringSlice("provider", nil, "Only these providers, in order (repeatable)")
	runCmd.Flags().Bool("skip-units", false, "Do not open hotel pages for room units")
	runCmd.Flags().Bool("dry-run", false, "Do not write the snapshot")
	runCmd.Flags().String("format", "table", "Output format: table, json, none")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cities, _ := cmd.Flags().GetStringSlice("city")
	providers, _ := cmd.Flags().GetStringSlice("provider")
	skipUnits, _ := cmd.Flags().GetBool("skip-units")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	format, _ := cmd.Flags().GetString("format")

	spin := ui.NewSpinner()
	spin.Start("Starting run...")
	ctx := platform.WithProgress(cmd.Context(), spin.Progress())
	res, err := svc.Scrape(ctx, app.ScrapeOptions{
		Cities:    cities,
		Providers: providers,
		SkipUnits: skipUnits,
		DryRun:    dryRun,
	})
	spin.Stop()
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Snapshot)
	case "none":
	default:
		printSnapshot(os.Stdout, res.Snapshot, "")
	}
	if res.Path != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Snapshot written to %s\n", res.Path)
	}
	return nil
}
