package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/thewisemo/al-eairy-ota/internal/models"
)

var expandCmd = &cobra.Command{
	Use:   "expand <city>",
	Short: "Print the search queries tried for a city, in order",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpand,
}

func init() {
	expandCmd.Flags().String("date", "", "Run date YYYY-MM-DD (default today)")
	expandCmd.Flags().Bool("brand", false, "Also print the brand-targeted queries")
	rootCmd.AddCommand(expandCmd)
}

func runExpand(cmd *cobra.Command, args []string) error {
	day := svc.RunDate(time.Now())
	if v, _ := cmd.Flags().GetString("date"); v != "" {
		d, err := time.Parse(models.DateLayout, v)
		if err != nil {
			return fmt.Errorf("--date: %w", err)
		}
		day = d
	}

	exp, err := svc.Expander()
	if err != nil {
		return err
	}
	for i, q := range exp.Expand(args[0], day) {
		fmt.Fprintf(os.Stdout, "%2d. %s\n", i+1, q)
	}

	if b, _ := cmd.Flags().GetBool("brand"); b {
		brand, err := svc.Brand()
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "\nbrand:")
		for i, q := range exp.BrandQueries(brand.Queries, args[0], day) {
			fmt.Fprintf(os.Stdout, "%2d. %s\n", i+1, q)
		}
	}
	return nil
}
