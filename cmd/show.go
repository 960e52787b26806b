package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thewisemo/al-eairy-ota/internal/models"
	"github.com/thewisemo/al-eairy-ota/internal/store"
)

var showCmd = &cobra.Command{
	Use:   "show [city]",
	Short: "Print the latest snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().String("file", "", "Snapshot file (default the latest pointer)")
	showCmd.Flags().Bool("history", false, "List stored dated snapshots instead")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	fs := svc.Store()
	if h, _ := cmd.Flags().GetBool("history"); h {
		paths, err := fs.History()
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(os.Stdout, p)
		}
		return nil
	}

	var (
		snap *models.RunSnapshot
		err  error
	)
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		snap, err = store.ReadFile(file)
	} else {
		snap, err = fs.ReadLatest()
	}
	if err != nil {
		return err
	}

	city := ""
	if len(args) == 1 {
		city = args[0]
		if _, ok := snap.City(city); !ok {
			return fmt.Errorf("city %q not in snapshot for %s", city, snap.CheckIn)
		}
	}
	printSnapshot(os.Stdout, snap, city)
	return nil
}
