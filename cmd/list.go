package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-hltv-dataset/internal/report"
	"github.com/pable/go-hltv-dataset/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored matches",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	ds, err := db.LoadDataset()
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	if len(ds.Matches) == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'hltvds crawl --event <id>' to build the dataset.")
		return nil
	}

	report.PrintMatchList(os.Stdout, ds)
	return nil
}
