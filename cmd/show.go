package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-hltv-dataset/internal/report"
	"github.com/pable/go-hltv-dataset/internal/storage"
)

var showCmd = &cobra.Command{
	Use:   "show <match-id>",
	Short: "Show a stored match with per-map box scores",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	matchID := args[0]

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	ds, err := db.LoadDataset()
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	match, ok := ds.Matches[matchID]
	if !ok {
		fmt.Fprintf(os.Stderr, "No match with id %q\n", matchID)
		return nil
	}

	report.PrintMatchSummary(os.Stdout, ds, match)
	report.PrintMapTable(os.Stdout, ds, match)
	for _, mapID := range match.MapIDs {
		mp, ok := ds.Maps[mapID]
		if !ok {
			continue
		}
		fmt.Fprintf(os.Stdout, "\n%s (%s)\n", mp.Name, mp.ID)
		report.PrintBoxScore(os.Stdout, ds, mp)
	}
	return nil
}
