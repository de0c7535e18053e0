package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-hltv-dataset/internal/model"
	"github.com/pable/go-hltv-dataset/internal/report"
	"github.com/pable/go-hltv-dataset/internal/storage"
)

var roundsCmd = &cobra.Command{
	Use:   "rounds <map-id>",
	Short: "Show the round-by-round record of a stored map",
	Args:  cobra.ExactArgs(1),
	RunE:  runRounds,
}

func runRounds(cmd *cobra.Command, args []string) error {
	mapID := args[0]

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	ds, err := db.LoadDataset()
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	mp, ok := ds.Maps[mapID]
	if !ok {
		fmt.Fprintf(os.Stderr, "No map with id %q\n", mapID)
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n%s  |  %s vs %s  |  %s\n\n",
		mp.Name, teamLabel(ds, mp.Team1ID), teamLabel(ds, mp.Team2ID),
		mp.Date.Format("2006-01-02 15:04"))
	report.PrintRoundLog(os.Stdout, ds, mp)
	return nil
}

func teamLabel(ds *model.Dataset, id string) string {
	if t, ok := ds.Teams[id]; ok {
		return t.Name
	}
	return id
}
