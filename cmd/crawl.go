package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-hltv-dataset/internal/crawler"
	"github.com/pable/go-hltv-dataset/internal/hltv"
	"github.com/pable/go-hltv-dataset/internal/storage"
)

// crawl command flags.
var (
	// crawlEvent is the numeric event id as it appears in site URLs.
	crawlEvent string
	// crawlEventSlug is the event's URL slug; any non-empty value works,
	// the site routes on the id.
	crawlEventSlug string
	// crawlCutoff excludes maps played after this date (YYYY-MM-DD).
	crawlCutoff string
	// crawlMinPlayers is the minimum lineup overlap for the map
	// discovery queries.
	crawlMinPlayers int
	crawlBaseURL    string
	crawlInterval   time.Duration
	crawlCooldown   time.Duration
	// crawlMaxBlockRetries bounds the block-retry loop; 0 retries
	// forever.
	crawlMaxBlockRetries int
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl one event into the dataset",
	Long: `Crawls an event end to end: participating teams, their rosters, the
maps those lineups played, the parent matches, per-map round records and
player box scores. Progress is saved after every stage, so an
interrupted crawl can be re-run and will re-save over what it already
has.

Example:
  hltvds crawl --event 4866 --event-slug pgl-major-antwerp-2022 --cutoff 2022-05-22`,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().StringVar(&crawlEvent, "event", "", "event id (required)")
	crawlCmd.Flags().StringVar(&crawlEventSlug, "event-slug", "event", "event URL slug")
	crawlCmd.Flags().StringVar(&crawlCutoff, "cutoff", "", "exclude maps played after this date (YYYY-MM-DD)")
	crawlCmd.Flags().IntVar(&crawlMinPlayers, "min-players", 5, "minimum lineup overlap for map discovery")
	crawlCmd.Flags().StringVar(&crawlBaseURL, "base-url", "https://www.hltv.org", "site base URL")
	crawlCmd.Flags().DurationVar(&crawlInterval, "interval", 3*time.Second, "minimum spacing between requests")
	crawlCmd.Flags().DurationVar(&crawlCooldown, "cooldown", 5*time.Minute, "sleep after an access-denial page")
	crawlCmd.Flags().IntVar(&crawlMaxBlockRetries, "max-block-retries", 0, "give up after this many blocked attempts (0 = never)")
	_ = crawlCmd.MarkFlagRequired("event")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	var cutoff time.Time
	if crawlCutoff != "" {
		var err error
		cutoff, err = time.Parse("2006-01-02", crawlCutoff)
		if err != nil {
			return fmt.Errorf("parse --cutoff: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	log := newLogger()
	client := hltv.NewClient(hltv.Config{
		BaseURL:         crawlBaseURL,
		MinInterval:     crawlInterval,
		Cooldown:        crawlCooldown,
		MaxBlockRetries: crawlMaxBlockRetries,
		Logger:          log,
	})
	session := crawler.NewSession(client, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	stages := []struct {
		name string
		run  func() error
	}{
		{"teams", func() error { return session.DiscoverTeams(ctx, crawlEvent, crawlEventSlug) }},
		{"rosters", func() error { return session.DiscoverRosters(ctx, crawlEvent) }},
		{"maps", func() error { return session.DiscoverMaps(ctx, cutoff, crawlMinPlayers) }},
		{"matches", func() error { return session.ResolveMatches(ctx) }},
		{"map details", func() error { return session.ExtractMapDetails(ctx) }},
		{"box scores", func() error { return session.ExtractPlayerStats(ctx) }},
	}
	for _, stage := range stages {
		if err := stage.run(); err != nil {
			// Save what the aborted stage left behind before bailing.
			if saveErr := db.SaveDataset(session.Data); saveErr != nil {
				log.WithError(saveErr).Error("save after aborted stage failed")
			}
			return fmt.Errorf("stage %s: %w", stage.name, err)
		}
		if err := db.SaveDataset(session.Data); err != nil {
			return fmt.Errorf("save after stage %s: %w", stage.name, err)
		}
	}

	if err := session.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "\nSome items were skipped:\n%v\n", err)
	}
	fmt.Printf("\nDone: %d teams, %d players, %d matches, %d maps (%d invalid), %d box score rows\n",
		len(session.Data.Teams), len(session.Data.Players), len(session.Data.Matches),
		len(session.Data.Maps), len(session.Data.InvalidMapIDs), len(session.Data.Stats))
	return nil
}
