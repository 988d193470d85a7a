package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fkoller/threatfeed/internal/ingest"
	"github.com/fkoller/threatfeed/internal/twitter"
)

var (
	collectQuery    string
	collectMaxPages int
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect recent tweets into the database",
	Long: `Collect recent tweets matching the configured search query.

Pages through the recent-search API and stores every tweet. Tweets that
are already stored are skipped and counted.

Examples:
  threatfeed collect
  threatfeed collect --query "ransomware lang:en" --max-pages 5`,
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().StringVarP(&collectQuery, "query", "q", "", "search query (default from config)")
	collectCmd.Flags().IntVar(&collectMaxPages, "max-pages", 0, "page budget (default from config)")
}

func runCollect(cmd *cobra.Command, args []string) error {
	if cfg.TwitterBearerToken == "" {
		return fmt.Errorf("twitter bearer token required")
	}

	query := collectQuery
	if query == "" {
		query = cfg.TwitterQuery
	}
	maxPages := collectMaxPages
	if maxPages == 0 {
		maxPages = cfg.TwitterMaxPages
	}

	source := twitter.NewClient(twitter.Config{BearerToken: cfg.TwitterBearerToken})
	c := ingest.NewCollector(source, storeClient, collector, logger)

	fmt.Printf("Collecting tweets for query: %s\n", query)
	stats, err := c.Run(context.Background(), ingest.CollectorConfig{
		Query:     query,
		PageSize:  cfg.TwitterPageSize,
		MaxPages:  maxPages,
		PageDelay: cfg.TwitterPageDelay,
	})
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	fmt.Printf("Done: %d fetched, %d inserted, %d duplicates skipped (%d pages)\n",
		stats.Fetched, stats.Inserted, stats.Duplicates, stats.Pages)
	return nil
}
