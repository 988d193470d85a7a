package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fkoller/threatfeed/internal/ingest"
)

var backfillQuiet bool

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Embed stored tweets that have no vector yet",
	Long: `Embed stored tweets that have no vector yet.

Texts are sanitized (URLs stripped) before embedding. Tweets that fail
to embed are logged and skipped; a later run picks them up again.`,
	RunE: runBackfill,
}

func init() {
	backfillCmd.Flags().BoolVar(&backfillQuiet, "quiet", false, "plain output without the progress bar")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	emb, err := getEmbedder()
	if err != nil {
		return err
	}

	backfiller := ingest.NewBackfiller(emb, storeClient, collector, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stats ingest.BackfillStats
	if backfillQuiet {
		stats, err = backfiller.Run(ctx, nil)
	} else {
		stats, err = runBackfillProgress(cancel, func(progress ingest.ProgressFunc) (ingest.BackfillStats, error) {
			return backfiller.Run(ctx, progress)
		})
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Printf("Interrupted: %d embedded, %d failed\n", stats.Embedded, stats.Failed)
			return nil
		}
		return fmt.Errorf("backfill: %w", err)
	}

	if backfillQuiet {
		fmt.Printf("Done: %d embedded, %d failed of %d missing\n", stats.Embedded, stats.Failed, stats.Total)
	}
	return nil
}
