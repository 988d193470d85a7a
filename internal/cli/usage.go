package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fkoller/threatfeed/internal/metrics"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show runtime statistics",
	Long: `Show in-process runtime statistics and corpus counts.

Timings and token counts cover the current process only.`,
	RunE: runUsage,
}

func runUsage(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	total, err := storeClient.CountTweets(ctx)
	if err != nil {
		return fmt.Errorf("count tweets: %w", err)
	}
	missing, err := storeClient.CountMissingEmbeddings(ctx)
	if err != nil {
		return fmt.Errorf("count missing embeddings: %w", err)
	}

	fmt.Printf("Corpus\n")
	fmt.Printf("═══════════════════════════════════════\n")
	fmt.Printf("Tweets stored:      %d\n", total)
	fmt.Printf("Missing embeddings: %d\n", missing)

	snap := collector.Snapshot()
	fmt.Printf("\nProcess Statistics (in-memory)\n")
	fmt.Printf("═══════════════════════════════════════\n")
	fmt.Printf("Uptime: %.1f seconds\n", snap.UptimeSeconds)

	if snap.Embedding != nil {
		fmt.Printf("\nEmbeddings:\n")
		printOpStats(snap.Embedding)
	}

	if snap.VectorSearch != nil {
		fmt.Printf("\nVector Search:\n")
		printOpStats(snap.VectorSearch)
	}

	if snap.Completion != nil {
		fmt.Printf("\nCompletions:\n")
		printOpStats(snap.Completion)
		printTokenStats(snap.Completion)
	}

	if len(snap.Counters) > 0 {
		fmt.Printf("\nCounters:\n")
		for _, name := range []string{
			metrics.CounterTweetsInserted,
			metrics.CounterDuplicatesSkipped,
			metrics.CounterEmbedFailures,
			metrics.CounterDegradedTurns,
		} {
			if v, ok := snap.Counters[name]; ok {
				fmt.Printf("  %-20s %d\n", name, v)
			}
		}
	}

	return nil
}

// printOpStats displays timing statistics for an operation.
func printOpStats(op *metrics.OperationSnapshot) {
	fmt.Printf("  Calls: %d, Total: %dms\n", op.Count, op.TotalTimeMs)
	fmt.Printf("  Time: avg %.1fms, min %dms, max %dms\n",
		op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}

// printTokenStats displays token statistics if available.
func printTokenStats(op *metrics.OperationSnapshot) {
	if op.TotalInputTokens == nil || op.TotalOutputTokens == nil {
		return
	}
	fmt.Printf("  Tokens In:  %d total\n", *op.TotalInputTokens)
	fmt.Printf("  Tokens Out: %d total\n", *op.TotalOutputTokens)
}
