package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	indexWait         bool
	indexPollInterval time.Duration
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Create the vector search index",
	Long: `Create the vector search index on the tweet collection.

One-time setup. Requires a deployment with vector search support. The
index covers the embedding field with the configured dimensions and
similarity metric.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexWait, "wait", true, "wait until the index is queryable")
	indexCmd.Flags().DurationVar(&indexPollInterval, "poll-interval", 5*time.Second, "status poll interval when waiting")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	fmt.Printf("Creating vector index %q (%d dimensions, %s)...\n",
		cfg.VectorIndexName, cfg.VectorDimensions, cfg.SimilarityMetric)

	if err := storeClient.EnsureVectorIndex(ctx, cfg.VectorDimensions, cfg.SimilarityMetric); err != nil {
		return fmt.Errorf("create vector index: %w", err)
	}

	if !indexWait {
		fmt.Println("Index creation requested. It may take a few minutes to become queryable.")
		return nil
	}

	fmt.Println("Waiting for the index to become queryable...")
	if err := storeClient.WaitForVectorIndex(ctx, indexPollInterval); err != nil {
		return fmt.Errorf("wait for vector index: %w", err)
	}

	fmt.Println("Index is ready.")
	return nil
}
