package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search stored tweets by similarity",
	Long: `Search stored tweets by semantic similarity, without the chat layer.

Prints the ranked matches with their similarity scores.

Examples:
  threatfeed search "supply chain attacks"
  threatfeed search "CVE-2026-1234" -n 10`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "max results (default from config)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	topK := searchLimit
	if topK == 0 {
		topK = cfg.TopK
	}

	retriever, err := getRetriever()
	if err != nil {
		return err
	}

	result, err := retriever.Search(context.Background(), query, topK)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(result) == 0 {
		fmt.Println("No matching tweets found.")
		return nil
	}

	for i, hit := range result {
		fmt.Printf("%2d. [%.4f] %s\n", i+1, hit.Score, hit.Text)
	}
	return nil
}
