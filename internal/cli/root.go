// Package cli provides the command-line interface for threatfeed.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fkoller/threatfeed/internal/chat"
	"github.com/fkoller/threatfeed/internal/config"
	"github.com/fkoller/threatfeed/internal/llm"
	"github.com/fkoller/threatfeed/internal/metrics"
	"github.com/fkoller/threatfeed/internal/retrieval"
	"github.com/fkoller/threatfeed/internal/secrets"
	"github.com/fkoller/threatfeed/internal/store"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config, logger and store client
	cfg         config.Config
	logger      *slog.Logger
	logCleanup  func() error
	storeClient *store.Client
	collector   *metrics.Collector

	// Lazy-initialized LLM components
	embedder *llm.Embedder
	model    *llm.Model
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "threatfeed",
	Short: "Cybersecurity tweet RAG chatbot",
	Long: `Threatfeed collects cybersecurity tweets, embeds them into a vector
index, and answers questions about the threat landscape grounded in the
most similar stored tweets.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		// .env is optional; missing file is fine
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, logCleanup = config.SetupLogger(cfg.LogFile, level)
		slog.SetDefault(logger)

		collector = metrics.NewCollector()

		ctx := context.Background()
		if err := resolveSecrets(ctx); err != nil {
			return err
		}

		storeClient, err = store.NewClient(ctx, store.Config{
			URI:             cfg.MongoURI,
			Database:        cfg.MongoDatabase,
			Collection:      cfg.MongoCollection,
			VectorIndexName: cfg.VectorIndexName,
		}, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		if err := storeClient.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if storeClient != nil {
			if err := storeClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if logCleanup != nil {
			_ = logCleanup()
		}
	},
}

// resolveSecrets fills credentials missing from the environment out of AWS
// Secrets Manager. A missing secret is fatal: nothing downstream works
// without key material.
func resolveSecrets(ctx context.Context) error {
	if cfg.SkipSecrets {
		return nil
	}

	fetcher, err := secrets.NewStore(ctx, cfg.AWSRegion)
	if err != nil {
		return fmt.Errorf("init secrets manager: %w", err)
	}

	creds, err := secrets.Resolve(ctx, fetcher, secrets.SecretNames{
		OpenAI:  cfg.SecretOpenAI,
		Mongo:   cfg.SecretMongo,
		Twitter: cfg.SecretTwitter,
	}, secrets.Credentials{
		OpenAIAPIKey:       cfg.OpenAIAPIKey,
		MongoURI:           cfg.MongoURI,
		TwitterBearerToken: cfg.TwitterBearerToken,
	})
	if err != nil {
		return fmt.Errorf("resolve secrets: %w", err)
	}

	cfg.OpenAIAPIKey = creds.OpenAIAPIKey
	cfg.MongoURI = creds.MongoURI
	cfg.TwitterBearerToken = creds.TwitterBearerToken
	return nil
}

// getEmbedder lazily initializes the embedding client.
func getEmbedder() (*llm.Embedder, error) {
	if embedder == nil {
		var err error
		embedder, err = llm.NewEmbedder(cfg)
		if err != nil {
			return nil, fmt.Errorf("init embedder: %w", err)
		}
	}
	return embedder, nil
}

// getRetriever wires the embedder and the vector index together.
func getRetriever() (*retrieval.Retriever, error) {
	emb, err := getEmbedder()
	if err != nil {
		return nil, err
	}
	return retrieval.New(emb, storeClient, cfg.OverfetchFactor, collector), nil
}

// getOrchestrator creates the chat orchestrator with lazy LLM initialization.
func getOrchestrator() (*chat.Orchestrator, error) {
	retriever, err := getRetriever()
	if err != nil {
		return nil, err
	}
	if model == nil {
		model, err = llm.NewModel(cfg)
		if err != nil {
			return nil, fmt.Errorf("init model: %w", err)
		}
	}
	return chat.New(retriever, model, cfg.TopK, collector, logger), nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(usageCmd)
}
