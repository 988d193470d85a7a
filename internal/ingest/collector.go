// Package ingest collects tweets and backfills embeddings.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fkoller/threatfeed/internal/metrics"
	"github.com/fkoller/threatfeed/internal/models"
	"github.com/fkoller/threatfeed/internal/store"
	"github.com/fkoller/threatfeed/internal/twitter"
)

// Source fetches pages of tweets matching a query.
type Source interface {
	SearchRecent(ctx context.Context, query string, maxResults int, nextToken string) (twitter.Page, error)
}

// Inserter persists tweet documents.
type Inserter interface {
	InsertTweet(ctx context.Context, doc models.TweetDocument) error
}

// CollectorConfig tunes one collection run.
type CollectorConfig struct {
	Query     string
	PageSize  int
	MaxPages  int
	PageDelay time.Duration
}

// CollectStats summarizes one collection run.
type CollectStats struct {
	Fetched    int
	Inserted   int
	Duplicates int
	Pages      int
}

// Collector pages the recent-search API and persists every tweet.
type Collector struct {
	source    Source
	inserter  Inserter
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewCollector creates a Collector. collector may be nil.
func NewCollector(source Source, inserter Inserter, collector *metrics.Collector, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		source:    source,
		inserter:  inserter,
		collector: collector,
		logger:    logger,
	}
}

// Run fetches pages until the continuation token runs out or MaxPages is
// reached. Tweets already stored are skipped and counted, never fatal.
func (c *Collector) Run(ctx context.Context, cfg CollectorConfig) (CollectStats, error) {
	var stats CollectStats
	nextToken := ""

	for page := 0; cfg.MaxPages <= 0 || page < cfg.MaxPages; page++ {
		if page > 0 && cfg.PageDelay > 0 {
			select {
			case <-time.After(cfg.PageDelay):
			case <-ctx.Done():
				return stats, ctx.Err()
			}
		}

		result, err := c.source.SearchRecent(ctx, cfg.Query, cfg.PageSize, nextToken)
		if err != nil {
			return stats, fmt.Errorf("fetch page %d: %w", page+1, err)
		}
		stats.Pages++
		stats.Fetched += len(result.Tweets)

		for _, doc := range result.Tweets {
			err := c.inserter.InsertTweet(ctx, doc)
			switch {
			case err == nil:
				stats.Inserted++
				if c.collector != nil {
					c.collector.Add(metrics.CounterTweetsInserted, 1)
				}
			case errors.Is(err, store.ErrDuplicate):
				stats.Duplicates++
				if c.collector != nil {
					c.collector.Add(metrics.CounterDuplicatesSkipped, 1)
				}
			default:
				return stats, fmt.Errorf("insert tweet %s: %w", doc.Tweet.ID, err)
			}
		}

		c.logger.Info("collected page",
			"page", page+1,
			"fetched", len(result.Tweets),
			"inserted", stats.Inserted,
			"duplicates", stats.Duplicates)

		nextToken = result.NextToken
		if nextToken == "" {
			break
		}
	}

	return stats, nil
}
