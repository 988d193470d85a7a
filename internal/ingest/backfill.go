package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fkoller/threatfeed/internal/metrics"
	"github.com/fkoller/threatfeed/internal/models"
	"github.com/fkoller/threatfeed/internal/sanitize"
)

// Embedder converts text to a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingStore reads documents missing embeddings and writes vectors back.
type EmbeddingStore interface {
	CountMissingEmbeddings(ctx context.Context) (int64, error)
	FindMissingEmbeddings(ctx context.Context, limit int64) ([]models.TweetDocument, error)
	SetEmbedding(ctx context.Context, tweetID string, vec []float32) error
}

// BackfillStats summarizes one backfill run.
type BackfillStats struct {
	Total    int64
	Embedded int
	Failed   int
}

// ProgressFunc is called after every processed document with the number
// done so far and the total. May be nil.
type ProgressFunc func(done, total int64)

// Backfiller embeds stored tweets that have no vector yet. Texts are
// sanitized before embedding; the stored text itself is never modified.
type Backfiller struct {
	embedder  Embedder
	store     EmbeddingStore
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewBackfiller creates a Backfiller. collector may be nil.
func NewBackfiller(embedder Embedder, store EmbeddingStore, collector *metrics.Collector, logger *slog.Logger) *Backfiller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backfiller{
		embedder:  embedder,
		store:     store,
		collector: collector,
		logger:    logger,
	}
}

// Run embeds every document missing a vector, one at a time. A failure on
// one document is logged and counted; the run continues with the next.
// Failed documents stay unembedded and are picked up by a later run.
func (b *Backfiller) Run(ctx context.Context, progress ProgressFunc) (BackfillStats, error) {
	total, err := b.store.CountMissingEmbeddings(ctx)
	if err != nil {
		return BackfillStats{}, fmt.Errorf("count missing embeddings: %w", err)
	}
	stats := BackfillStats{Total: total}
	if total == 0 {
		return stats, nil
	}

	docs, err := b.store.FindMissingEmbeddings(ctx, total)
	if err != nil {
		return stats, fmt.Errorf("find missing embeddings: %w", err)
	}

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if b.embedOne(ctx, doc) {
			stats.Embedded++
		} else {
			stats.Failed++
		}
		if progress != nil {
			progress(int64(i+1), total)
		}
	}
	return stats, nil
}

func (b *Backfiller) embedOne(ctx context.Context, doc models.TweetDocument) bool {
	text := sanitize.StripURLs(doc.Tweet.Text)

	vec, err := b.embedder.Embed(ctx, text)
	if err != nil {
		b.logger.Warn("embedding failed, skipping tweet", "tweet_id", doc.Tweet.ID, "error", err)
		if b.collector != nil {
			b.collector.Add(metrics.CounterEmbedFailures, 1)
		}
		return false
	}

	if err := b.store.SetEmbedding(ctx, doc.Tweet.ID, vec); err != nil {
		b.logger.Warn("storing embedding failed, skipping tweet", "tweet_id", doc.Tweet.ID, "error", err)
		if b.collector != nil {
			b.collector.Add(metrics.CounterEmbedFailures, 1)
		}
		return false
	}
	return true
}
