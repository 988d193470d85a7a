// Package retrieval embeds queries and finds the most similar stored tweets.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fkoller/threatfeed/internal/metrics"
	"github.com/fkoller/threatfeed/internal/models"
)

// ErrEmbedding indicates the embedding provider failed for the query.
// Retrieval short-circuits; no partial results are returned.
var ErrEmbedding = errors.New("query embedding failed")

// MaxTopK caps result sizes to bound external API cost.
const MaxTopK = 100

// Embedder converts text to a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher runs an approximate nearest-neighbor query.
type Searcher interface {
	VectorSearch(ctx context.Context, vec []float32, numCandidates, limit int) ([]models.ScoredTweet, error)
}

// Result is an ordered list of similarity hits, highest score first.
type Result []models.ScoredTweet

// Texts returns the hit texts in rank order, dropping the scores.
func (r Result) Texts() []string {
	texts := make([]string, len(r))
	for i, hit := range r {
		texts[i] = hit.Text
	}
	return texts
}

// Retriever embeds a free-text query and searches the vector index.
// The query is embedded as-is; sanitizing applies only to stored documents
// at ingestion time.
type Retriever struct {
	embedder  Embedder
	searcher  Searcher
	overfetch int
	collector *metrics.Collector
}

// New creates a Retriever. overfetch scales the index-side candidate pool
// relative to topK to improve recall; values below 1 are raised to 1.
// collector may be nil.
func New(embedder Embedder, searcher Searcher, overfetch int, collector *metrics.Collector) *Retriever {
	if overfetch < 1 {
		overfetch = 1
	}
	return &Retriever{
		embedder:  embedder,
		searcher:  searcher,
		overfetch: overfetch,
		collector: collector,
	}
}

// Search returns up to topK stored tweets most similar to query, ordered
// by descending similarity score. topK of zero returns an empty result
// without issuing any external call.
func (r *Retriever) Search(ctx context.Context, query string, topK int) (Result, error) {
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if topK < 0 || topK > MaxTopK {
		return nil, fmt.Errorf("top_k must be between 0 and %d, got %d", MaxTopK, topK)
	}
	if topK == 0 {
		return Result{}, nil
	}

	start := time.Now()
	vec, err := r.embedder.Embed(ctx, query)
	if r.collector != nil {
		r.collector.RecordTiming(metrics.OpEmbedding, time.Since(start))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEmbedding, err)
	}

	start = time.Now()
	hits, err := r.searcher.VectorSearch(ctx, vec, topK*r.overfetch, topK)
	if r.collector != nil {
		r.collector.RecordTiming(metrics.OpVectorSearch, time.Since(start))
	}
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	// The index returns hits ordered by score, but the contract is ours
	// to keep: enforce descending order and the topK bound.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return Result(hits), nil
}
