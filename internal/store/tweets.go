package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fkoller/threatfeed/internal/models"
)

// InsertTweet stores a tweet document. Returns ErrDuplicate if a tweet
// with the same id is already present.
func (c *Client) InsertTweet(ctx context.Context, doc models.TweetDocument) error {
	_, err := c.coll.InsertOne(ctx, doc)
	if err != nil {
		return wrapWriteError(err)
	}
	return nil
}

// CountTweets returns the number of stored tweets.
func (c *Client) CountTweets(ctx context.Context) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count tweets: %w", err)
	}
	return n, nil
}

// missingEmbeddingFilter matches documents whose embedding was never backfilled.
var missingEmbeddingFilter = bson.D{
	{Key: "tweet.embedding", Value: bson.D{{Key: "$exists", Value: false}}},
}

// CountMissingEmbeddings returns how many tweets still lack an embedding.
func (c *Client) CountMissingEmbeddings(ctx context.Context) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, missingEmbeddingFilter)
	if err != nil {
		return 0, fmt.Errorf("count missing embeddings: %w", err)
	}
	return n, nil
}

// FindMissingEmbeddings returns up to limit tweets without an embedding,
// oldest first. limit <= 0 means no limit.
func (c *Client) FindMissingEmbeddings(ctx context.Context, limit int64) ([]models.TweetDocument, error) {
	opts := options.Find().SetSort(bson.D{{Key: "tweet.created_at", Value: 1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cursor, err := c.coll.Find(ctx, missingEmbeddingFilter, opts)
	if err != nil {
		return nil, fmt.Errorf("find missing embeddings: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []models.TweetDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tweets: %w", err)
	}
	return docs, nil
}

// SetEmbedding backfills the embedding for one tweet. The write happens
// exactly once per document; the field is never rewritten afterwards.
func (c *Client) SetEmbedding(ctx context.Context, tweetID string, vec []float32) error {
	res, err := c.coll.UpdateOne(ctx,
		bson.D{{Key: "tweet.id", Value: tweetID}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "tweet.embedding", Value: vec}}}},
	)
	if err != nil {
		return fmt.Errorf("set embedding for %s: %w", tweetID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: tweet %s", ErrNotFound, tweetID)
	}
	return nil
}

// VectorSearch runs an approximate nearest-neighbor query against the
// vector index. numCandidates controls index-side recall; limit bounds the
// returned hits, ordered by descending similarity score.
func (c *Client) VectorSearch(ctx context.Context, vec []float32, numCandidates, limit int) ([]models.ScoredTweet, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: c.cfg.VectorIndexName},
			{Key: "path", Value: "tweet.embedding"},
			{Key: "queryVector", Value: vec},
			{Key: "numCandidates", Value: numCandidates},
			{Key: "limit", Value: limit},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "text", Value: "$tweet.text"},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}

	cursor, err := c.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapSearchError(err)
	}
	defer cursor.Close(ctx)

	var hits []models.ScoredTweet
	if err := cursor.All(ctx, &hits); err != nil {
		return nil, wrapSearchError(err)
	}
	return hits, nil
}

// EnsureVectorIndex creates the vector search index if it does not exist.
// Index builds are asynchronous; use WaitForVectorIndex before querying.
func (c *Client) EnsureVectorIndex(ctx context.Context, dimensions int, similarity string) error {
	definition := bson.D{
		{Key: "fields", Value: bson.A{
			bson.D{
				{Key: "type", Value: "vector"},
				{Key: "path", Value: "tweet.embedding"},
				{Key: "numDimensions", Value: dimensions},
				{Key: "similarity", Value: similarity},
			},
		}},
	}

	model := mongo.SearchIndexModel{
		Definition: definition,
		Options: options.SearchIndexes().
			SetName(c.cfg.VectorIndexName).
			SetType("vectorSearch"),
	}

	c.logger.Info("creating vector search index",
		"index", c.cfg.VectorIndexName, "dimensions", dimensions, "similarity", similarity)

	if _, err := c.coll.SearchIndexes().CreateOne(ctx, model); err != nil {
		if isIndexExistsError(err) {
			c.logger.Info("vector search index already exists", "index", c.cfg.VectorIndexName)
			return nil
		}
		return fmt.Errorf("create vector index: %w", err)
	}
	return nil
}

// searchIndexStatus is the subset of index metadata we poll on.
type searchIndexStatus struct {
	Name      string `bson:"name"`
	Queryable bool   `bson:"queryable"`
}

// WaitForVectorIndex polls until the vector index is queryable or ctx
// expires. This is a one-time setup step, not part of the query path.
func (c *Client) WaitForVectorIndex(ctx context.Context, pollInterval time.Duration) error {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	for {
		queryable, err := c.vectorIndexQueryable(ctx)
		if err != nil && !isRetryablePollError(ctx, err) {
			return fmt.Errorf("%w: %s", ErrIndexUnavailable, err)
		}
		if queryable {
			c.logger.Info("vector search index is queryable", "index", c.cfg.VectorIndexName)
			return nil
		}

		c.logger.Debug("vector search index not ready, polling", "index", c.cfg.VectorIndexName)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s", ErrIndexUnavailable, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

func (c *Client) vectorIndexQueryable(ctx context.Context) (bool, error) {
	cursor, err := c.coll.SearchIndexes().List(ctx,
		options.SearchIndexes().SetName(c.cfg.VectorIndexName))
	if err != nil {
		return false, err
	}
	defer cursor.Close(ctx)

	var statuses []searchIndexStatus
	if err := cursor.All(ctx, &statuses); err != nil {
		return false, err
	}
	for _, s := range statuses {
		if s.Name == c.cfg.VectorIndexName && s.Queryable {
			return true, nil
		}
	}
	return false, nil
}
