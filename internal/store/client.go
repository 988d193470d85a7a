package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Config holds MongoDB connection configuration.
type Config struct {
	URI        string
	Database   string
	Collection string

	// VectorIndexName is the search index used for similarity queries.
	VectorIndexName string
}

// Client wraps a MongoDB connection scoped to the tweet collection.
type Client struct {
	client *mongo.Client
	coll   *mongo.Collection
	cfg    Config
	logger *slog.Logger
}

// NewClient connects to MongoDB and verifies the connection with a ping.
func NewClient(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}

	log.Info("connecting to MongoDB", "database", cfg.Database, "collection", cfg.Collection)

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping: %w", err)
	}

	log.Info("MongoDB connection established")

	return &Client{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		cfg:    cfg,
		logger: log,
	}, nil
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	c.logger.Info("closing MongoDB connection")
	return c.client.Disconnect(ctx)
}

// Collection returns the underlying tweet collection for queries.
func (c *Client) Collection() *mongo.Collection {
	return c.coll
}

// EnsureIndexes creates the unique index on tweet.id. Safe to call on
// every startup; creation is idempotent.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "tweet.id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create unique index on tweet.id: %w", err)
	}
	return nil
}
