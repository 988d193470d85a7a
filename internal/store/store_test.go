//go:build integration

// Integration tests run against a MongoDB container. Vector search itself
// needs an Atlas deployment, so here we cover document persistence and the
// error mapping; retrieval behavior is unit-tested with fakes.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fkoller/threatfeed/internal/models"
)

var testStore *Client
var testContainer testcontainers.Container

// TestMain sets up and tears down the MongoDB container for all tests.
func TestMain(m *testing.M) {
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start MongoDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "27017")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testStore, err = NewClient(ctx, Config{
		URI:             fmt.Sprintf("mongodb://%s:%s", host, mappedPort.Port()),
		Database:        "threatfeed_test",
		Collection:      "tweets",
		VectorIndexName: "tweet_embedding_index",
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testStore.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	code := m.Run()

	_ = testStore.Close(ctx)
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

func testDoc(id, text string) models.TweetDocument {
	return models.TweetDocument{
		Tweet: models.Tweet{
			ID:        id,
			Text:      text,
			CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		},
		User: models.User{ID: "u1", Username: "secwatch", Name: "Sec Watch"},
	}
}

func TestInsertTweetAndDuplicate(t *testing.T) {
	ctx := context.Background()

	doc := testDoc("1001", "new ransomware strain spotted")
	if err := testStore.InsertTweet(ctx, doc); err != nil {
		t.Fatalf("InsertTweet failed: %v", err)
	}

	err := testStore.InsertTweet(ctx, doc)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second insert should be ErrDuplicate, got %v", err)
	}

	n, err := testStore.CountTweets(ctx)
	if err != nil {
		t.Fatalf("CountTweets failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected exactly one stored document, got %d", n)
	}
}

func TestEmbeddingBackfill(t *testing.T) {
	ctx := context.Background()

	if err := testStore.InsertTweet(ctx, testDoc("1002", "phishing campaign targets banks")); err != nil {
		t.Fatalf("InsertTweet failed: %v", err)
	}

	missing, err := testStore.FindMissingEmbeddings(ctx, 10)
	if err != nil {
		t.Fatalf("FindMissingEmbeddings failed: %v", err)
	}
	found := false
	for _, d := range missing {
		if d.Tweet.ID == "1002" {
			found = true
		}
		if len(d.Tweet.Embedding) != 0 {
			t.Errorf("tweet %s should not have an embedding yet", d.Tweet.ID)
		}
	}
	if !found {
		t.Fatal("tweet 1002 should be missing an embedding")
	}

	vec := make([]float32, 8)
	for i := range vec {
		vec[i] = float32(i)
	}
	if err := testStore.SetEmbedding(ctx, "1002", vec); err != nil {
		t.Fatalf("SetEmbedding failed: %v", err)
	}

	count, err := testStore.CountMissingEmbeddings(ctx)
	if err != nil {
		t.Fatalf("CountMissingEmbeddings failed: %v", err)
	}
	missing, err = testStore.FindMissingEmbeddings(ctx, 0)
	if err != nil {
		t.Fatalf("FindMissingEmbeddings failed: %v", err)
	}
	if int64(len(missing)) != count {
		t.Errorf("count (%d) and find (%d) disagree", count, len(missing))
	}
	for _, d := range missing {
		if d.Tweet.ID == "1002" {
			t.Error("tweet 1002 should no longer be missing an embedding")
		}
	}
}

func TestSetEmbeddingUnknownTweet(t *testing.T) {
	ctx := context.Background()

	err := testStore.SetEmbedding(ctx, "does-not-exist", []float32{1, 2, 3})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestVectorSearchWithoutIndex(t *testing.T) {
	ctx := context.Background()

	// Community MongoDB has no $vectorSearch stage; the failure must map
	// to ErrIndexUnavailable rather than leaking a driver error.
	_, err := testStore.VectorSearch(ctx, []float32{0.1, 0.2}, 20, 2)
	if !errors.Is(err, ErrIndexUnavailable) {
		t.Errorf("expected ErrIndexUnavailable, got %v", err)
	}
}
