// Package store provides MongoDB persistence and vector search for tweets.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// Sentinel errors for store operations.
// Use errors.Is() to check for these in calling code.
var (
	// ErrDuplicate indicates a tweet with the same id is already stored.
	// Re-fetching overlapping pages from the paginated upstream API is
	// normal, so callers count this rather than treat it as a failure.
	ErrDuplicate = errors.New("duplicate tweet")

	// ErrIndexUnavailable indicates the vector index does not exist,
	// is not yet queryable, or the database cannot be reached.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("document not found")
)

// wrapWriteError converts driver write errors into sentinel errors.
// Returns the original error for anything unrecognized.
func wrapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", ErrDuplicate, err)
	}
	return err
}

// wrapSearchError maps any similarity-search failure to ErrIndexUnavailable.
// A missing index, an index still building, and an unreachable server all
// leave the retrieval layer equally without results; callers that need the
// detail still get it through the wrapped message.
func wrapSearchError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrIndexUnavailable, err)
}

// isIndexExistsError reports whether creating a search index failed only
// because it already exists.
func isIndexExistsError(err error) bool {
	if err == nil {
		return false
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Name == "IndexAlreadyExists" {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}

// isRetryablePollError reports whether listing search indexes failed in a
// way worth polling through (transient network trouble during index build).
func isRetryablePollError(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() == nil
}
