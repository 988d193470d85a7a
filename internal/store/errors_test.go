package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestWrapWriteErrorDuplicate(t *testing.T) {
	dup := mongo.WriteException{
		WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}},
	}

	err := wrapWriteError(dup)
	assert.True(t, errors.Is(err, ErrDuplicate), "code 11000 should map to ErrDuplicate")
}

func TestWrapWriteErrorPassthrough(t *testing.T) {
	plain := errors.New("connection reset")
	err := wrapWriteError(plain)
	assert.False(t, errors.Is(err, ErrDuplicate))
	assert.Equal(t, plain, err)

	assert.NoError(t, wrapWriteError(nil))
}

func TestWrapSearchError(t *testing.T) {
	assert.NoError(t, wrapSearchError(nil))

	err := wrapSearchError(errors.New("index tweet_embedding_index not found"))
	assert.True(t, errors.Is(err, ErrIndexUnavailable))
	assert.Contains(t, err.Error(), "tweet_embedding_index")
}

func TestIsIndexExistsError(t *testing.T) {
	assert.False(t, isIndexExistsError(nil))
	assert.False(t, isIndexExistsError(errors.New("network timeout")))
	assert.True(t, isIndexExistsError(errors.New("index already exists")))
	assert.True(t, isIndexExistsError(mongo.CommandError{Name: "IndexAlreadyExists", Message: "dup"}))
}

func TestIsRetryablePollError(t *testing.T) {
	ctx := context.Background()
	assert.True(t, isRetryablePollError(ctx, errors.New("transient")))
	assert.False(t, isRetryablePollError(ctx, nil))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.False(t, isRetryablePollError(cancelled, errors.New("transient")))
}
