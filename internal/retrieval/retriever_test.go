package retrieval

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkoller/threatfeed/internal/metrics"
	"github.com/fkoller/threatfeed/internal/models"
	"github.com/fkoller/threatfeed/internal/store"
)

type fakeEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	return f.vec, f.err
}

type fakeSearcher struct {
	hits           []models.ScoredTweet
	err            error
	calls          int
	gotCandidates  int
	gotLimit       int
}

func (f *fakeSearcher) VectorSearch(_ context.Context, _ []float32, numCandidates, limit int) ([]models.ScoredTweet, error) {
	f.calls++
	f.gotCandidates = numCandidates
	f.gotLimit = limit
	return f.hits, f.err
}

func TestSearchOrdersAndBounds(t *testing.T) {
	searcher := &fakeSearcher{hits: []models.ScoredTweet{
		{Text: "low", Score: 0.2},
		{Text: "high", Score: 0.9},
		{Text: "mid", Score: 0.5},
	}}
	r := New(&fakeEmbedder{vec: []float32{1, 2}}, searcher, 10, nil)

	result, err := r.Search(context.Background(), "ransomware", 2)
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, "high", result[0].Text)
	assert.Equal(t, "mid", result[1].Text)
	assert.Equal(t, []string{"high", "mid"}, result.Texts())
}

func TestSearchOverfetch(t *testing.T) {
	searcher := &fakeSearcher{}
	r := New(&fakeEmbedder{vec: []float32{1}}, searcher, 10, nil)

	_, err := r.Search(context.Background(), "q", 5)
	require.NoError(t, err)

	assert.Equal(t, 50, searcher.gotCandidates, "candidates = topK * overfetch")
	assert.Equal(t, 5, searcher.gotLimit)
}

func TestSearchTopKZeroMakesNoCalls(t *testing.T) {
	embedder := &fakeEmbedder{vec: []float32{1}}
	searcher := &fakeSearcher{}
	r := New(embedder, searcher, 10, nil)

	result, err := r.Search(context.Background(), "q", 0)
	require.NoError(t, err)

	assert.Empty(t, result)
	assert.Zero(t, embedder.calls)
	assert.Zero(t, searcher.calls)
}

func TestSearchInputValidation(t *testing.T) {
	r := New(&fakeEmbedder{}, &fakeSearcher{}, 10, nil)

	_, err := r.Search(context.Background(), "", 5)
	assert.Error(t, err, "empty query is rejected")

	_, err = r.Search(context.Background(), "q", -1)
	assert.Error(t, err, "negative top_k is rejected")

	_, err = r.Search(context.Background(), "q", MaxTopK+1)
	assert.Error(t, err, "top_k above the cap is rejected")
}

func TestSearchEmbeddingFailure(t *testing.T) {
	searcher := &fakeSearcher{}
	r := New(&fakeEmbedder{err: fmt.Errorf("connection refused")}, searcher, 10, nil)

	_, err := r.Search(context.Background(), "q", 3)
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrEmbedding))
	assert.Zero(t, searcher.calls, "embedding failure short-circuits before search")
}

func TestSearchIndexUnavailable(t *testing.T) {
	searcher := &fakeSearcher{err: fmt.Errorf("%w: index missing", store.ErrIndexUnavailable)}
	r := New(&fakeEmbedder{vec: []float32{1}}, searcher, 10, nil)

	_, err := r.Search(context.Background(), "q", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrIndexUnavailable))
}

func TestSearchRecordsMetrics(t *testing.T) {
	collector := metrics.NewCollector()
	r := New(&fakeEmbedder{vec: []float32{1}}, &fakeSearcher{}, 10, collector)

	_, err := r.Search(context.Background(), "q", 1)
	require.NoError(t, err)

	snap := collector.Snapshot()
	require.NotNil(t, snap.Embedding)
	require.NotNil(t, snap.VectorSearch)
	assert.Equal(t, int64(1), snap.Embedding.Count)
	assert.Equal(t, int64(1), snap.VectorSearch.Count)
}

func TestOverfetchFloor(t *testing.T) {
	searcher := &fakeSearcher{}
	r := New(&fakeEmbedder{vec: []float32{1}}, searcher, 0, nil)

	_, err := r.Search(context.Background(), "q", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, searcher.gotCandidates, "overfetch below 1 is raised to 1")
}
