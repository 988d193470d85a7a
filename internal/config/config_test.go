package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "cybersecurity", cfg.MongoDatabase)
	assert.Equal(t, "tweets", cfg.MongoCollection)
	assert.Equal(t, "tweet_embedding_index", cfg.VectorIndexName)
	assert.Equal(t, ProviderOpenAI, cfg.EmbedProvider)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbedModel)
	assert.Equal(t, 1536, cfg.VectorDimensions)
	assert.Equal(t, SimilarityCosine, cfg.SimilarityMetric)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, 10, cfg.OverfetchFactor)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("THREATFEED_TOP_K", "12")
	t.Setenv("THREATFEED_EMBED_MODEL", "text-embedding-ada-002")
	t.Setenv("THREATFEED_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.TopK)
	assert.Equal(t, "text-embedding-ada-002", cfg.EmbedModel)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "threatfeed.yaml")
	content := []byte("embedding_model: custom-model\ntop_k: 3\nsimilarity_metric: dotProduct\n")
	require.NoError(t, os.WriteFile(path, content, 0644))
	t.Setenv("THREATFEED_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "custom-model", cfg.EmbedModel)
	assert.Equal(t, 3, cfg.TopK)
	assert.Equal(t, SimilarityDot, cfg.SimilarityMetric)
	// Untouched keys keep their defaults
	assert.Equal(t, 1536, cfg.VectorDimensions)
}

func TestLoadRejectsBadSimilarity(t *testing.T) {
	t.Setenv("THREATFEED_SIMILARITY", "manhattan")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "similarity")
}

func TestLoadIgnoresMalformedInt(t *testing.T) {
	t.Setenv("THREATFEED_TOP_K", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.TopK)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"Warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
