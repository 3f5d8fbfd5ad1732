package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresAPIKey(t *testing.T) {
	t.Setenv("API_KEY", "")

	cfg, err := Load()
	assert.Nil(t, cfg)
	assert.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, 1536, cfg.EmbeddingDimensions)
	assert.InDelta(t, 0.25, cfg.SearchScoreThreshold, 1e-9)
	assert.Equal(t, 10, cfg.SearchTopK)
	assert.Equal(t, 8, cfg.KeywordSearchLimit)
	assert.Equal(t, 50, cfg.QueueBatchSize)
	assert.Equal(t, 3, cfg.EmbeddingMaxAttempts)
}

func TestLoad_RejectsEmptyModel(t *testing.T) {
	t.Setenv("API_KEY", "test-key")
	t.Setenv("EMBEDDING_MODEL", " ")

	// Whitespace is not empty for os.Getenv, so set an explicitly invalid
	// dimension to exercise validation too.
	t.Setenv("EMBEDDING_DIMENSIONS", "-1")

	cfg, err := Load()
	assert.Nil(t, cfg)
	assert.Error(t, err)
}

func TestLoad_RejectsOutOfRangeThreshold(t *testing.T) {
	t.Setenv("API_KEY", "test-key")
	t.Setenv("SEARCH_SCORE_THRESHOLD", "1.5")

	cfg, err := Load()
	assert.Nil(t, cfg)
	assert.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("API_KEY", "test-key")
	t.Setenv("SEARCH_TOP_K", "25")
	t.Setenv("QUEUE_BATCH_SIZE", "10")
	t.Setenv("EMBEDDING_RATE_LIMIT", "2.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.SearchTopK)
	assert.Equal(t, 10, cfg.QueueBatchSize)
	assert.InDelta(t, 2.5, cfg.EmbeddingRateLimit, 1e-9)
}
