package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorbrands/directory/internal/models"
	"github.com/creatorbrands/directory/pkg/cache"
)

type mockEmbeddingClient struct {
	calls      int
	createFunc func(ctx context.Context, input string) ([]float32, error)
}

func (m *mockEmbeddingClient) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	m.calls++

	if m.createFunc != nil {
		return m.createFunc(ctx, input)
	}

	return []float32{0.1}, nil
}

type mockSearchRepo struct {
	nearestFunc func(ctx context.Context, queryEmbedding []float32, minScore float64, limit int) ([]models.SearchResult, error)
	keywordFunc func(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
}

func (m *mockSearchRepo) NearestByEmbedding(
	ctx context.Context, queryEmbedding []float32, minScore float64, limit int,
) ([]models.SearchResult, error) {
	if m.nearestFunc != nil {
		return m.nearestFunc(ctx, queryEmbedding, minScore, limit)
	}

	return nil, nil
}

func (m *mockSearchRepo) SearchByKeyword(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if m.keywordFunc != nil {
		return m.keywordFunc(ctx, query, limit)
	}

	return nil, nil
}

func similarity(v float64) *float64 { return &v }

func TestSemanticSearch_EmptyQueryNoProviderCall(t *testing.T) {
	client := &mockEmbeddingClient{}
	svc := NewSearchService(SearchServiceParams{
		EmbeddingClient: client,
		Repo:            &mockSearchRepo{},
		Model:           "test-model",
		MinScore:        0.25,
		TopK:            10,
	})

	for _, q := range []string{"", "   ", "\t\n"} {
		results, err := svc.SemanticSearch(context.Background(), q)
		assert.Nil(t, results)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	}

	assert.Zero(t, client.calls)
}

func TestSemanticSearch_PassesThresholdAndCap(t *testing.T) {
	nearestCalled := false
	svc := NewSearchService(SearchServiceParams{
		EmbeddingClient: &mockEmbeddingClient{
			createFunc: func(_ context.Context, input string) ([]float32, error) {
				assert.Equal(t, "sustainable fashion brands by actors", input)

				return []float32{0.1, 0.2}, nil
			},
		},
		Repo: &mockSearchRepo{
			nearestFunc: func(_ context.Context, queryEmbedding []float32, minScore float64, limit int) ([]models.SearchResult, error) {
				nearestCalled = true

				assert.Equal(t, []float32{0.1, 0.2}, queryEmbedding)
				assert.InDelta(t, 0.25, minScore, 1e-9)
				assert.Equal(t, 10, limit)

				return []models.SearchResult{
					{ID: 1, Name: "Honest", Creators: "Jessica Alba", Similarity: similarity(0.31)},
				}, nil
			},
		},
		Model:    "test-model",
		MinScore: 0.25,
		TopK:     10,
	})

	results, err := svc.SemanticSearch(context.Background(), "sustainable fashion brands by actors")
	require.NoError(t, err)
	require.True(t, nearestCalled)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Similarity)
	assert.InDelta(t, 0.31, *results[0].Similarity, 1e-9)
}

func TestSemanticSearch_EmbeddingErrorPropagates(t *testing.T) {
	embeddingErr := errors.New("embedding API failed")
	svc := NewSearchService(SearchServiceParams{
		EmbeddingClient: &mockEmbeddingClient{
			createFunc: func(context.Context, string) ([]float32, error) {
				return nil, embeddingErr
			},
		},
		Repo:     &mockSearchRepo{},
		Model:    "test-model",
		MinScore: 0.25,
		TopK:     10,
	})

	results, err := svc.SemanticSearch(context.Background(), "query")
	assert.Nil(t, results)
	assert.ErrorIs(t, err, embeddingErr)
}

func TestSemanticSearch_EmptyResultIsNotAnError(t *testing.T) {
	svc := NewSearchService(SearchServiceParams{
		EmbeddingClient: &mockEmbeddingClient{},
		Repo: &mockSearchRepo{
			nearestFunc: func(context.Context, []float32, float64, int) ([]models.SearchResult, error) {
				return nil, nil
			},
		},
		Model:    "test-model",
		MinScore: 0.25,
		TopK:     10,
	})

	results, err := svc.SemanticSearch(context.Background(), "zzzznomatch")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSemanticSearch_QueryCacheReusesEmbedding(t *testing.T) {
	client := &mockEmbeddingClient{
		createFunc: func(context.Context, string) ([]float32, error) {
			return []float32{0.4}, nil
		},
	}

	queryCache, err := cache.New[[]float32](16)
	require.NoError(t, err)

	svc := NewSearchService(SearchServiceParams{
		EmbeddingClient: client,
		Repo:            &mockSearchRepo{},
		Model:           "test-model",
		MinScore:        0.25,
		TopK:            10,
		QueryCache:      queryCache,
	})

	_, err = svc.SemanticSearch(context.Background(), "vegan skincare")
	require.NoError(t, err)
	_, err = svc.SemanticSearch(context.Background(), "vegan skincare")
	require.NoError(t, err)

	assert.Equal(t, 1, client.calls)
}

func TestSearchByKeyword_NoSimilarityAndLimit(t *testing.T) {
	svc := NewSearchService(SearchServiceParams{
		EmbeddingClient: &mockEmbeddingClient{},
		Repo: &mockSearchRepo{
			keywordFunc: func(_ context.Context, query string, limit int) ([]models.SearchResult, error) {
				assert.Equal(t, "prime", query)
				assert.Equal(t, 8, limit)

				return []models.SearchResult{{ID: 2, Name: "Prime", Creators: "Logan Paul, KSI"}}, nil
			},
		},
		Model:        "test-model",
		KeywordLimit: 8,
	})

	results, err := svc.SearchByKeyword(context.Background(), "prime")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Similarity)
}

func TestSearchByKeyword_EmptyQuery(t *testing.T) {
	svc := NewSearchService(SearchServiceParams{
		EmbeddingClient: &mockEmbeddingClient{},
		Repo:            &mockSearchRepo{},
		KeywordLimit:    8,
	})

	results, err := svc.SearchByKeyword(context.Background(), "  ")
	assert.Nil(t, results)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}
