package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorbrands/directory/internal/models"
	"github.com/creatorbrands/directory/internal/service"
)

type mockSearcher struct {
	semanticFunc func(ctx context.Context, query string) ([]models.SearchResult, error)
	keywordFunc  func(ctx context.Context, query string) ([]models.SearchResult, error)
}

func (m *mockSearcher) SemanticSearch(ctx context.Context, query string) ([]models.SearchResult, error) {
	if m.semanticFunc != nil {
		return m.semanticFunc(ctx, query)
	}

	return nil, nil
}

func (m *mockSearcher) SearchByKeyword(ctx context.Context, query string) ([]models.SearchResult, error) {
	if m.keywordFunc != nil {
		return m.keywordFunc(ctx, query)
	}

	return nil, nil
}

func floatPtr(f float64) *float64 { return &f }

func TestSearchHandler_SemanticSearch(t *testing.T) {
	t.Run("invalid body returns 400", func(t *testing.T) {
		handler := NewSearchHandler(&mockSearcher{})
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/brands/search/semantic", bytes.NewReader([]byte(`{`)))
		rec := httptest.NewRecorder()

		handler.SemanticSearch(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty query returns 400", func(t *testing.T) {
		called := false
		mock := &mockSearcher{
			semanticFunc: func(_ context.Context, _ string) ([]models.SearchResult, error) {
				called = true

				return nil, service.ErrEmptyQuery
			},
		}
		handler := NewSearchHandler(mock)
		body := []byte(`{"query":"  "}`)
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/brands/search/semantic", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		handler.SemanticSearch(rec, req)

		require.True(t, called)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("deadline exceeded returns 504", func(t *testing.T) {
		mock := &mockSearcher{
			semanticFunc: func(_ context.Context, _ string) ([]models.SearchResult, error) {
				return nil, context.DeadlineExceeded
			},
		}
		handler := NewSearchHandler(mock)
		body := []byte(`{"query":"sustainable skincare"}`)
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/brands/search/semantic", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		handler.SemanticSearch(rec, req)

		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	})

	t.Run("success returns 200 with similarity", func(t *testing.T) {
		mock := &mockSearcher{
			semanticFunc: func(_ context.Context, query string) ([]models.SearchResult, error) {
				assert.Equal(t, "sustainable skincare", query)

				return []models.SearchResult{
					{ID: 1, Name: "Glow Lab", Creators: "Ava Reed", Similarity: floatPtr(0.91)},
					{ID: 2, Name: "Pure Roots", Creators: "Mia Chen", Similarity: floatPtr(0.84)},
				}, nil
			},
		}
		handler := NewSearchHandler(mock)
		body := []byte(`{"query":"sustainable skincare"}`)
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/brands/search/semantic", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		handler.SemanticSearch(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp SearchResponse

		err := json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		require.Len(t, resp.Results, 2)
		assert.Equal(t, int64(1), resp.Results[0].ID)
		require.NotNil(t, resp.Results[0].Similarity)
		assert.InDelta(t, 0.91, *resp.Results[0].Similarity, 1e-9)
	})

	t.Run("no matches returns 200 with empty array", func(t *testing.T) {
		mock := &mockSearcher{
			semanticFunc: func(_ context.Context, _ string) ([]models.SearchResult, error) {
				return nil, nil
			},
		}
		handler := NewSearchHandler(mock)
		body := []byte(`{"query":"underwater basket weaving"}`)
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/brands/search/semantic", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		handler.SemanticSearch(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"results":[]}`, rec.Body.String())
	})
}

func TestSearchHandler_KeywordSearch(t *testing.T) {
	t.Run("empty q returns 400", func(t *testing.T) {
		mock := &mockSearcher{
			keywordFunc: func(_ context.Context, _ string) ([]models.SearchResult, error) {
				return nil, service.ErrEmptyQuery
			},
		}
		handler := NewSearchHandler(mock)
		req := httptest.NewRequest(http.MethodGet, "http://test/v1/brands/search/keyword", nil)
		rec := httptest.NewRecorder()

		handler.KeywordSearch(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("success returns 200 without similarity", func(t *testing.T) {
		mock := &mockSearcher{
			keywordFunc: func(_ context.Context, query string) ([]models.SearchResult, error) {
				assert.Equal(t, "glow", query)

				return []models.SearchResult{
					{ID: 1, Name: "Glow Lab", Creators: "Ava Reed"},
				}, nil
			},
		}
		handler := NewSearchHandler(mock)
		req := httptest.NewRequest(http.MethodGet, "http://test/v1/brands/search/keyword?q=glow", nil)
		rec := httptest.NewRecorder()

		handler.KeywordSearch(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp SearchResponse

		err := json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		require.Len(t, resp.Results, 1)
		assert.Nil(t, resp.Results[0].Similarity)
	})
}
