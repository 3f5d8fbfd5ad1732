package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorbrands/directory/internal/models"
	"github.com/creatorbrands/directory/internal/repository"
)

type mockGenerator struct {
	generateFunc func(ctx context.Context, id int64) (int, error)
}

func (m *mockGenerator) GenerateEmbedding(ctx context.Context, id int64) (int, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, id)
	}

	return 0, nil
}

type mockProcessor struct {
	processFunc func(ctx context.Context) (models.ProcessSummary, error)
}

func (m *mockProcessor) ProcessBatch(ctx context.Context) (models.ProcessSummary, error) {
	if m.processFunc != nil {
		return m.processFunc(ctx)
	}

	return models.ProcessSummary{}, nil
}

func TestEmbeddingsHandler_Generate(t *testing.T) {
	t.Run("invalid id returns 400", func(t *testing.T) {
		handler := NewEmbeddingsHandler(&mockGenerator{}, &mockProcessor{})
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/brands/abc/embedding", nil)
		req.SetPathValue("id", "abc")

		rec := httptest.NewRecorder()

		handler.Generate(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown brand returns 404", func(t *testing.T) {
		mock := &mockGenerator{
			generateFunc: func(_ context.Context, _ int64) (int, error) {
				return 0, repository.ErrBrandNotFound
			},
		}
		handler := NewEmbeddingsHandler(mock, &mockProcessor{})
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/brands/42/embedding", nil)
		req.SetPathValue("id", "42")

		rec := httptest.NewRecorder()

		handler.Generate(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("provider failure returns 400 with success false", func(t *testing.T) {
		mock := &mockGenerator{
			generateFunc: func(_ context.Context, _ int64) (int, error) {
				return 0, errors.New("create embedding: rate limited by provider")
			},
		}
		handler := NewEmbeddingsHandler(mock, &mockProcessor{})
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/brands/42/embedding", nil)
		req.SetPathValue("id", "42")

		rec := httptest.NewRecorder()

		handler.Generate(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp embeddingResult

		err := json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "rate limited")
	})

	t.Run("success returns dimensions", func(t *testing.T) {
		mock := &mockGenerator{
			generateFunc: func(_ context.Context, id int64) (int, error) {
				assert.Equal(t, int64(42), id)

				return 1536, nil
			},
		}
		handler := NewEmbeddingsHandler(mock, &mockProcessor{})
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/brands/42/embedding", nil)
		req.SetPathValue("id", "42")

		rec := httptest.NewRecorder()

		handler.Generate(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true,"dimensions":1536}`, rec.Body.String())
	})
}

func TestEmbeddingsHandler_ProcessQueue(t *testing.T) {
	t.Run("claim failure returns 500 with success false", func(t *testing.T) {
		mock := &mockProcessor{
			processFunc: func(_ context.Context) (models.ProcessSummary, error) {
				return models.ProcessSummary{}, errors.New("claim pending items: connection refused")
			},
		}
		handler := NewEmbeddingsHandler(&mockGenerator{}, mock)
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/embedding-queue/process", nil)
		rec := httptest.NewRecorder()

		handler.ProcessQueue(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var resp processResult

		err := json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.False(t, resp.Success)
	})

	t.Run("partial failure is still 200", func(t *testing.T) {
		mock := &mockProcessor{
			processFunc: func(_ context.Context) (models.ProcessSummary, error) {
				return models.ProcessSummary{
					Total:      3,
					Successful: 2,
					Failed:     1,
					Errors:     []string{"item 7 (brand 3): embedding has wrong dimensionality"},
				}, nil
			},
		}
		handler := NewEmbeddingsHandler(&mockGenerator{}, mock)
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/embedding-queue/process", nil)
		rec := httptest.NewRecorder()

		handler.ProcessQueue(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp processResult

		err := json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.True(t, resp.Success)
		require.NotNil(t, resp.Results)
		assert.Equal(t, 3, resp.Results.Total)
		assert.Equal(t, 2, resp.Results.Successful)
		assert.Equal(t, 1, resp.Results.Failed)
		require.Len(t, resp.Results.Errors, 1)
	})

	t.Run("empty queue returns zero summary", func(t *testing.T) {
		mock := &mockProcessor{
			processFunc: func(_ context.Context) (models.ProcessSummary, error) {
				return models.ProcessSummary{Errors: []string{}}, nil
			},
		}
		handler := NewEmbeddingsHandler(&mockGenerator{}, mock)
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/embedding-queue/process", nil)
		rec := httptest.NewRecorder()

		handler.ProcessQueue(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp processResult

		err := json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, 0, resp.Results.Total)
	})
}
