package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/assert"
)

func TestCreateEmbedding_EmptyInput(t *testing.T) {
	c := NewClient("test-key")

	vec, err := c.CreateEmbedding(context.Background(), "   ")
	assert.Nil(t, vec)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestIsRetryable_Classification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"empty input", ErrEmptyInput, false},
		{"no embedding", ErrNoEmbeddingInResponse, false},
		{"dimension mismatch", fmt.Errorf("%w: got 768, want 1536", ErrDimensionMismatch), false},
		{"rate limited sentinel", fmt.Errorf("%w: 429", ErrRateLimited), true},
		{"api 429", &openaisdk.Error{StatusCode: http.StatusTooManyRequests}, true},
		{"api 500", &openaisdk.Error{StatusCode: http.StatusInternalServerError}, true},
		{"api 400", &openaisdk.Error{StatusCode: http.StatusBadRequest}, false},
		{"network failure", errors.New("dial tcp: connection refused"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}
