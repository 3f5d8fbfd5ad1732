package service

import "context"

// EmbeddingClient generates a fixed-length embedding vector for text. The
// vector dimension is fixed by the configured provider model; producer and
// consumer paths must share one model identifier.
type EmbeddingClient interface {
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)
}
