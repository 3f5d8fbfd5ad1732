package models

import "time"

// Queue item statuses. An item makes exactly one terminal transition:
// pending -> completed or pending -> error. Failed items are retried by
// enqueueing a fresh item, never by reverting this one.
const (
	QueueStatusPending   = "pending"
	QueueStatusCompleted = "completed"
	QueueStatusError     = "error"
)

// EmbeddingQueueItem is one unit of embedding work. TextForEmbedding is a
// snapshot captured at enqueue time so concurrent brand edits cannot change
// what gets embedded mid-flight.
type EmbeddingQueueItem struct {
	ID               int64      `json:"id"`
	BrandID          int64      `json:"brand_id"`
	TextForEmbedding string     `json:"text_for_embedding"`
	Status           string     `json:"status"`
	Error            *string    `json:"error,omitempty"`
	ClaimedAt        *time.Time `json:"claimed_at,omitempty"`
	ProcessedAt      *time.Time `json:"processed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ProcessSummary reports the outcome of one queue processor invocation.
// Failures are item-scoped: the batch itself always completes.
type ProcessSummary struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors"`
}
