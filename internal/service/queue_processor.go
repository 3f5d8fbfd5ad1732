package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/creatorbrands/directory/internal/models"
	"github.com/creatorbrands/directory/internal/observability"
)

// QueueStore is the persisted embedding work queue, as used by the processor.
type QueueStore interface {
	ClaimPending(ctx context.Context, limit int) ([]models.EmbeddingQueueItem, error)
	MarkCompleted(ctx context.Context, id int64) error
	MarkError(ctx context.Context, id int64, message string) error
}

// EmbeddingWriter persists a generated vector onto a brand.
type EmbeddingWriter interface {
	UpdateEmbedding(ctx context.Context, brandID int64, embedding []float32) error
}

// QueueProcessor drains pending embedding queue items in bounded batches.
// Each invocation is independent and idempotent at the item level: a single
// item's permanent failure is recorded on that item and processing continues.
type QueueProcessor struct {
	store     QueueStore
	brands    EmbeddingWriter
	client    EmbeddingClient
	limiter   *rate.Limiter
	batchSize int
	policy    RetryPolicy
	retryable func(error) bool
	metrics   observability.EmbeddingMetrics
	logger    *slog.Logger

	// Test hooks. Defaults sleep with context awareness and apply full jitter.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(d time.Duration) time.Duration
}

// QueueProcessorParams configures QueueProcessor. Limiter and Metrics may be
// nil (no provider throttling / no metrics). Retryable decides whether a
// provider error is worth backing off and retrying; writes to the database
// are always treated as transient.
type QueueProcessorParams struct {
	Store     QueueStore
	Brands    EmbeddingWriter
	Client    EmbeddingClient
	Limiter   *rate.Limiter
	BatchSize int
	Policy    RetryPolicy
	Retryable func(error) bool
	Metrics   observability.EmbeddingMetrics
	Logger    *slog.Logger
}

const defaultBatchSize = 50

// NewQueueProcessor creates a queue processor.
func NewQueueProcessor(p QueueProcessorParams) *QueueProcessor {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	batchSize := p.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	retryable := p.Retryable
	if retryable == nil {
		retryable = func(error) bool { return true }
	}

	return &QueueProcessor{
		store:     p.Store,
		brands:    p.Brands,
		client:    p.Client,
		limiter:   p.Limiter,
		batchSize: batchSize,
		policy:    p.Policy.normalized(),
		retryable: retryable,
		metrics:   p.Metrics,
		logger:    logger,
		sleep:     sleepCtx,
		jitter:    fullJitter,
	}
}

// ProcessBatch claims up to the configured batch of pending items and
// processes them sequentially. It returns a summary; the error return is
// non-nil only when the batch itself could not be claimed. Item failures
// never abort the batch.
func (p *QueueProcessor) ProcessBatch(ctx context.Context) (models.ProcessSummary, error) {
	summary := models.ProcessSummary{Errors: []string{}}

	items, err := p.store.ClaimPending(ctx, p.batchSize)
	if err != nil {
		return summary, fmt.Errorf("claim pending: %w", err)
	}

	summary.Total = len(items)
	if len(items) == 0 {
		return summary, nil
	}

	p.logger.Info("processing embedding queue batch", "items", len(items))

	for i := range items {
		item := &items[i]

		if err := p.processItem(ctx, item); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("item %d (brand %d): %v", item.ID, item.BrandID, err))

			continue
		}

		summary.Successful++
	}

	p.logger.Info("embedding queue batch done",
		"total", summary.Total,
		"successful", summary.Successful,
		"failed", summary.Failed,
	)

	return summary, nil
}

// processItem embeds one item's snapshot text and persists the result. The
// vector write and the queue status write are retried independently: once
// the vector is stored, a status-write failure must not redo or lose it
// (re-applying the same vector is safe anyway).
func (p *QueueProcessor) processItem(ctx context.Context, item *models.EmbeddingQueueItem) error {
	start := time.Now()

	embedding, err := p.embedWithRetry(ctx, item.TextForEmbedding)
	if err != nil {
		p.recordOutcome(ctx, models.QueueStatusError, start)
		p.markErrorBestEffort(ctx, item.ID, err)

		return fmt.Errorf("embed: %w", err)
	}

	if err := p.withRetry(ctx, alwaysRetryable, func(ctx context.Context) error {
		return p.brands.UpdateEmbedding(ctx, item.BrandID, embedding)
	}); err != nil {
		p.recordOutcome(ctx, models.QueueStatusError, start)
		p.markErrorBestEffort(ctx, item.ID, err)

		return fmt.Errorf("write embedding: %w", err)
	}

	if err := p.withRetry(ctx, alwaysRetryable, func(ctx context.Context) error {
		return p.store.MarkCompleted(ctx, item.ID)
	}); err != nil {
		// The vector is already stored; only the audit row is stale. Do not
		// touch the embedding again.
		p.recordOutcome(ctx, models.QueueStatusError, start)
		p.logger.Error("embedding stored but queue status write failed",
			"queue_item_id", item.ID,
			"brand_id", item.BrandID,
			"error", err,
		)

		return fmt.Errorf("mark completed: %w", err)
	}

	p.recordOutcome(ctx, models.QueueStatusCompleted, start)
	p.logger.Info("embedding stored",
		"queue_item_id", item.ID,
		"brand_id", item.BrandID,
		"dimensions", len(embedding),
	)

	return nil
}

// embedWithRetry calls the provider under the rate limiter, retrying only
// errors the classifier deems transient (network, rate limit). Malformed
// input or responses fail immediately.
func (p *QueueProcessor) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	var embedding []float32

	err := p.withRetry(ctx, p.retryable, func(ctx context.Context) error {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter: %w", err)
			}
		}

		vec, err := p.client.CreateEmbedding(ctx, text)
		if err != nil {
			return err
		}

		embedding = vec

		return nil
	})
	if err != nil {
		return nil, err
	}

	return embedding, nil
}

// withRetry runs op up to MaxAttempts times. Between attempts it sleeps a
// jittered exponential backoff; the base doubles each attempt and is capped
// by MaxBackoff. A non-retryable error or context cancellation ends the loop
// immediately.
func (p *QueueProcessor) withRetry(ctx context.Context, retryable func(error) bool, op func(context.Context) error) error {
	var lastErr error

	backoff := p.policy.InitialBackoff

	for attempt := 1; attempt <= p.policy.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if !retryable(lastErr) || attempt == p.policy.MaxAttempts {
			break
		}

		if p.metrics != nil {
			p.metrics.RecordRetry(ctx)
		}

		sleep := p.jitter(backoff)
		p.logger.Warn("embedding operation failed, retrying after backoff",
			"attempt", attempt,
			"max_attempts", p.policy.MaxAttempts,
			"backoff", sleep,
			"error", lastErr,
		)

		if err := p.sleep(ctx, sleep); err != nil {
			return err
		}

		backoff = min(backoff*backoffMultiplier, p.policy.MaxBackoff)
	}

	return lastErr
}

// markErrorBestEffort records the terminal error on the queue item, retried
// like any other status write. A failure here only loses the audit message.
func (p *QueueProcessor) markErrorBestEffort(ctx context.Context, id int64, cause error) {
	if err := p.withRetry(ctx, alwaysRetryable, func(ctx context.Context) error {
		return p.store.MarkError(ctx, id, cause.Error())
	}); err != nil {
		p.logger.Error("mark queue item error failed", "queue_item_id", id, "error", err)
	}
}

func (p *QueueProcessor) recordOutcome(ctx context.Context, status string, start time.Time) {
	if p.metrics == nil {
		return
	}

	p.metrics.RecordOutcome(ctx, status)
	p.metrics.RecordDuration(ctx, time.Since(start), status)
}

func alwaysRetryable(error) bool { return true }
