package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EmbeddingMetrics records embedding pipeline metrics.
// Methods accept ctx for future exemplar support.
type EmbeddingMetrics interface {
	RecordOutcome(ctx context.Context, status string)
	RecordDuration(ctx context.Context, duration time.Duration, status string)
	RecordRetry(ctx context.Context)
}

// SearchMetrics records search request metrics by mode (semantic, keyword).
type SearchMetrics interface {
	RecordRequest(ctx context.Context, mode string)
	RecordDuration(ctx context.Context, duration time.Duration, mode string)
}

// CacheMetrics records cache hit/miss metrics with bounded cardinality (cache name).
type CacheMetrics interface {
	RecordHit(ctx context.Context, cacheName string)
	RecordMiss(ctx context.Context, cacheName string)
}

// Metrics bundles all metric groups. Any group may be nil when disabled.
type Metrics struct {
	Embeddings EmbeddingMetrics
	Search     SearchMetrics
	Cache      CacheMetrics
}

// NewMetrics creates all metric groups from a meter. Returns nil when meter is nil.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	embeddings, err := newEmbeddingMetrics(meter)
	if err != nil {
		return nil, err
	}

	search, err := newSearchMetrics(meter)
	if err != nil {
		return nil, err
	}

	cache, err := newCacheMetrics(meter)
	if err != nil {
		return nil, err
	}

	return &Metrics{Embeddings: embeddings, Search: search, Cache: cache}, nil
}

type embeddingMetrics struct {
	outcomes metric.Int64Counter
	duration metric.Float64Histogram
	retries  metric.Int64Counter
}

func newEmbeddingMetrics(meter metric.Meter) (EmbeddingMetrics, error) {
	outcomes, err := meter.Int64Counter(
		MetricNameEmbeddingOutcomes,
		metric.WithDescription("Queue item outcomes by status (completed, error)"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding outcomes counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		MetricNameEmbeddingDuration,
		metric.WithDescription("Per-item embedding duration (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding duration histogram: %w", err)
	}

	retries, err := meter.Int64Counter(
		MetricNameEmbeddingRetries,
		metric.WithDescription("Provider call retries during queue processing"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding retries counter: %w", err)
	}

	return &embeddingMetrics{outcomes: outcomes, duration: duration, retries: retries}, nil
}

func (m *embeddingMetrics) RecordOutcome(ctx context.Context, status string) {
	m.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (m *embeddingMetrics) RecordDuration(ctx context.Context, d time.Duration, status string) {
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("status", status)))
}

func (m *embeddingMetrics) RecordRetry(ctx context.Context) {
	m.retries.Add(ctx, 1)
}

type searchMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newSearchMetrics(meter metric.Meter) (SearchMetrics, error) {
	requests, err := meter.Int64Counter(
		MetricNameSearchRequests,
		metric.WithDescription("Search requests by mode (semantic, keyword)"),
	)
	if err != nil {
		return nil, fmt.Errorf("create search requests counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		MetricNameSearchDuration,
		metric.WithDescription("Search request duration (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create search duration histogram: %w", err)
	}

	return &searchMetrics{requests: requests, duration: duration}, nil
}

func (m *searchMetrics) RecordRequest(ctx context.Context, mode string) {
	m.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}

func (m *searchMetrics) RecordDuration(ctx context.Context, d time.Duration, mode string) {
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("mode", mode)))
}

type cacheMetrics struct {
	hits   metric.Int64Counter
	misses metric.Int64Counter
}

func newCacheMetrics(meter metric.Meter) (CacheMetrics, error) {
	hits, err := meter.Int64Counter(
		MetricNameCacheHits,
		metric.WithDescription("Cache lookups that returned a cached value. Label cache: search_query_embedding."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create cache hits counter: %w", err)
	}

	misses, err := meter.Int64Counter(
		MetricNameCacheMisses,
		metric.WithDescription("Cache lookups that missed and triggered a load. Label cache: search_query_embedding."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create cache misses counter: %w", err)
	}

	return &cacheMetrics{hits: hits, misses: misses}, nil
}

func (m *cacheMetrics) RecordHit(ctx context.Context, cacheName string) {
	m.hits.Add(ctx, 1, metric.WithAttributes(attribute.String("cache", cacheName)))
}

func (m *cacheMetrics) RecordMiss(ctx context.Context, cacheName string) {
	m.misses.Add(ctx, 1, metric.WithAttributes(attribute.String("cache", cacheName)))
}
