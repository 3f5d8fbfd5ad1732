package observability

// Metric names. Keep cardinality bounded: attribute values come from fixed
// sets (status, reason, cache name), never from user input.
const (
	MetricNameEmbeddingOutcomes     = "directory.embedding.outcomes"
	MetricNameEmbeddingDuration     = "directory.embedding.duration"
	MetricNameEmbeddingRetries      = "directory.embedding.retries"
	MetricNameSearchRequests        = "directory.search.requests"
	MetricNameSearchDuration        = "directory.search.duration"
	MetricNameCacheHits             = "directory.cache.hits"
	MetricNameCacheMisses           = "directory.cache.misses"
)
