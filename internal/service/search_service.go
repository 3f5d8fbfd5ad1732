package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/creatorbrands/directory/internal/models"
	"github.com/creatorbrands/directory/internal/observability"
	"github.com/creatorbrands/directory/pkg/cache"
)

const (
	searchQueryEmbeddingCacheName = "search_query_embedding"

	searchModeSemantic = "semantic"
	searchModeKeyword  = "keyword"
)

// ErrEmptyQuery is returned for empty or whitespace-only queries; no network
// call is made in that case.
var ErrEmptyQuery = errors.New("query is required and must be non-empty")

// SearchRepository provides the brand read operations needed by search.
type SearchRepository interface {
	NearestByEmbedding(ctx context.Context, queryEmbedding []float32, minScore float64, limit int) ([]models.SearchResult, error)
	SearchByKeyword(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
}

// SearchService performs semantic search over brand embeddings, with a
// keyword lookup used by callers as the zero-result fallback.
type SearchService struct {
	embeddingClient EmbeddingClient
	repo            SearchRepository
	model           string
	minScore        float64
	topK            int
	keywordLimit    int
	queryCache      *cache.LoaderCache[[]float32]
	cacheMetrics    observability.CacheMetrics
	searchMetrics   observability.SearchMetrics
	logger          *slog.Logger
}

// SearchServiceParams configures SearchService. QueryCache, CacheMetrics,
// and SearchMetrics may be nil (no caching / no metrics).
type SearchServiceParams struct {
	EmbeddingClient EmbeddingClient
	Repo            SearchRepository
	Model           string
	MinScore        float64
	TopK            int
	KeywordLimit    int
	QueryCache      *cache.LoaderCache[[]float32]
	CacheMetrics    observability.CacheMetrics
	SearchMetrics   observability.SearchMetrics
	Logger          *slog.Logger
}

// NewSearchService creates a SearchService.
func NewSearchService(p SearchServiceParams) *SearchService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SearchService{
		embeddingClient: p.EmbeddingClient,
		repo:            p.Repo,
		model:           p.Model,
		minScore:        p.MinScore,
		topK:            p.TopK,
		keywordLimit:    p.KeywordLimit,
		queryCache:      p.QueryCache,
		cacheMetrics:    p.CacheMetrics,
		searchMetrics:   p.SearchMetrics,
		logger:          logger,
	}
}

// SemanticSearch embeds the query and returns brands ranked by cosine
// similarity, filtered to similarity >= the configured threshold and capped
// at topK. Every result carries its similarity score. Brands without a
// usable embedding are not candidates at all.
//
// An empty result is a valid outcome, not an error; callers deciding on
// keyword fallback must distinguish the two.
func (s *SearchService) SemanticSearch(ctx context.Context, query string) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	start := time.Now()

	embedding, err := s.queryEmbedding(ctx, query)
	if err != nil {
		s.logger.Error("semantic search: create embedding failed", "error", err, "model", s.model)

		return nil, fmt.Errorf("create embedding: %w", err)
	}

	results, err := s.repo.NearestByEmbedding(ctx, embedding, s.minScore, s.topK)
	if err != nil {
		s.logger.Error("semantic search: nearest failed", "error", err, "model", s.model)

		return nil, fmt.Errorf("nearest brands: %w", err)
	}

	if s.searchMetrics != nil {
		s.searchMetrics.RecordRequest(ctx, searchModeSemantic)
		s.searchMetrics.RecordDuration(ctx, time.Since(start), searchModeSemantic)
	}

	return results, nil
}

// SearchByKeyword returns approved brands whose name or creators contain the
// query, case-insensitively. Results carry no similarity score; its absence
// is how consumers tell keyword results from semantic ones.
func (s *SearchService) SearchByKeyword(ctx context.Context, query string) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	start := time.Now()

	results, err := s.repo.SearchByKeyword(ctx, query, s.keywordLimit)
	if err != nil {
		s.logger.Error("keyword search failed", "error", err)

		return nil, fmt.Errorf("keyword search: %w", err)
	}

	if s.searchMetrics != nil {
		s.searchMetrics.RecordRequest(ctx, searchModeKeyword)
		s.searchMetrics.RecordDuration(ctx, time.Since(start), searchModeKeyword)
	}

	return results, nil
}

// queryEmbedding returns the query's embedding, via the cache when one is
// configured. Identical queries within the cache window reuse one provider
// call; concurrent misses for the same query are coalesced.
func (s *SearchService) queryEmbedding(ctx context.Context, query string) ([]float32, error) {
	if s.queryCache == nil {
		return s.embeddingClient.CreateEmbedding(ctx, query)
	}

	vec, hit, err := s.queryCache.Get(ctx, query, func(ctx context.Context, q string) ([]float32, error) {
		return s.embeddingClient.CreateEmbedding(ctx, q)
	})
	if err != nil {
		return nil, err
	}

	if s.cacheMetrics != nil {
		if hit {
			s.cacheMetrics.RecordHit(ctx, searchQueryEmbeddingCacheName)
		} else {
			s.cacheMetrics.RecordMiss(ctx, searchQueryEmbeddingCacheName)
		}
	}

	return vec, nil
}
