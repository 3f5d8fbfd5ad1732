package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/creatorbrands/directory/internal/api/handlers"
	"github.com/creatorbrands/directory/internal/api/middleware"
	"github.com/creatorbrands/directory/internal/config"
	"github.com/creatorbrands/directory/internal/observability"
	"github.com/creatorbrands/directory/internal/openai"
	"github.com/creatorbrands/directory/internal/repository"
	"github.com/creatorbrands/directory/internal/service"
	"github.com/creatorbrands/directory/pkg/cache"
)

// App holds all server dependencies and coordinates startup and shutdown.
type App struct {
	cfg    *config.Config
	db     *pgxpool.Pool
	server *http.Server
}

const (
	searchQueryCacheSize = 1000
	maxRequestBody       = 1 << 20
)

// NewApp builds and wires all components. It does not start the HTTP server;
// call Run to start and block until shutdown or failure.
func NewApp(cfg *config.Config, db *pgxpool.Pool) (*App, error) {
	// Install TraceContextHandler so request_id appears in logs.
	defaultHandler := slog.Default().Handler()
	slog.SetDefault(slog.New(observability.NewTraceContextHandler(defaultHandler)))

	// The global meter provider is a no-op unless the deployment installs an
	// exporter; metrics calls are then free.
	metrics, err := observability.NewMetrics(otel.GetMeterProvider().Meter("directory"))
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	brandsRepo := repository.NewBrandsRepository(db, cfg.EmbeddingDimensions)
	queueRepo := repository.NewEmbeddingQueueRepository(db)

	var embeddingClient service.EmbeddingClient

	if cfg.OpenAIAPIKey != "" {
		embeddingClient = openai.NewClient(cfg.OpenAIAPIKey,
			openai.WithModel(cfg.EmbeddingModel),
			openai.WithDimensions(cfg.EmbeddingDimensions),
		)
		slog.Info("Embeddings enabled", "embedding_model", cfg.EmbeddingModel)
	} else {
		slog.Info("Embeddings disabled (OPENAI_API_KEY not set)")
	}

	brandsService := service.NewBrandsService(brandsRepo, queueRepo, embeddingClient, slog.Default())
	brandsHandler := handlers.NewBrandsHandler(brandsService)
	healthHandler := handlers.NewHealthHandler()

	var (
		searchHandler     *handlers.SearchHandler
		embeddingsHandler *handlers.EmbeddingsHandler
	)

	if embeddingClient != nil {
		queryCache, err := cache.New[[]float32](searchQueryCacheSize)
		if err != nil {
			return nil, fmt.Errorf("create search query cache: %w", err)
		}

		var (
			cacheMetrics     observability.CacheMetrics
			searchMetrics    observability.SearchMetrics
			embeddingMetrics observability.EmbeddingMetrics
		)

		if metrics != nil {
			cacheMetrics = metrics.Cache
			searchMetrics = metrics.Search
			embeddingMetrics = metrics.Embeddings
		}

		searchService := service.NewSearchService(service.SearchServiceParams{
			EmbeddingClient: embeddingClient,
			Repo:            brandsRepo,
			Model:           cfg.EmbeddingModel,
			MinScore:        cfg.SearchScoreThreshold,
			TopK:            cfg.SearchTopK,
			KeywordLimit:    cfg.KeywordSearchLimit,
			QueryCache:      queryCache,
			CacheMetrics:    cacheMetrics,
			SearchMetrics:   searchMetrics,
			Logger:          slog.Default(),
		})
		searchHandler = handlers.NewSearchHandler(searchService)

		processor := service.NewQueueProcessor(service.QueueProcessorParams{
			Store:     queueRepo,
			Brands:    brandsRepo,
			Client:    embeddingClient,
			Limiter:   rate.NewLimiter(rate.Limit(cfg.EmbeddingRateLimit), 1),
			BatchSize: cfg.QueueBatchSize,
			Policy:    service.RetryPolicy{MaxAttempts: cfg.EmbeddingMaxAttempts},
			Retryable: openai.IsRetryable,
			Metrics:   embeddingMetrics,
			Logger:    slog.Default(),
		})
		embeddingsHandler = handlers.NewEmbeddingsHandler(brandsService, processor)
	}

	server := newHTTPServer(cfg, healthHandler, brandsHandler, searchHandler, embeddingsHandler)

	return &App{cfg: cfg, db: db, server: server}, nil
}

// newHTTPServer builds the HTTP server and muxes (no auth on /health, API key on /v1/).
// Handler chain: RequestID -> Logging -> MaxBody -> mux.
func newHTTPServer(
	cfg *config.Config,
	health *handlers.HealthHandler,
	brands *handlers.BrandsHandler,
	search *handlers.SearchHandler,
	embeddings *handlers.EmbeddingsHandler,
) *http.Server {
	public := http.NewServeMux()
	public.HandleFunc("GET /health", health.Check)

	protected := http.NewServeMux()
	protected.HandleFunc("POST /v1/brands", brands.Create)
	protected.HandleFunc("GET /v1/brands", brands.List)
	protected.HandleFunc("GET /v1/brands/{id}", brands.Get)
	protected.HandleFunc("PATCH /v1/brands/{id}", brands.Update)
	protected.HandleFunc("DELETE /v1/brands/{id}", brands.Delete)
	protected.HandleFunc("POST /v1/brands/{id}/approve", brands.Approve)

	// Search and the embedding pipeline are nil when OPENAI_API_KEY is unset;
	// those routes are not registered then.
	if search != nil {
		protected.HandleFunc("POST /v1/brands/search/semantic",
			withTimeout(cfg.SearchTimeout, search.SemanticSearch))
		protected.HandleFunc("GET /v1/brands/search/keyword", search.KeywordSearch)
	}

	if embeddings != nil {
		protected.HandleFunc("POST /v1/brands/{id}/embedding", embeddings.Generate)
		protected.HandleFunc("POST /v1/embedding-queue/process", embeddings.ProcessQueue)
	}

	protectedWithAuth := middleware.Auth(cfg.APIKey)(protected)
	mux := http.NewServeMux()
	mux.Handle("/v1/", protectedWithAuth)
	mux.Handle("/", public)

	handler := middleware.MaxBody(maxRequestBody)(mux)
	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)

	const (
		readTimeout  = 15 * time.Second
		idleTimeout  = 60 * time.Second
		writeTimeout = 45 * time.Second
	)

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout, // above SearchTimeout so 504s reach the client
		IdleTimeout:  idleTimeout,
	}
}

// withTimeout bounds a handler's request context. The handler maps the
// resulting context.DeadlineExceeded to a 504.
func withTimeout(d time.Duration, next http.HandlerFunc) http.HandlerFunc {
	if d <= 0 {
		return next
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()

		next(w, r.WithContext(ctx))
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled (e.g. signal)
// or the server fails. Caller should then call Shutdown.
func (a *App) Run(ctx context.Context) error {
	runErr := make(chan error, 1)

	go func() {
		slog.Info("Starting server", "port", a.cfg.Port)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr <- fmt.Errorf("server: %w", err)
		}
	}()

	select {
	case err := <-runErr:
		return err
	case <-ctx.Done():
		return nil
	}
}

// Shutdown stops accepting new requests and drains in-flight ones.
func (a *App) Shutdown(ctx context.Context) error {
	if err := a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
