// process-queue claims and processes one batch of pending embedding queue
// items, then exits. Intended for cron or manual runs when the API server's
// process endpoint is not being used.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/time/rate"

	"github.com/creatorbrands/directory/internal/config"
	"github.com/creatorbrands/directory/internal/openai"
	"github.com/creatorbrands/directory/internal/repository"
	"github.com/creatorbrands/directory/internal/service"
	"github.com/creatorbrands/directory/pkg/database"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)

		return exitFailure
	}

	if cfg.OpenAIAPIKey == "" {
		slog.Error("OPENAI_API_KEY is required")

		return exitFailure
	}

	ctx := context.Background()

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)

		return exitFailure
	}
	defer db.Close()

	brandsRepo := repository.NewBrandsRepository(db, cfg.EmbeddingDimensions)
	queueRepo := repository.NewEmbeddingQueueRepository(db)

	client := openai.NewClient(cfg.OpenAIAPIKey,
		openai.WithModel(cfg.EmbeddingModel),
		openai.WithDimensions(cfg.EmbeddingDimensions),
	)

	processor := service.NewQueueProcessor(service.QueueProcessorParams{
		Store:     queueRepo,
		Brands:    brandsRepo,
		Client:    client,
		Limiter:   rate.NewLimiter(rate.Limit(cfg.EmbeddingRateLimit), 1),
		BatchSize: cfg.QueueBatchSize,
		Policy:    service.RetryPolicy{MaxAttempts: cfg.EmbeddingMaxAttempts},
		Retryable: openai.IsRetryable,
		Logger:    slog.Default(),
	})

	summary, err := processor.ProcessBatch(ctx)
	if err != nil {
		slog.Error("Queue processing failed", "error", err)

		return exitFailure
	}

	fmt.Printf("Processed %d item(s): %d successful, %d failed.\n",
		summary.Total, summary.Successful, summary.Failed)

	for _, msg := range summary.Errors {
		fmt.Printf("  error: %s\n", msg)
	}

	return exitSuccess
}
