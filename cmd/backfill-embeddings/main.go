// backfill-embeddings enqueues embedding queue items for brands whose stored
// vector is NULL or all-zero. Run this as a one-off or on a schedule; the API
// server's queue processor (or the process-queue command) drains the items.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/creatorbrands/directory/internal/config"
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

	ctx := context.Background()

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)

		return exitFailure
	}
	defer db.Close()

	brandsRepo := repository.NewBrandsRepository(db, cfg.EmbeddingDimensions)
	queueRepo := repository.NewEmbeddingQueueRepository(db)
	brandsService := service.NewBrandsService(brandsRepo, queueRepo, nil, slog.Default())

	enqueued, err := brandsService.BackfillEmbeddings(ctx)
	if err != nil {
		slog.Error("Backfill failed", "error", err)

		return exitFailure
	}

	slog.Info("Backfill complete", "enqueued", enqueued)

	fmt.Printf("Enqueued %d embedding job(s).\n", enqueued)

	return exitSuccess
}
