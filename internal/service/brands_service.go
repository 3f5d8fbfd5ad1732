package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/creatorbrands/directory/internal/embedtext"
	"github.com/creatorbrands/directory/internal/models"
)

// BrandsRepository is the brand data access needed by the service.
type BrandsRepository interface {
	Create(ctx context.Context, req *models.CreateBrandRequest) (*models.Brand, error)
	GetByID(ctx context.Context, id int64) (*models.Brand, error)
	Update(ctx context.Context, id int64, req *models.UpdateBrandRequest) (*models.Brand, error)
	Delete(ctx context.Context, id int64) error
	SetApproved(ctx context.Context, id int64, approved bool) error
	List(ctx context.Context, filters *models.ListBrandsFilters) ([]models.Brand, error)
	UpdateEmbedding(ctx context.Context, id int64, embedding []float32) error
	ListIDsForBackfill(ctx context.Context) ([]int64, error)
}

// QueueEnqueuer creates pending embedding work items.
type QueueEnqueuer interface {
	Enqueue(ctx context.Context, brandID int64, text string) (int64, error)
}

// BrandsService coordinates brand CRUD with the embedding pipeline: every
// create or content update enqueues a fresh embedding job carrying a
// snapshot of the brand's embedding text.
type BrandsService struct {
	repo   BrandsRepository
	queue  QueueEnqueuer
	client EmbeddingClient
	logger *slog.Logger
}

// NewBrandsService creates a BrandsService. queue may be nil when the
// embedding pipeline is disabled; client may be nil when no provider is
// configured (GenerateEmbedding then fails).
func NewBrandsService(repo BrandsRepository, queue QueueEnqueuer, client EmbeddingClient, logger *slog.Logger) *BrandsService {
	if logger == nil {
		logger = slog.Default()
	}

	return &BrandsService{repo: repo, queue: queue, client: client, logger: logger}
}

// Create inserts a brand and enqueues its first embedding job. Enqueue
// failure does not fail the create: the backfill sweep picks the brand up
// later because its embedding is still NULL.
func (s *BrandsService) Create(ctx context.Context, req *models.CreateBrandRequest) (*models.Brand, error) {
	brand, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	s.enqueueEmbedding(ctx, brand)

	return brand, nil
}

// Get returns a single brand.
func (s *BrandsService) Get(ctx context.Context, id int64) (*models.Brand, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies the patch and, when any embedding-relevant field changed,
// enqueues a fresh embedding job with the updated snapshot text.
func (s *BrandsService) Update(ctx context.Context, id int64, req *models.UpdateBrandRequest) (*models.Brand, error) {
	brand, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Creators != nil || req.Description != nil ||
		req.ProductCategory != nil || req.TypeOfInfluencer != nil {
		s.enqueueEmbedding(ctx, brand)
	}

	return brand, nil
}

// Delete removes a brand.
func (s *BrandsService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Approve marks a brand as approved, making it visible to keyword search
// and the public listing.
func (s *BrandsService) Approve(ctx context.Context, id int64) error {
	return s.repo.SetApproved(ctx, id, true)
}

// List returns brands matching the filters.
func (s *BrandsService) List(ctx context.Context, filters *models.ListBrandsFilters) ([]models.Brand, error) {
	return s.repo.List(ctx, filters)
}

// GenerateEmbedding embeds a brand synchronously, bypassing the queue, and
// writes the vector onto the brand row. Returns the vector length.
func (s *BrandsService) GenerateEmbedding(ctx context.Context, id int64) (int, error) {
	if s.client == nil {
		return 0, fmt.Errorf("embedding provider not configured")
	}

	brand, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}

	embedding, err := s.client.CreateEmbedding(ctx, embedtext.Build(brand))
	if err != nil {
		return 0, fmt.Errorf("create embedding: %w", err)
	}

	if err := s.repo.UpdateEmbedding(ctx, id, embedding); err != nil {
		return 0, err
	}

	return len(embedding), nil
}

// BackfillEmbeddings enqueues an embedding job for every brand whose stored
// vector is NULL or all-zero (the ones invisible to semantic search).
// Returns the number of jobs enqueued.
func (s *BrandsService) BackfillEmbeddings(ctx context.Context) (int, error) {
	if s.queue == nil {
		return 0, fmt.Errorf("embedding queue not configured")
	}

	ids, err := s.repo.ListIDsForBackfill(ctx)
	if err != nil {
		return 0, err
	}

	enqueued := 0

	for _, id := range ids {
		brand, err := s.repo.GetByID(ctx, id)
		if err != nil {
			s.logger.Warn("backfill: load brand failed", "brand_id", id, "error", err)

			continue
		}

		if _, err := s.queue.Enqueue(ctx, id, embedtext.Build(brand)); err != nil {
			s.logger.Warn("backfill: enqueue failed", "brand_id", id, "error", err)

			continue
		}

		enqueued++
	}

	return enqueued, nil
}

func (s *BrandsService) enqueueEmbedding(ctx context.Context, brand *models.Brand) {
	if s.queue == nil {
		return
	}

	itemID, err := s.queue.Enqueue(ctx, brand.ID, embedtext.Build(brand))
	if err != nil {
		s.logger.Error("enqueue embedding job failed", "brand_id", brand.ID, "error", err)

		return
	}

	s.logger.Debug("embedding job enqueued", "brand_id", brand.ID, "queue_item_id", itemID)
}
