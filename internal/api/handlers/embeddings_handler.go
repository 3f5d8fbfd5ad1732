package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/creatorbrands/directory/internal/api/response"
	"github.com/creatorbrands/directory/internal/models"
	"github.com/creatorbrands/directory/internal/repository"
)

// EmbeddingGenerator embeds a single brand synchronously.
type EmbeddingGenerator interface {
	GenerateEmbedding(ctx context.Context, id int64) (int, error)
}

// BatchProcessor drains pending embedding queue items.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context) (models.ProcessSummary, error)
}

// EmbeddingsHandler exposes the embedding pipeline over HTTP: on-demand
// single-brand embedding and the queue processing trigger.
type EmbeddingsHandler struct {
	brands    EmbeddingGenerator
	processor BatchProcessor
}

// NewEmbeddingsHandler creates a new embeddings handler.
func NewEmbeddingsHandler(brands EmbeddingGenerator, processor BatchProcessor) *EmbeddingsHandler {
	return &EmbeddingsHandler{brands: brands, processor: processor}
}

// embeddingResult is the body for the single-brand embedding endpoint. The
// success flag is always present so callers can branch without inspecting
// the status code.
type embeddingResult struct {
	Success    bool   `json:"success"`
	Dimensions int    `json:"dimensions,omitempty"`
	Error      string `json:"error,omitempty"`
}

// processResult wraps the queue batch summary.
type processResult struct {
	Success bool                   `json:"success"`
	Results *models.ProcessSummary `json:"results,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

func (h *EmbeddingsHandler) respondSummary(w http.ResponseWriter, summary models.ProcessSummary) {
	response.RespondJSON(w, http.StatusOK, processResult{
		Success: true,
		Results: &summary,
	})
}

// Generate handles POST /v1/brands/{id}/embedding. Embedding failures are
// reported as 400 with success=false rather than a problem document; the
// admin UI keys off the success flag.
func (h *EmbeddingsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	id, ok := brandID(w, r)
	if !ok {
		return
	}

	dimensions, err := h.brands.GenerateEmbedding(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBrandNotFound) {
			response.RespondNotFound(w, "Brand not found")

			return
		}

		response.RespondJSON(w, http.StatusBadRequest, embeddingResult{
			Success: false,
			Error:   err.Error(),
		})

		return
	}

	response.RespondJSON(w, http.StatusOK, embeddingResult{
		Success:    true,
		Dimensions: dimensions,
	})
}

// ProcessQueue handles POST /v1/embedding-queue/process. A batch where some
// items failed is still a 200: per-item outcomes are in the summary, and a
// non-2xx is reserved for the batch itself not running.
func (h *EmbeddingsHandler) ProcessQueue(w http.ResponseWriter, r *http.Request) {
	summary, err := h.processor.ProcessBatch(r.Context())
	if err != nil {
		response.RespondJSON(w, http.StatusInternalServerError, processResult{
			Success: false,
			Error:   err.Error(),
		})

		return
	}

	h.respondSummary(w, summary)
}
