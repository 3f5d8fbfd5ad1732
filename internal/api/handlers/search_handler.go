package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/creatorbrands/directory/internal/api/response"
	"github.com/creatorbrands/directory/internal/models"
	"github.com/creatorbrands/directory/internal/service"
)

// Searcher defines the search operations exposed over HTTP.
type Searcher interface {
	SemanticSearch(ctx context.Context, query string) ([]models.SearchResult, error)
	SearchByKeyword(ctx context.Context, query string) ([]models.SearchResult, error)
}

// SearchHandler handles semantic and keyword search requests. Fallback
// policy lives in the client orchestrator: the server returns exactly what
// each mode found, including an empty semantic result set.
type SearchHandler struct {
	service Searcher
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(service Searcher) *SearchHandler {
	return &SearchHandler{service: service}
}

// SemanticSearchRequest is the body for POST /v1/brands/search/semantic.
type SemanticSearchRequest struct {
	Query string `json:"query"`
}

// SearchResponse wraps results for both search modes. Keyword results carry
// no similarity field; semantic results always do.
type SearchResponse struct {
	Results []models.SearchResult `json:"results"`
}

// SemanticSearch handles POST /v1/brands/search/semantic.
func (h *SearchHandler) SemanticSearch(w http.ResponseWriter, r *http.Request) {
	var req SemanticSearchRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	results, err := h.service.SemanticSearch(r.Context(), req.Query)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) {
			response.RespondBadRequest(w, "query is required and must be non-empty")

			return
		}

		if errors.Is(err, context.DeadlineExceeded) {
			response.RespondGatewayTimeout(w, "Semantic search timed out")

			return
		}

		response.RespondInternalServerError(w, "Search failed")

		return
	}

	response.RespondJSON(w, http.StatusOK, SearchResponse{Results: emptyIfNil(results)})
}

// KeywordSearch handles GET /v1/brands/search/keyword?q=.
func (h *SearchHandler) KeywordSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	results, err := h.service.SearchByKeyword(r.Context(), query)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) {
			response.RespondBadRequest(w, "q is required and must be non-empty")

			return
		}

		response.RespondInternalServerError(w, "Search failed")

		return
	}

	response.RespondJSON(w, http.StatusOK, SearchResponse{Results: emptyIfNil(results)})
}

// emptyIfNil keeps the wire shape stable: zero matches serialize as [] so
// clients can tell "no results" from a missing field.
func emptyIfNil(results []models.SearchResult) []models.SearchResult {
	if results == nil {
		return []models.SearchResult{}
	}

	return results
}
