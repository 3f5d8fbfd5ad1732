package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/creatorbrands/directory/internal/api/response"
	"github.com/creatorbrands/directory/internal/models"
	"github.com/creatorbrands/directory/internal/repository"
)

// BrandsManager defines the brand operations exposed over HTTP.
type BrandsManager interface {
	Create(ctx context.Context, req *models.CreateBrandRequest) (*models.Brand, error)
	Get(ctx context.Context, id int64) (*models.Brand, error)
	Update(ctx context.Context, id int64, req *models.UpdateBrandRequest) (*models.Brand, error)
	Delete(ctx context.Context, id int64) error
	Approve(ctx context.Context, id int64) error
	List(ctx context.Context, filters *models.ListBrandsFilters) ([]models.Brand, error)
}

// BrandsHandler handles brand CRUD requests.
type BrandsHandler struct {
	service BrandsManager
}

// NewBrandsHandler creates a new brands handler.
func NewBrandsHandler(service BrandsManager) *BrandsHandler {
	return &BrandsHandler{service: service}
}

// Create handles POST /v1/brands.
func (h *BrandsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBrandRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	if strings.TrimSpace(req.Name) == "" {
		response.RespondBadRequest(w, "name is required")

		return
	}

	if strings.TrimSpace(req.Creators) == "" {
		response.RespondBadRequest(w, "creators is required")

		return
	}

	brand, err := h.service.Create(r.Context(), &req)
	if err != nil {
		response.RespondInternalServerError(w, "Failed to create brand")

		return
	}

	response.RespondJSON(w, http.StatusCreated, brand)
}

// Get handles GET /v1/brands/{id}.
func (h *BrandsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := brandID(w, r)
	if !ok {
		return
	}

	brand, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBrandNotFound) {
			response.RespondNotFound(w, "Brand not found")

			return
		}

		response.RespondInternalServerError(w, "Failed to load brand")

		return
	}

	response.RespondJSON(w, http.StatusOK, brand)
}

// Update handles PATCH /v1/brands/{id}.
func (h *BrandsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := brandID(w, r)
	if !ok {
		return
	}

	var req models.UpdateBrandRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	brand, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, repository.ErrBrandNotFound) {
			response.RespondNotFound(w, "Brand not found")

			return
		}

		response.RespondInternalServerError(w, "Failed to update brand")

		return
	}

	response.RespondJSON(w, http.StatusOK, brand)
}

// Delete handles DELETE /v1/brands/{id}.
func (h *BrandsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := brandID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrBrandNotFound) {
			response.RespondNotFound(w, "Brand not found")

			return
		}

		response.RespondInternalServerError(w, "Failed to delete brand")

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Approve handles POST /v1/brands/{id}/approve.
func (h *BrandsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := brandID(w, r)
	if !ok {
		return
	}

	if err := h.service.Approve(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrBrandNotFound) {
			response.RespondNotFound(w, "Brand not found")

			return
		}

		response.RespondInternalServerError(w, "Failed to approve brand")

		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]bool{"approved": true})
}

// List handles GET /v1/brands with optional category, influencer_type,
// approved, limit, and offset query parameters.
func (h *BrandsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := &models.ListBrandsFilters{}
	query := r.URL.Query()

	if v := query.Get("category"); v != "" {
		filters.ProductCategory = &v
	}

	if v := query.Get("influencer_type"); v != "" {
		filters.TypeOfInfluencer = &v
	}

	if v := query.Get("approved"); v != "" {
		approved, err := strconv.ParseBool(v)
		if err != nil {
			response.RespondBadRequest(w, "approved must be true or false")

			return
		}

		filters.Approved = &approved
	}

	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			response.RespondBadRequest(w, "limit must be a positive integer")

			return
		}

		filters.Limit = limit
	}

	if v := query.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			response.RespondBadRequest(w, "offset must be a non-negative integer")

			return
		}

		filters.Offset = offset
	}

	brands, err := h.service.List(r.Context(), filters)
	if err != nil {
		response.RespondInternalServerError(w, "Failed to list brands")

		return
	}

	if brands == nil {
		brands = []models.Brand{}
	}

	response.RespondJSON(w, http.StatusOK, map[string]any{"brands": brands})
}

// brandID parses the {id} path value, writing a 400 response on failure.
func brandID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		response.RespondBadRequest(w, "Invalid brand ID")

		return 0, false
	}

	return id, true
}
