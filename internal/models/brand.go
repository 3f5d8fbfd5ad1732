// Package models defines the domain types shared across repositories,
// services, and HTTP handlers.
package models

import (
	"time"
)

// Brand is a directory entry for a celebrity- or creator-owned brand.
// Embedding is nil until the queue processor has stored a vector for it;
// an all-zero vector is treated the same as nil (needs re-embedding).
type Brand struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Creators         string     `json:"creators"`
	Description      string     `json:"description"`
	ProductCategory  *string    `json:"product_category,omitempty"`
	TypeOfInfluencer *string    `json:"type_of_influencer,omitempty"`
	Approved         bool       `json:"approved"`
	Embedding        []float32  `json:"-"`
	LastEmbeddedAt   *time.Time `json:"last_embedded_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// CreateBrandRequest is the request body to create a brand.
type CreateBrandRequest struct {
	Name             string  `json:"name"`
	Creators         string  `json:"creators"`
	Description      string  `json:"description"`
	ProductCategory  *string `json:"product_category,omitempty"`
	TypeOfInfluencer *string `json:"type_of_influencer,omitempty"`
}

// UpdateBrandRequest is the request body to update a brand. Nil fields are
// left unchanged.
type UpdateBrandRequest struct {
	Name             *string `json:"name,omitempty"`
	Creators         *string `json:"creators,omitempty"`
	Description      *string `json:"description,omitempty"`
	ProductCategory  *string `json:"product_category,omitempty"`
	TypeOfInfluencer *string `json:"type_of_influencer,omitempty"`
}

// ListBrandsFilters narrows the directory listing.
type ListBrandsFilters struct {
	ProductCategory  *string
	TypeOfInfluencer *string
	Approved         *bool
	Limit            int
	Offset           int
}
