// Package embedtext renders a brand's structured fields into the text blob
// used as embedding input. The output must be byte-for-byte reproducible:
// the queue snapshots it at enqueue time and the backfill sweep compares
// against it to decide whether a brand needs re-embedding.
package embedtext

import (
	"strings"

	"github.com/creatorbrands/directory/internal/models"
)

// placeholder substitutes for missing optional fields so the text shape is
// identical across brands.
const placeholder = "Unknown"

// Build returns the embedding input text for a brand. Pure function: no
// side effects, deterministic for a given brand.
func Build(brand *models.Brand) string {
	var b strings.Builder

	b.WriteString("Brand: ")
	b.WriteString(brand.Name)
	b.WriteString("\nCreators: ")
	b.WriteString(brand.Creators)
	b.WriteString("\nCategory: ")
	b.WriteString(orPlaceholder(brand.ProductCategory))
	b.WriteString("\nInfluencer type: ")
	b.WriteString(orPlaceholder(brand.TypeOfInfluencer))
	b.WriteString("\nDescription: ")
	b.WriteString(brand.Description)

	return b.String()
}

func orPlaceholder(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return placeholder
	}

	return *s
}
