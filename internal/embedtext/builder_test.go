package embedtext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorbrands/directory/internal/models"
)

func strPtr(s string) *string { return &s }

func TestBuild_Deterministic(t *testing.T) {
	brand := &models.Brand{
		Name:             "Chamberlain Coffee",
		Creators:         "Emma Chamberlain",
		Description:      "Specialty coffee and matcha.",
		ProductCategory:  strPtr("Food & Beverage"),
		TypeOfInfluencer: strPtr("YouTuber"),
	}

	first := Build(brand)
	second := Build(brand)
	assert.Equal(t, first, second)

	require.Equal(t,
		"Brand: Chamberlain Coffee\n"+
			"Creators: Emma Chamberlain\n"+
			"Category: Food & Beverage\n"+
			"Influencer type: YouTuber\n"+
			"Description: Specialty coffee and matcha.",
		first)
}

func TestBuild_MissingOptionalsUsePlaceholder(t *testing.T) {
	brand := &models.Brand{
		Name:        "Fenty Beauty",
		Creators:    "Rihanna",
		Description: "Cosmetics line.",
	}

	text := Build(brand)
	assert.Contains(t, text, "Category: Unknown")
	assert.Contains(t, text, "Influencer type: Unknown")
	// The placeholder must never collapse to an empty substitution.
	assert.NotContains(t, text, "Category: \n")
}

func TestBuild_BlankOptionalTreatedAsMissing(t *testing.T) {
	brand := &models.Brand{
		Name:            "Prime",
		Creators:        "Logan Paul, KSI",
		Description:     "Hydration drinks.",
		ProductCategory: strPtr("   "),
	}

	text := Build(brand)
	assert.Contains(t, text, "Category: Unknown")
}

func TestBuild_StableLineCount(t *testing.T) {
	with := Build(&models.Brand{Name: "a", Creators: "b", Description: "c",
		ProductCategory: strPtr("x"), TypeOfInfluencer: strPtr("y")})
	without := Build(&models.Brand{Name: "a", Creators: "b", Description: "c"})

	assert.Equal(t, strings.Count(with, "\n"), strings.Count(without, "\n"))
}
