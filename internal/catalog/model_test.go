package catalog

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Example Product":       "example-product",
		"  Trim  me  ":          "trim-me",
		"Déjà Vu!":              "deja-vu",
		"already-slugged_value": "already-slugged_value",
		"a -- b":                "a-b",
		"Категория":             "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}

func TestCategorySlug(t *testing.T) {
	slug := CategorySlug("Category 1")
	assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]{3}pickbettercategory-1$`), slug)
}

func TestCategoryPath(t *testing.T) {
	rootID, midID := int64(1), int64(2)
	root := Category{ID: rootID, Name: "Electronics"}
	mid := Category{ID: midID, Name: "Audio", ParentID: &rootID}
	leaf := Category{ID: 3, Name: "Headphones", ParentID: &midID}

	byID := map[int64]Category{root.ID: root, mid.ID: mid, leaf.ID: leaf}

	assert.Equal(t, "Electronics -> Audio -> Headphones", leaf.Path(byID))
	assert.Equal(t, "Electronics", root.Path(byID))
	assert.Equal(t, "Headphones", leaf.Path(map[int64]Category{}))
}

func TestNormalizeProduct_Defaults(t *testing.T) {
	p := normalizeProduct(Product{Title: " Example Product "})

	assert.Equal(t, "Example Product", p.Title)
	assert.Equal(t, "example-product", p.Slug)
	assert.True(t, p.Price.Equal(DefaultPrice))
}
