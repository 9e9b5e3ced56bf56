package gallery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func categorised(id, category string) *ImageRecord {
	return &ImageRecord{
		ID:       id,
		Metadata: &Metadata{Category: category, Description: "d", AuthorName: "n"},
	}
}

func TestCategorySlugRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		slug string
	}{
		{"Street Art", "Street-Art"},
		{"Nature", "Nature"},
		{"  padded  ", "padded"},
		{"two word pair", "two-word-pair"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.slug, CategorySlug(tt.name))
	}

	assert.Equal(t, "Street Art", CategoryDisplay("Street-Art"))
	assert.Equal(t, "Nature", CategoryDisplay("Nature"))
}

func TestVisibleByCategoryPartitions(t *testing.T) {
	records := []*ImageRecord{
		categorised("a", "Street Art"),
		{ID: "b"},
		categorised("c", "Nature"),
		{ID: "d"},
		categorised("e", "Street Art"),
	}

	// All passes everything, in order
	all := VisibleByCategory(records, CategoryAll)
	require.Len(t, all, 5)
	assert.Same(t, records[0], all[0])

	// Empty active behaves like All
	assert.Len(t, VisibleByCategory(records, ""), 5)

	// Uncategorised picks exactly the records without metadata
	unc := VisibleByCategory(records, CategoryUncategorised)
	require.Len(t, unc, 2)
	assert.Equal(t, "b", unc[0].ID)
	assert.Equal(t, "d", unc[1].ID)

	// A specific slug picks exactly its members
	street := VisibleByCategory(records, "Street-Art")
	require.Len(t, street, 2)
	assert.Equal(t, "a", street[0].ID)
	assert.Equal(t, "e", street[1].ID)

	// Every record lands in exactly one non-All bucket
	assert.Equal(t, len(records),
		len(unc)+len(street)+len(VisibleByCategory(records, "Nature")))

	// Unknown category matches nothing
	assert.Empty(t, VisibleByCategory(records, "Portraits"))
}

func TestDistinctCategories(t *testing.T) {
	records := []*ImageRecord{
		categorised("a", "Street Art"),
		{ID: "b"},
		categorised("c", "Nature"),
		categorised("d", "Street Art"),
	}

	slugs := DistinctCategories(records)
	assert.Equal(t, []string{CategoryAll, CategoryUncategorised, "Nature", "Street-Art"}, slugs)

	// No categorised records: only the fixed entries
	assert.Equal(t, []string{CategoryAll, CategoryUncategorised},
		DistinctCategories([]*ImageRecord{{ID: "x"}}))
}

func TestCategoryColorStable(t *testing.T) {
	first := CategoryColor("Street-Art")
	assert.Equal(t, first, CategoryColor("Street-Art"))
	assert.NotEmpty(t, first)
	assert.NotEmpty(t, CategoryColor(""))
}
