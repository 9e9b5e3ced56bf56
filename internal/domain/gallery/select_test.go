package gallery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageOf(number int, ids ...string) *Page {
	p := &Page{Number: number}
	for _, id := range ids {
		p.Records = append(p.Records, &ImageRecord{ID: id})
	}
	return p
}

func TestVisibleRecords(t *testing.T) {
	pages := map[int]*Page{
		1: pageOf(1, "a1", "a2"),
		2: pageOf(2, "b1", "b2"),
		3: pageOf(3, "c1"),
	}

	t.Run("grid flattens the pair in page order", func(t *testing.T) {
		got := VisibleRecords(pages, ViewModeGrid, 1)
		require.Len(t, got, 4)
		assert.Equal(t, "a1", got[0].ID)
		assert.Equal(t, "a2", got[1].ID)
		assert.Equal(t, "b1", got[2].ID)
		assert.Equal(t, "b2", got[3].ID)
	})

	t.Run("carousel uses the single page", func(t *testing.T) {
		got := VisibleRecords(pages, ViewModeCarousel, 3)
		require.Len(t, got, 1)
		assert.Equal(t, "c1", got[0].ID)
	})

	t.Run("missing pages contribute nothing", func(t *testing.T) {
		// Grid page 2 wants {3, 4}; only 3 is loaded
		got := VisibleRecords(pages, ViewModeGrid, 2)
		require.Len(t, got, 1)
		assert.Equal(t, "c1", got[0].ID)

		assert.Empty(t, VisibleRecords(pages, ViewModeCarousel, 9))
	})

	t.Run("deterministic for identical input", func(t *testing.T) {
		first := VisibleRecords(pages, ViewModeGrid, 1)
		second := VisibleRecords(pages, ViewModeGrid, 1)
		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.Same(t, first[i], second[i])
		}
	})
}

func TestPageNeedsMetadata(t *testing.T) {
	complete := &Page{Number: 1, Records: []*ImageRecord{
		{ID: "a", Metadata: &Metadata{Category: "X", Description: "d", AuthorName: "n"}},
	}}
	assert.False(t, complete.NeedsMetadata())

	mixed := &Page{Number: 2, Records: []*ImageRecord{
		{ID: "a", Metadata: &Metadata{Category: "X", Description: "d", AuthorName: "n"}},
		{ID: "b"},
	}}
	assert.True(t, mixed.NeedsMetadata())

	empty := &Page{Number: 3}
	assert.False(t, empty.NeedsMetadata())
}
