package gallery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "feed-gallery/internal/domain/gallery"
)

func TestStatePutKeepsExistingPage(t *testing.T) {
	s := NewState()

	original := &domain.Page{Number: 2, Records: []*domain.ImageRecord{{ID: "a", LikesCount: 9}}}
	s.Put(original, 5)
	assert.Equal(t, 5, s.totalAPIPages)

	// A refetch of the same page must not clobber mutated records
	refetch := &domain.Page{Number: 2, Records: []*domain.ImageRecord{{ID: "a", LikesCount: 3}}}
	s.Put(refetch, 6)

	rec, ok := s.Record("a")
	require.True(t, ok)
	assert.Equal(t, 9, rec.LikesCount)
	assert.Equal(t, 6, s.totalAPIPages)
}

func TestStateLoadedPagesSorted(t *testing.T) {
	s := NewState()
	for _, n := range []int{4, 1, 3} {
		s.Put(&domain.Page{Number: n}, 0)
	}

	pages := s.LoadedPages()
	require.Len(t, pages, 3)
	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, 3, pages[1].Number)
	assert.Equal(t, 4, pages[2].Number)

	assert.True(t, s.Loaded(3))
	assert.False(t, s.Loaded(2))
}
