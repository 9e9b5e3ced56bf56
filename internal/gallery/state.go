// Package gallery hosts the engine: the single-writer session state for
// the image gallery plus the operations the presentation surface calls
// (navigation, view-mode switch, category filter, like toggle, backfill).
package gallery

import (
	"sort"

	domain "feed-gallery/internal/domain/gallery"
)

// State is the session state behind one gallery: every page fetched so
// far plus the current viewing position. It is not safe for concurrent
// use on its own; the engine guards it with one mutex.
type State struct {
	pages          map[int]*domain.Page
	totalAPIPages  int
	mode           domain.ViewMode
	logicalPage    int
	activeCategory string
}

// NewState returns the initial session state: no pages loaded, grid mode,
// logical page 1, category filter on All.
func NewState() *State {
	return &State{
		pages:          make(map[int]*domain.Page),
		mode:           domain.ViewModeGrid,
		logicalPage:    1,
		activeCategory: domain.CategoryAll,
	}
}

// Put inserts a fetched page under its server-echoed number and records
// the feed's total page count. A page that is already loaded is kept as
// is: loaded records carry like and metadata mutations that a refetch
// must not clobber.
func (s *State) Put(page *domain.Page, totalAPIPages int) {
	if totalAPIPages > 0 {
		s.totalAPIPages = totalAPIPages
	}
	if page == nil {
		return
	}
	if _, ok := s.pages[page.Number]; ok {
		return
	}
	s.pages[page.Number] = page
}

// Loaded reports whether the given API page is in the cache.
func (s *State) Loaded(number int) bool {
	_, ok := s.pages[number]
	return ok
}

// LoadedPages returns every cached page in ascending page-number order.
func (s *State) LoadedPages() []*domain.Page {
	numbers := make([]int, 0, len(s.pages))
	for n := range s.pages {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	pages := make([]*domain.Page, 0, len(numbers))
	for _, n := range numbers {
		pages = append(pages, s.pages[n])
	}
	return pages
}

// Record finds a record by id across all loaded pages.
func (s *State) Record(id string) (*domain.ImageRecord, bool) {
	for _, p := range s.pages {
		if rec, ok := p.Record(id); ok {
			return rec, true
		}
	}
	return nil, false
}

// allRecords flattens every loaded page in page order. Feeds the category
// index, which is computed over the full loaded set rather than the
// visible slice.
func (s *State) allRecords() []*domain.ImageRecord {
	var out []*domain.ImageRecord
	for _, p := range s.LoadedPages() {
		out = append(out, p.Records...)
	}
	return out
}
