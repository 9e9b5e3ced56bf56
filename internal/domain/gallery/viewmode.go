package gallery

// View-mode arithmetic. Logical pages are counted in units of the active
// view mode (a grid view spans two API pages, a carousel view one); these
// functions translate between the two units. All of them tolerate a zero
// totalAPIPages, which is the state before the first feed response.

// RequiredAPIPages returns the API page numbers a logical page needs, in
// ascending order. Grid view n maps to the pair {2n-1, 2n}; carousel view n
// maps to {n}.
func RequiredAPIPages(logicalPage int, mode ViewMode) []int {
	if logicalPage < 1 {
		return nil
	}
	if mode == ViewModeGrid {
		first := logicalPage*GridPagesPerView - 1
		return []int{first, first + 1}
	}
	return []int{logicalPage}
}

// TotalLogicalPages returns the number of logical pages the given mode
// exposes for a feed of totalAPIPages. Returns 0 while the total is still
// unknown.
func TotalLogicalPages(mode ViewMode, totalAPIPages int) int {
	if totalAPIPages <= 0 {
		return 0
	}
	if mode == ViewModeGrid {
		return (totalAPIPages + GridPagesPerView - 1) / GridPagesPerView
	}
	return totalAPIPages
}

// TranslateLogicalPage converts a logical page number between modes.
// Grid to carousel lands on the first API page of the pair; carousel to
// grid lands on the pair containing the carousel page. The round trip
// grid -> carousel -> grid always stays within the same grid pair.
func TranslateLogicalPage(n int, from, to ViewMode) int {
	if n < 1 {
		n = 1
	}
	if from == to {
		return n
	}
	if from == ViewModeGrid && to == ViewModeCarousel {
		return n*GridPagesPerView - 1
	}
	return (n + GridPagesPerView - 1) / GridPagesPerView
}

// ClampLogicalPage bounds a logical page to [1, TotalLogicalPages]. When
// the total is still unknown the lower bound alone applies.
func ClampLogicalPage(n int, mode ViewMode, totalAPIPages int) int {
	if n < 1 {
		return 1
	}
	if total := TotalLogicalPages(mode, totalAPIPages); total > 0 && n > total {
		return total
	}
	return n
}
