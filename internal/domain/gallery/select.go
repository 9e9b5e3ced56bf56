package gallery

import "sort"

// VisibleRecords resolves the ordered record list for a logical page in the
// given mode, before any category filtering. Grid mode flattens the API
// page pair in page-number order, keeping each page's original record
// order; carousel mode uses the single page's order unchanged. Pages that
// are not loaded yet simply contribute nothing, so the result is
// deterministic for a given (mode, logicalPage, pages) input.
func VisibleRecords(pages map[int]*Page, mode ViewMode, logicalPage int) []*ImageRecord {
	required := RequiredAPIPages(logicalPage, mode)
	sort.Ints(required)

	var out []*ImageRecord
	for _, n := range required {
		p, ok := pages[n]
		if !ok {
			continue
		}
		out = append(out, p.Records...)
	}
	return out
}
