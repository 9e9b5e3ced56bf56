package gallery

import (
	"sort"
	"strings"
)

// Fixed category filter entries. "All" shows every loaded record,
// "Uncategorised" shows the records still waiting for metadata.
const (
	CategoryAll           = "All"
	CategoryUncategorised = "Uncategorised"
)

// CategorySlug normalizes a category name into its filter identity:
// surrounding whitespace trimmed and inner spaces replaced by hyphens.
func CategorySlug(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "-")
}

// CategoryDisplay reverses CategorySlug for presentation.
func CategoryDisplay(slug string) string {
	return strings.ReplaceAll(slug, "-", " ")
}

// VisibleByCategory filters records by the active category slug. CategoryAll
// passes everything, CategoryUncategorised passes records without metadata,
// any other value passes records whose category slug matches exactly.
func VisibleByCategory(records []*ImageRecord, active string) []*ImageRecord {
	if active == "" || active == CategoryAll {
		return records
	}

	out := make([]*ImageRecord, 0, len(records))
	for _, r := range records {
		if active == CategoryUncategorised {
			if !r.HasMetadata() {
				out = append(out, r)
			}
			continue
		}
		if r.HasMetadata() && CategorySlug(r.Category()) == active {
			out = append(out, r)
		}
	}
	return out
}

// DistinctCategories returns the sorted distinct category slugs present in
// records, prefixed by the two fixed entries. Recomputed after every render
// so the filter buttons always reflect the loaded data.
func DistinctCategories(records []*ImageRecord) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		if r.HasMetadata() {
			seen[CategorySlug(r.Category())] = struct{}{}
		}
	}

	slugs := make([]string, 0, len(seen))
	for s := range seen {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)

	return append([]string{CategoryAll, CategoryUncategorised}, slugs...)
}
