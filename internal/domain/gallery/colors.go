package gallery

import "hash/fnv"

// categoryColorPalette is a curated set of distinguishable colors for the
// category filter buttons, picked from the TailwindCSS palette.
var categoryColorPalette = []string{
	"#3B82F6", // blue-500
	"#10B981", // green-500
	"#F59E0B", // amber-500
	"#EF4444", // red-500
	"#8B5CF6", // violet-500
	"#EC4899", // pink-500
	"#06B6D4", // cyan-500
	"#F97316", // orange-500
	"#14B8A6", // teal-500
	"#A855F7", // purple-500
	"#6366F1", // indigo-500
}

// CategoryColor returns a stable color for a category slug. The same slug
// always hashes to the same palette entry, so button colors do not shuffle
// between renders.
func CategoryColor(slug string) string {
	if slug == "" {
		return categoryColorPalette[0]
	}

	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(slug))

	return categoryColorPalette[int(hasher.Sum32())%len(categoryColorPalette)]
}
