package gallery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiredAPIPages(t *testing.T) {
	tests := []struct {
		name    string
		logical int
		mode    ViewMode
		want    []int
	}{
		{"grid page 1", 1, ViewModeGrid, []int{1, 2}},
		{"grid page 2", 2, ViewModeGrid, []int{3, 4}},
		{"grid page 5", 5, ViewModeGrid, []int{9, 10}},
		{"carousel page 1", 1, ViewModeCarousel, []int{1}},
		{"carousel page 7", 7, ViewModeCarousel, []int{7}},
		{"zero page", 0, ViewModeGrid, nil},
		{"negative page", -3, ViewModeCarousel, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RequiredAPIPages(tt.logical, tt.mode))
		})
	}
}

func TestTotalLogicalPages(t *testing.T) {
	tests := []struct {
		name     string
		mode     ViewMode
		totalAPI int
		want     int
	}{
		{"grid even", ViewModeGrid, 10, 5},
		{"grid odd rounds up", ViewModeGrid, 7, 4},
		{"grid single", ViewModeGrid, 1, 1},
		{"carousel", ViewModeCarousel, 7, 7},
		{"unknown total", ViewModeGrid, 0, 0},
		{"negative total", ViewModeCarousel, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TotalLogicalPages(tt.mode, tt.totalAPI))
		})
	}
}

func TestTranslateLogicalPage(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		from, to ViewMode
		want     int
	}{
		{"grid 1 to carousel", 1, ViewModeGrid, ViewModeCarousel, 1},
		{"grid 3 to carousel", 3, ViewModeGrid, ViewModeCarousel, 5},
		{"carousel 1 to grid", 1, ViewModeCarousel, ViewModeGrid, 1},
		{"carousel 4 to grid", 4, ViewModeCarousel, ViewModeGrid, 2},
		{"carousel 5 to grid", 5, ViewModeCarousel, ViewModeGrid, 3},
		{"same mode", 6, ViewModeGrid, ViewModeGrid, 6},
		{"floor at one", 0, ViewModeGrid, ViewModeCarousel, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TranslateLogicalPage(tt.n, tt.from, tt.to))
		})
	}
}

// The round trip grid -> carousel -> grid must always come back to the
// same grid page, for any page number.
func TestTranslateRoundTrip(t *testing.T) {
	for n := 1; n <= 50; n++ {
		carousel := TranslateLogicalPage(n, ViewModeGrid, ViewModeCarousel)
		back := TranslateLogicalPage(carousel, ViewModeCarousel, ViewModeGrid)
		assert.Equal(t, n, back, "grid page %d", n)
	}
}

func TestClampLogicalPage(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		mode     ViewMode
		totalAPI int
		want     int
	}{
		{"within range", 3, ViewModeCarousel, 7, 3},
		{"above range carousel", 99, ViewModeCarousel, 7, 7},
		{"above range grid", 99, ViewModeGrid, 7, 4},
		{"below range", 0, ViewModeGrid, 7, 1},
		{"unknown total keeps target", 42, ViewModeCarousel, 0, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampLogicalPage(tt.n, tt.mode, tt.totalAPI))
		})
	}
}
