package gallery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"feed-gallery/internal/backfill"
	"feed-gallery/internal/config"
	domain "feed-gallery/internal/domain/gallery"
	"feed-gallery/internal/observability"
	"feed-gallery/internal/platform/cache"
)

// fakeFetcher builds deterministic pages: total pages, fixed page size,
// per-page metadata toggle. Past-the-end requests clamp onto the last
// page, echoing its real number like the feed does. Fetches can be
// stalled per page via blocked.
type fakeFetcher struct {
	totalPages int
	pageSize   int
	withMeta   map[int]bool
	imageBase  string

	mu      sync.Mutex
	fetches map[int]int
	blocked map[int]chan struct{}
}

func newFakeFetcher(totalPages, pageSize int) *fakeFetcher {
	return &fakeFetcher{
		totalPages: totalPages,
		pageSize:   pageSize,
		withMeta:   make(map[int]bool),
		fetches:    make(map[int]int),
		blocked:    make(map[int]chan struct{}),
	}
}

func (f *fakeFetcher) FetchPage(ctx context.Context, number int) (*domain.Page, int, error) {
	if number > f.totalPages {
		number = f.totalPages
	}

	f.mu.Lock()
	f.fetches[number]++
	gate := f.blocked[number]
	withMeta := f.withMeta[number]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	page := &domain.Page{Number: number}
	for i := 0; i < f.pageSize; i++ {
		rec := &domain.ImageRecord{
			ID:         fmt.Sprintf("img-%d-%d", number, i),
			ImageURL:   fmt.Sprintf("%s/p%d-%d.jpg", f.imageBase, number, i),
			LikesCount: 5,
		}
		if withMeta {
			rec.Metadata = &domain.Metadata{
				Category:    fmt.Sprintf("Category %d", number),
				Description: "d",
				AuthorName:  "n",
			}
		}
		page.Records = append(page.Records, rec)
	}
	return page, f.totalPages, nil
}

func (f *fakeFetcher) count(page int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[page]
}

func (f *fakeFetcher) block(page int) chan struct{} {
	gate := make(chan struct{})
	f.mu.Lock()
	f.blocked[page] = gate
	f.mu.Unlock()
	return gate
}

// recordingMutator records like mutations and signals each call.
type recordingMutator struct {
	mu    sync.Mutex
	calls []string
	done  chan struct{}
}

func newRecordingMutator() *recordingMutator {
	return &recordingMutator{done: make(chan struct{}, 16)}
}

func (m *recordingMutator) Like(ctx context.Context, id string) error {
	return m.record("POST " + id)
}

func (m *recordingMutator) Unlike(ctx context.Context, id string) error {
	return m.record("DELETE " + id)
}

func (m *recordingMutator) record(call string) error {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
	m.done <- struct{}{}
	return nil
}

func (m *recordingMutator) wait(t *testing.T) string {
	t.Helper()
	select {
	case <-m.done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for like mutation")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

type engineFixture struct {
	engine  *Engine
	fetcher *fakeFetcher
	mutator *recordingMutator
	likes   *cache.MemoryLikeStore
}

func newFixture(t *testing.T, fetcher *fakeFetcher, gen backfill.Generator, renderer domain.Renderer) *engineFixture {
	t.Helper()

	logger := observability.NewTestLogger()
	tracer := nooptrace.NewTracerProvider().Tracer("test")

	encoder := backfill.NewEncoder(config.BackfillConfig{
		Workers:        2,
		ImageTimeout:   time.Second,
		EncodeCacheTTL: time.Minute,
	}, logger, tracer)

	pipeline := backfill.NewPipeline(encoder, gen, logger, tracer, nil)

	mutator := newRecordingMutator()
	likes := cache.NewMemoryLikeStore()

	return &engineFixture{
		engine:  NewEngine(fetcher, mutator, likes, renderer, pipeline, logger, tracer),
		fetcher: fetcher,
		mutator: mutator,
		likes:   likes,
	}
}

func TestStartFetchesInitialGridPair(t *testing.T) {
	fx := newFixture(t, newFakeFetcher(7, 10), nil, nil)

	view, err := fx.engine.Start(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.ViewModeGrid, view.Mode)
	assert.Equal(t, 1, view.LogicalPage)
	assert.Equal(t, 4, view.TotalLogicalPages)
	assert.Equal(t, 7, view.TotalAPIPages)
	assert.Len(t, view.Records, 20)

	assert.Equal(t, 1, fx.fetcher.count(1))
	assert.Equal(t, 1, fx.fetcher.count(2))

	// Grid order: page 1 records first, then page 2
	assert.Equal(t, "img-1-0", view.Records[0].ID)
	assert.Equal(t, "img-2-0", view.Records[10].ID)
}

func TestNavigationFetchesEachPageOnce(t *testing.T) {
	fx := newFixture(t, newFakeFetcher(7, 10), nil, nil)
	ctx := context.Background()

	_, err := fx.engine.Start(ctx)
	require.NoError(t, err)

	view, err := fx.engine.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, view.LogicalPage)
	assert.Equal(t, 1, fx.fetcher.count(3))
	assert.Equal(t, 1, fx.fetcher.count(4))

	// Going back and forth fetches nothing
	_, err = fx.engine.Prev(ctx)
	require.NoError(t, err)
	view, err = fx.engine.Next(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, view.LogicalPage)
	for page := 1; page <= 4; page++ {
		assert.Equal(t, 1, fx.fetcher.count(page), "page %d", page)
	}
}

func TestNavigationBoundaries(t *testing.T) {
	fx := newFixture(t, newFakeFetcher(7, 10), nil, nil)
	ctx := context.Background()

	_, err := fx.engine.Start(ctx)
	require.NoError(t, err)

	// Prev at page 1 stays put
	view, err := fx.engine.Prev(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, view.LogicalPage)

	// Past-the-end jump clamps to the last logical page
	view, err = fx.engine.GotoPage(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, 4, view.LogicalPage)

	// Next at the last page stays put and fetches nothing new
	before := fx.fetcher.count(7)
	view, err = fx.engine.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, view.LogicalPage)
	assert.Equal(t, before, fx.fetcher.count(7))
}

func TestGridLastPageHasSingleAPIPage(t *testing.T) {
	// 7 API pages: grid logical page 4 wants {7, 8}; the feed clamps the
	// page 8 request onto page 7, which is already cached.
	fx := newFixture(t, newFakeFetcher(7, 10), nil, nil)
	ctx := context.Background()

	_, err := fx.engine.Start(ctx)
	require.NoError(t, err)

	view, err := fx.engine.GotoPage(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, view.LogicalPage)
	assert.Len(t, view.Records, 10)
	assert.Equal(t, "img-7-0", view.Records[0].ID)
}

func TestViewModeSwitchTranslation(t *testing.T) {
	fx := newFixture(t, newFakeFetcher(7, 10), nil, nil)
	ctx := context.Background()

	_, err := fx.engine.Start(ctx)
	require.NoError(t, err)

	// Grid page 1 (20 records) -> carousel page 1 (10 records)
	view, err := fx.engine.SetViewMode(ctx, domain.ViewModeCarousel)
	require.NoError(t, err)
	assert.Equal(t, domain.ViewModeCarousel, view.Mode)
	assert.Equal(t, 1, view.LogicalPage)
	assert.Equal(t, 7, view.TotalLogicalPages)
	assert.Len(t, view.Records, 10)

	// Carousel page 4 -> grid page 2 (pages 3+4)
	_, err = fx.engine.GotoPage(ctx, 4)
	require.NoError(t, err)

	view, err = fx.engine.SetViewMode(ctx, domain.ViewModeGrid)
	require.NoError(t, err)
	assert.Equal(t, 2, view.LogicalPage)
	assert.Len(t, view.Records, 20)
	assert.Equal(t, "img-3-0", view.Records[0].ID)

	// Unknown mode is rejected
	_, err = fx.engine.SetViewMode(ctx, domain.ViewMode("mosaic"))
	require.ErrorIs(t, err, domain.ErrUnknownViewMode)
}

func TestCategoryFilter(t *testing.T) {
	fetcher := newFakeFetcher(4, 10)
	fetcher.withMeta[1] = true
	fx := newFixture(t, fetcher, nil, nil)
	ctx := context.Background()

	_, err := fx.engine.Start(ctx)
	require.NoError(t, err)

	// All: both pages visible
	view := fx.engine.CurrentView()
	assert.Len(t, view.Records, 20)

	// Specific category: only page 1's categorised records
	view = fx.engine.SetCategory(ctx, "Category-1")
	assert.Len(t, view.Records, 10)
	assert.Equal(t, "img-1-0", view.Records[0].ID)

	// Uncategorised: only page 2's records
	view = fx.engine.SetCategory(ctx, domain.CategoryUncategorised)
	assert.Len(t, view.Records, 10)
	assert.Equal(t, "img-2-0", view.Records[0].ID)

	// Back to All
	view = fx.engine.SetCategory(ctx, domain.CategoryAll)
	assert.Len(t, view.Records, 20)

	// Buttons: fixed entries first, then the discovered category
	require.GreaterOrEqual(t, len(view.Categories), 3)
	assert.Equal(t, domain.CategoryAll, view.Categories[0].Slug)
	assert.True(t, view.Categories[0].Active)
	assert.Equal(t, domain.CategoryUncategorised, view.Categories[1].Slug)
	assert.Equal(t, "Category-1", view.Categories[2].Slug)
	assert.Equal(t, "Category 1", view.Categories[2].Label)
	assert.NotEmpty(t, view.Categories[2].Color)
}

func TestToggleLikeRoundTrip(t *testing.T) {
	fx := newFixture(t, newFakeFetcher(4, 10), nil, nil)
	ctx := context.Background()

	_, err := fx.engine.Start(ctx)
	require.NoError(t, err)

	view, err := fx.engine.ToggleLike(ctx, "img-1-0")
	require.NoError(t, err)
	assert.Equal(t, 6, view.Records[0].LikesCount)
	assert.True(t, fx.engine.Liked("img-1-0"))

	liked, err := fx.likes.Contains(ctx, "img-1-0")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, "POST img-1-0", fx.mutator.wait(t))

	view, err = fx.engine.ToggleLike(ctx, "img-1-0")
	require.NoError(t, err)
	assert.Equal(t, 5, view.Records[0].LikesCount)
	assert.False(t, fx.engine.Liked("img-1-0"))

	liked, err = fx.likes.Contains(ctx, "img-1-0")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, "DELETE img-1-0", fx.mutator.wait(t))

	_, err = fx.engine.ToggleLike(ctx, "no-such-record")
	require.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestStartLoadsPersistedLikes(t *testing.T) {
	fx := newFixture(t, newFakeFetcher(4, 10), nil, nil)
	ctx := context.Background()

	require.NoError(t, fx.likes.Add(ctx, "img-1-3"))

	_, err := fx.engine.Start(ctx)
	require.NoError(t, err)

	assert.True(t, fx.engine.Liked("img-1-3"))

	// Toggling a preloaded like unlikes it
	view, err := fx.engine.ToggleLike(ctx, "img-1-3")
	require.NoError(t, err)
	assert.Equal(t, 4, view.Records[3].LikesCount)
	assert.Equal(t, "DELETE img-1-3", fx.mutator.wait(t))
}

func TestStaleNavigationDiscarded(t *testing.T) {
	fetcher := newFakeFetcher(7, 10)
	fx := newFixture(t, fetcher, nil, nil)
	ctx := context.Background()

	_, err := fx.engine.Start(ctx)
	require.NoError(t, err)

	_, err = fx.engine.SetViewMode(ctx, domain.ViewModeCarousel)
	require.NoError(t, err)

	// First navigation stalls on its fetch
	gate := fetcher.block(3)
	slow := make(chan *domain.View, 1)
	go func() {
		view, err := fx.engine.GotoPage(ctx, 3)
		require.NoError(t, err)
		slow <- view
	}()

	require.Eventually(t, func() bool { return fetcher.count(3) == 1 },
		time.Second, time.Millisecond)

	// Second navigation wins while the first is in flight
	view, err := fx.engine.GotoPage(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, view.LogicalPage)

	close(gate)
	stale := <-slow

	// The superseded navigation keeps the winner's position
	assert.Equal(t, 5, stale.LogicalPage)
	assert.Equal(t, 5, fx.engine.CurrentView().LogicalPage)

	// But its fetched page stayed cached: revisiting does not refetch
	_, err = fx.engine.GotoPage(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.count(3))
}

func TestRendererSeesFilteredView(t *testing.T) {
	fetcher := newFakeFetcher(4, 10)
	fetcher.withMeta[1] = true

	var mu sync.Mutex
	var last *domain.View
	renderer := domain.RendererFunc(func(_ context.Context, view *domain.View) {
		mu.Lock()
		last = view
		mu.Unlock()
	})

	fx := newFixture(t, fetcher, nil, renderer)
	ctx := context.Background()

	_, err := fx.engine.Start(ctx)
	require.NoError(t, err)

	fx.engine.SetCategory(ctx, domain.CategoryUncategorised)

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, last)
	assert.Len(t, last.Records, 10)
	for _, rec := range last.Records {
		assert.False(t, rec.HasMetadata())
	}
}

// pageCountGenerator answers every batch with one synthesized entry per
// image, like a well-behaved vision backend.
type pageCountGenerator struct{}

func (pageCountGenerator) Generate(_ context.Context, batches []backfill.PageBatch) ([]backfill.PageResult, error) {
	var results []backfill.PageResult
	for _, b := range batches {
		res := backfill.PageResult{Page: b.PageNumber}
		for range b.Items {
			res.Data = append(res.Data, domain.Metadata{
				Category:    "Generated",
				Description: "a generated description",
				AuthorName:  "Gen Author",
			})
		}
		results = append(results, res)
	}
	return results, nil
}

func TestBackfillUpdatesViewAndCategories(t *testing.T) {
	imgSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg"))
	}))
	defer imgSrv.Close()

	fetcher := newFakeFetcher(4, 3)
	fetcher.imageBase = imgSrv.URL

	fx := newFixture(t, fetcher, pageCountGenerator{}, nil)
	ctx := context.Background()

	_, err := fx.engine.Start(ctx)
	require.NoError(t, err)

	require.NoError(t, fx.engine.StartBackfill(ctx))

	require.Eventually(t, func() bool {
		s := fx.engine.BackfillStatus()
		return !s.Running && s.State == domain.BackfillSuccess
	}, 5*time.Second, 10*time.Millisecond)

	view := fx.engine.CurrentView()
	for _, rec := range view.Records {
		require.True(t, rec.HasMetadata(), "record %s", rec.ID)
		assert.Equal(t, "Generated", rec.Metadata.Category)
	}

	slugs := make([]string, 0, len(view.Categories))
	for _, b := range view.Categories {
		slugs = append(slugs, b.Slug)
	}
	assert.Contains(t, slugs, "Generated")
}
