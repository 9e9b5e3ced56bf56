package gallery

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"feed-gallery/internal/backfill"
	domain "feed-gallery/internal/domain/gallery"
	"feed-gallery/internal/observability"
)

// likeMutationTimeout bounds the fire-and-forget like call to the feed.
const likeMutationTimeout = 10 * time.Second

// backfillRunTimeout bounds a whole backfill run, AI call included.
const backfillRunTimeout = 5 * time.Minute

// PageFetcher fetches one feed page. Implemented by feed.Client.
type PageFetcher interface {
	FetchPage(ctx context.Context, number int) (*domain.Page, int, error)
}

// LikeMutator posts like mutations to the feed. Implemented by feed.Client.
type LikeMutator interface {
	Like(ctx context.Context, id string) error
	Unlike(ctx context.Context, id string) error
}

// Engine drives one gallery session. All state mutation runs under a
// single mutex; fetches happen outside it so a slow feed never blocks
// reads. A generation counter, bumped by every navigation and view-mode
// switch, lets an in-flight fetch detect that it has been superseded and
// discard its render instead of clobbering the newer position.
type Engine struct {
	fetcher  PageFetcher
	mutator  LikeMutator
	likes    domain.LikeStore
	renderer domain.Renderer
	pipeline *backfill.Pipeline

	logger *observability.Logger
	tracer trace.Tracer

	generation atomic.Uint64

	mu    sync.Mutex
	state *State
	liked map[string]bool
}

// NewEngine wires the engine. renderer may be nil when no presentation
// surface wants push-style updates; views are then only pulled via
// CurrentView. The renderer is invoked under the engine lock and must not
// call back into the engine.
func NewEngine(
	fetcher PageFetcher,
	mutator LikeMutator,
	likes domain.LikeStore,
	renderer domain.Renderer,
	pipeline *backfill.Pipeline,
	logger *observability.Logger,
	tracer trace.Tracer,
) *Engine {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("gallery")
	}

	return &Engine{
		fetcher:  fetcher,
		mutator:  mutator,
		likes:    likes,
		renderer: renderer,
		pipeline: pipeline,
		logger:   logger,
		tracer:   tracer,
		state:    NewState(),
		liked:    make(map[string]bool),
	}
}

// Start loads the persisted liked set and brings the initial view up:
// grid mode, logical page 1.
func (e *Engine) Start(ctx context.Context) (*domain.View, error) {
	ids, err := e.likes.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load liked set: %w", err)
	}

	e.mu.Lock()
	for _, id := range ids {
		e.liked[id] = true
	}
	e.mu.Unlock()

	e.logger.Info(ctx).Int("liked", len(ids)).Msg("gallery session starting")

	return e.navigate(ctx, 1, true)
}

// Next advances one logical page. At the last page this is a no-op.
func (e *Engine) Next(ctx context.Context) (*domain.View, error) {
	return e.navigate(ctx, e.currentLogicalPage()+1, false)
}

// Prev steps back one logical page. At page 1 this is a no-op.
func (e *Engine) Prev(ctx context.Context) (*domain.View, error) {
	return e.navigate(ctx, e.currentLogicalPage()-1, false)
}

// GotoPage jumps to the given logical page, clamped to the known range.
func (e *Engine) GotoPage(ctx context.Context, n int) (*domain.View, error) {
	return e.navigate(ctx, n, false)
}

func (e *Engine) currentLogicalPage() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.logicalPage
}

// navigate moves to the target logical page. Already being there, with
// every required page loaded, is a no-op that returns the current view
// without touching the network. force makes the initial Start call fetch
// even though the target equals the starting position.
func (e *Engine) navigate(ctx context.Context, target int, force bool) (*domain.View, error) {
	ctx, span := e.tracer.Start(ctx, "gallery.navigate",
		trace.WithAttributes(attribute.Int("gallery.target_page", target)))
	defer span.End()

	e.mu.Lock()
	mode := e.state.mode
	target = domain.ClampLogicalPage(target, mode, e.state.totalAPIPages)
	missing := e.missingPagesLocked(target, mode)

	if target == e.state.logicalPage && len(missing) == 0 && !force {
		view := e.buildViewLocked()
		e.mu.Unlock()
		return view, nil
	}

	gen := e.generation.Add(1)
	e.mu.Unlock()

	fetched, err := e.fetchAll(ctx, missing)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, f := range fetched {
		e.state.Put(f.page, f.total)
	}

	// A newer navigation or mode switch won while this fetch was in
	// flight; the cache keeps the pages but the position stays theirs.
	if e.generation.Load() != gen {
		e.logger.Debug(ctx).Int("target", target).Msg("navigation superseded, render discarded")
		return e.buildViewLocked(), nil
	}

	e.state.logicalPage = domain.ClampLogicalPage(target, e.state.mode, e.state.totalAPIPages)
	return e.renderLocked(ctx), nil
}

// SetViewMode switches between grid and carousel, translating the logical
// page so the view keeps showing (part of) the same records. The mode
// change itself is committed immediately; only the fetch of a newly
// required sibling page happens outside the lock.
func (e *Engine) SetViewMode(ctx context.Context, mode domain.ViewMode) (*domain.View, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownViewMode, mode)
	}

	ctx, span := e.tracer.Start(ctx, "gallery.SetViewMode",
		trace.WithAttributes(attribute.String("gallery.view_mode", string(mode))))
	defer span.End()

	e.mu.Lock()
	if mode == e.state.mode {
		view := e.buildViewLocked()
		e.mu.Unlock()
		return view, nil
	}

	target := domain.TranslateLogicalPage(e.state.logicalPage, e.state.mode, mode)
	target = domain.ClampLogicalPage(target, mode, e.state.totalAPIPages)
	e.state.mode = mode
	e.state.logicalPage = target

	gen := e.generation.Add(1)
	missing := e.missingPagesLocked(target, mode)
	e.mu.Unlock()

	fetched, err := e.fetchAll(ctx, missing)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, f := range fetched {
		e.state.Put(f.page, f.total)
	}
	if e.generation.Load() != gen {
		return e.buildViewLocked(), nil
	}
	return e.renderLocked(ctx), nil
}

// SetCategory sets the active category filter and re-renders. Purely
// local: no fetch, no change to the logical page.
func (e *Engine) SetCategory(ctx context.Context, slug string) *domain.View {
	if slug == "" {
		slug = domain.CategoryAll
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.activeCategory = slug
	return e.renderLocked(ctx)
}

// ToggleLike flips the liked state of a record: +1 on the visible count
// when liking, -1 when unliking. The liked set is persisted synchronously;
// the feed-side mutation is fire-and-forget with failures logged only.
func (e *Engine) ToggleLike(ctx context.Context, id string) (*domain.View, error) {
	e.mu.Lock()

	rec, ok := e.state.Record(id)
	if !ok {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", domain.ErrRecordNotFound, id)
	}

	liking := !e.liked[id]
	if liking {
		e.liked[id] = true
		rec.LikesCount++
	} else {
		delete(e.liked, id)
		if rec.LikesCount > 0 {
			rec.LikesCount--
		}
	}

	view := e.renderLocked(ctx)
	e.mu.Unlock()

	if err := e.persistLike(ctx, id, liking); err != nil {
		e.logger.Warn(ctx).Err(err).Str("image_id", id).Msg("failed to persist liked set")
	}

	go e.mutateLike(id, liking)

	return view, nil
}

func (e *Engine) persistLike(ctx context.Context, id string, liking bool) error {
	if liking {
		return e.likes.Add(ctx, id)
	}
	return e.likes.Remove(ctx, id)
}

func (e *Engine) mutateLike(id string, liking bool) {
	ctx, cancel := context.WithTimeout(context.Background(), likeMutationTimeout)
	defer cancel()

	var err error
	if liking {
		err = e.mutator.Like(ctx, id)
	} else {
		err = e.mutator.Unlike(ctx, id)
	}
	if err != nil {
		e.logger.Warn(ctx).Err(err).Str("image_id", id).Bool("liking", liking).
			Msg("like mutation failed, local state kept")
	}
}

// StartBackfill kicks off a metadata backfill over every loaded page and
// returns immediately. ErrBackfillInProgress when a run is in flight;
// progress is observable via the view's backfill status.
func (e *Engine) StartBackfill(ctx context.Context) error {
	if e.pipeline.Running() {
		return domain.ErrBackfillInProgress
	}

	e.mu.Lock()
	pages := e.state.LoadedPages()
	e.mu.Unlock()

	e.logger.Info(ctx).Int("pages", len(pages)).Msg("backfill requested")

	go func() {
		runCtx, cancel := context.WithTimeout(context.Background(), backfillRunTimeout)
		defer cancel()

		// Errors surface through the pipeline status; nothing to do here.
		_ = e.pipeline.Run(runCtx, pages, e.commitBackfill)
	}()

	return nil
}

// commitBackfill applies reconciled metadata under the engine lock and
// re-renders so the category bar picks up the new categories.
func (e *Engine) commitBackfill(results []backfill.PageResult, batches []backfill.PageBatch) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	updated := backfill.Apply(e.state.pages, results, batches)
	e.renderLocked(context.Background())
	return updated, nil
}

// BackfillStatus returns the pipeline's current status.
func (e *Engine) BackfillStatus() domain.BackfillStatus {
	return e.pipeline.Status()
}

// CurrentView returns a snapshot of the current view without rendering.
func (e *Engine) CurrentView() *domain.View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buildViewLocked()
}

// Liked reports whether the local user has liked the given record.
func (e *Engine) Liked(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.liked[id]
}

func (e *Engine) missingPagesLocked(logicalPage int, mode domain.ViewMode) []int {
	var missing []int
	for _, n := range domain.RequiredAPIPages(logicalPage, mode) {
		if !e.state.Loaded(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

type fetchedPage struct {
	page  *domain.Page
	total int
}

// fetchAll fetches the missing pages sequentially. A grid pair is two
// requests; any failure aborts the navigation and leaves the cache as it
// was, so the next attempt retries.
func (e *Engine) fetchAll(ctx context.Context, missing []int) ([]fetchedPage, error) {
	var out []fetchedPage
	for _, n := range missing {
		page, total, err := e.fetcher.FetchPage(ctx, n)
		if err != nil {
			return nil, err
		}
		out = append(out, fetchedPage{page: page, total: total})
	}
	return out, nil
}

// buildViewLocked assembles the render input from current state: visible
// records for the mode and logical page, category-filtered before any
// surface sees them, plus the recomputed category buttons. Records are
// value copies; metadata writes swap the pointer rather than mutating
// through it, so a snapshot never changes after it is taken.
func (e *Engine) buildViewLocked() *domain.View {
	st := e.state

	visible := domain.VisibleRecords(st.pages, st.mode, st.logicalPage)
	filtered := domain.VisibleByCategory(visible, st.activeCategory)

	slugs := domain.DistinctCategories(st.allRecords())
	buttons := make([]domain.CategoryButton, 0, len(slugs))
	for _, slug := range slugs {
		buttons = append(buttons, domain.CategoryButton{
			Slug:   slug,
			Label:  domain.CategoryDisplay(slug),
			Color:  domain.CategoryColor(slug),
			Active: slug == st.activeCategory,
		})
	}

	records := make([]domain.ImageRecord, 0, len(filtered))
	for _, r := range filtered {
		records = append(records, *r)
	}

	return &domain.View{
		Mode:              st.mode,
		LogicalPage:       st.logicalPage,
		TotalLogicalPages: domain.TotalLogicalPages(st.mode, st.totalAPIPages),
		TotalAPIPages:     st.totalAPIPages,
		ActiveCategory:    st.activeCategory,
		Categories:        buttons,
		Records:           records,
		Backfill:          e.pipeline.Status(),
	}
}

// renderLocked builds the view and pushes it to the renderer.
func (e *Engine) renderLocked(ctx context.Context) *domain.View {
	view := e.buildViewLocked()
	if e.renderer != nil {
		e.renderer.Apply(ctx, view)
	}
	return view
}
