package backfill

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"feed-gallery/internal/domain/gallery"
	"feed-gallery/internal/observability"
)

// progressInterval drives the in-progress status tick. UI feedback only,
// no business logic hangs off it.
const progressInterval = 500 * time.Millisecond

// CommitFunc applies reconciled results to the live records. The engine
// supplies one that runs under its state lock; it returns the number of
// records actually updated.
type CommitFunc func(results []PageResult, batches []PageBatch) (int, error)

// Pipeline runs metadata backfill. A single run moves through
// Idle -> FetchingSource -> EncodingImages -> AwaitingAIResponse ->
// Reconciling -> (Success | PartialMismatch | Failed), and at most one run
// is in flight at a time.
type Pipeline struct {
	encoder  *Encoder
	gen      Generator
	validate *validator.Validate
	logger   *observability.Logger
	tracer   trace.Tracer

	runCount metric.Int64Counter

	mu       sync.Mutex
	status   gallery.BackfillStatus
	stopTick chan struct{}
}

// NewPipeline creates a pipeline. gen may be nil when the vision API is
// not configured; Run then fails with the SDK initialization error.
func NewPipeline(encoder *Encoder, gen Generator, logger *observability.Logger, tracer trace.Tracer, meter metric.Meter) *Pipeline {
	p := &Pipeline{
		encoder:  encoder,
		gen:      gen,
		validate: validator.New(),
		logger:   logger,
		tracer:   tracer,
		status:   gallery.BackfillStatus{State: gallery.BackfillIdle},
	}

	if meter != nil {
		var err error
		p.runCount, err = meter.Int64Counter(
			"backfill.run.count",
			metric.WithDescription("Total number of backfill runs by outcome"),
			metric.WithUnit("{run}"),
		)
		if err != nil {
			logger.Warn(context.Background()).Err(err).Msg("failed to create backfill run counter")
		}
	}

	return p
}

// Status returns a copy of the current run status.
func (p *Pipeline) Status() gallery.BackfillStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Running reports whether a run is in flight.
func (p *Pipeline) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status.Running
}

// Run executes one backfill over the given pages. Only pages with at least
// one record lacking metadata participate; those are sent whole. The commit
// callback is invoked exactly once, and only when every page's response
// counts match what was sent.
func (p *Pipeline) Run(ctx context.Context, pages []*gallery.Page, commit CommitFunc) error {
	if err := p.begin(); err != nil {
		return err
	}

	ctx, span := p.tracer.Start(ctx, "backfill.Run")
	defer span.End()

	err := p.run(ctx, span, pages, commit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	p.end(ctx, err)
	return err
}

func (p *Pipeline) run(ctx context.Context, span trace.Span, pages []*gallery.Page, commit CommitFunc) error {
	if p.gen == nil {
		p.setState(gallery.BackfillFailed, "AI metadata generation is not configured")
		return gallery.ErrSDKInit
	}

	p.setState(gallery.BackfillFetchingSource, "Selecting images without metadata...")

	var qualifying []*gallery.Page
	for _, page := range pages {
		if page.NeedsMetadata() {
			qualifying = append(qualifying, page)
		}
	}
	if len(qualifying) == 0 {
		p.setState(gallery.BackfillFailed, "All loaded images already have metadata")
		return gallery.ErrNoQualifyingImages
	}
	span.SetAttributes(attribute.Int("backfill.qualifying_pages", len(qualifying)))

	p.setState(gallery.BackfillEncodingImages, "Fetching and encoding images...")

	var batches []PageBatch
	imagesSent := 0
	for _, page := range qualifying {
		batch := p.encoder.EncodePage(ctx, page)
		if len(batch.Items) == 0 {
			p.logger.Warn(ctx).Int("page", page.Number).Msg("no images could be encoded for page")
			continue
		}
		batches = append(batches, batch)
		imagesSent += len(batch.Items)
	}
	if imagesSent == 0 {
		p.setState(gallery.BackfillFailed, "None of the images could be fetched")
		return gallery.ErrNoEncodedImages
	}
	span.SetAttributes(attribute.Int("backfill.images_sent", imagesSent))

	p.setState(gallery.BackfillAwaitingResponse,
		fmt.Sprintf("Generating metadata for %d images...", imagesSent))

	results, err := p.gen.Generate(ctx, batches)
	if err != nil {
		p.setState(gallery.BackfillFailed, "Metadata generation failed")
		return err
	}

	p.setState(gallery.BackfillReconciling, "Checking response against request...")

	if err := p.reconcile(batches, results); err != nil {
		p.setState(gallery.BackfillPartialMismatch,
			"The response did not cover every image; no changes were applied")
		return err
	}

	updated, err := commit(results, batches)
	if err != nil {
		p.setState(gallery.BackfillFailed, "Failed to apply generated metadata")
		return err
	}
	span.SetAttributes(attribute.Int("backfill.records_updated", updated))

	p.setState(gallery.BackfillSuccess,
		fmt.Sprintf("Generated metadata for %d images", updated))
	return nil
}

// reconcile enforces the all-or-nothing contract: every batch must have a
// result block for its page with exactly one well-formed metadata entry
// per image sent. A single violation voids the entire run.
func (p *Pipeline) reconcile(batches []PageBatch, results []PageResult) error {
	byPage := make(map[int]*PageResult, len(results))
	for i := range results {
		byPage[results[i].Page] = &results[i]
	}

	for _, batch := range batches {
		res, ok := byPage[batch.PageNumber]
		if !ok {
			return &gallery.AIResponseMismatchError{
				Page: batch.PageNumber,
				Sent: len(batch.Items),
			}
		}
		if len(res.Data) != len(batch.Items) {
			return &gallery.AIResponseMismatchError{
				Page:     batch.PageNumber,
				Sent:     len(batch.Items),
				Received: len(res.Data),
			}
		}
		for _, entry := range res.Data {
			if err := p.validate.Struct(entry); err != nil {
				return fmt.Errorf("page %d returned a malformed metadata entry: %w", batch.PageNumber, err)
			}
		}
	}

	return nil
}

// Apply writes reconciled results onto the page records by position,
// skipping every record that already carries metadata. Reruns only ever
// fill gaps. Returns the number of records updated. Callers are expected
// to hold whatever lock guards the records.
func Apply(pages map[int]*gallery.Page, results []PageResult, batches []PageBatch) int {
	byPage := make(map[int]*PageResult, len(results))
	for i := range results {
		byPage[results[i].Page] = &results[i]
	}

	updated := 0
	for _, batch := range batches {
		page, ok := pages[batch.PageNumber]
		if !ok {
			continue
		}
		res, ok := byPage[batch.PageNumber]
		if !ok || len(res.Data) != len(batch.Items) {
			continue
		}

		for i, item := range batch.Items {
			if item.RecordIndex < 0 || item.RecordIndex >= len(page.Records) {
				continue
			}
			rec := page.Records[item.RecordIndex]
			if rec.HasMetadata() {
				continue
			}
			meta := res.Data[i]
			rec.Metadata = &meta
			updated++
		}
	}

	return updated
}

func (p *Pipeline) begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status.Running {
		return gallery.ErrBackfillInProgress
	}

	p.status = gallery.BackfillStatus{
		State:   gallery.BackfillFetchingSource,
		Running: true,
	}
	p.stopTick = make(chan struct{})
	go p.tick(p.stopTick)

	return nil
}

// tick advances the progress indicator while a run is in flight.
func (p *Pipeline) tick(stop chan struct{}) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.mu.Lock()
			p.status.Tick++
			p.mu.Unlock()
		}
	}
}

func (p *Pipeline) end(ctx context.Context, runErr error) {
	p.mu.Lock()
	close(p.stopTick)
	p.stopTick = nil
	p.status.Running = false
	outcome := string(p.status.State)
	p.mu.Unlock()

	if p.runCount != nil {
		p.runCount.Add(ctx, 1, metric.WithAttributes(
			attribute.String("backfill.outcome", outcome)))
	}

	if runErr != nil {
		p.logger.Warn(ctx).Err(runErr).Str("outcome", outcome).Msg("backfill run finished")
		return
	}
	p.logger.Info(ctx).Str("outcome", outcome).Msg("backfill run finished")
}

func (p *Pipeline) setState(state gallery.BackfillState, message string) {
	p.mu.Lock()
	p.status.State = state
	p.status.Message = message
	p.mu.Unlock()
}
