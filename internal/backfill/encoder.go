// Package backfill implements the metadata backfill pipeline: it selects
// feed pages with records missing metadata, fetches and encodes their
// image bytes, sends them to the generative vision API in page-demarcated
// batches, and reconciles the response back onto the in-memory records
// without ever clobbering existing data.
package backfill

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"strings"
	"sync"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp" // webp decoding support

	"feed-gallery/internal/config"
	"feed-gallery/internal/domain/gallery"
	"feed-gallery/internal/observability"
)

// EncodedItem is one successfully fetched and encoded image, tagged with
// the index of its record within the source page. The index is what keeps
// positional correspondence intact when sibling images fail and drop out.
type EncodedItem struct {
	RecordIndex int
	MIMEType    string
	Data        []byte
}

// PageBatch is the encoded image set for one qualifying page.
type PageBatch struct {
	PageNumber int
	Items      []EncodedItem
}

type encodedImage struct {
	mimeType string
	data     []byte
}

// Encoder fetches image bytes and prepares them for the vision API.
// Encoded results are memoized in a TTL cache keyed by URL, so a rerun of
// the pipeline does not refetch images it already has.
type Encoder struct {
	http         *http.Client
	cache        *gocache.Cache
	workers      int
	maxDimension int
	logger       *observability.Logger
	tracer       trace.Tracer
}

// NewEncoder creates an encoder using the backfill configuration.
func NewEncoder(cfg config.BackfillConfig, logger *observability.Logger, tracer trace.Tracer) *Encoder {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	return &Encoder{
		http: &http.Client{
			Timeout: cfg.ImageTimeout,
		},
		cache:        gocache.New(cfg.EncodeCacheTTL, 2*cfg.EncodeCacheTTL),
		workers:      workers,
		maxDimension: cfg.MaxImageDimension,
		logger:       logger,
		tracer:       tracer,
	}
}

// EncodePage fetches and encodes every image on the page, complete records
// included: the vision API's schema relies on whole-page batches for
// positional correspondence. Fetches fan out over a bounded worker pool;
// a failed image is logged and dropped without affecting its siblings.
func (e *Encoder) EncodePage(ctx context.Context, page *gallery.Page) PageBatch {
	ctx, span := e.tracer.Start(ctx, "backfill.EncodePage",
		trace.WithAttributes(attribute.Int("feed.page", page.Number)))
	defer span.End()

	results := make([]*encodedImage, len(page.Records))

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.workers)

	for i, rec := range page.Records {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, url string) {
			defer wg.Done()
			defer func() { <-sem }()

			img, err := e.fetchEncode(ctx, url)
			if err != nil {
				e.logger.Warn(ctx).
					Err(err).
					Str("url", url).
					Int("page", page.Number).
					Msg("image dropped from backfill batch")
				return
			}
			results[i] = img
		}(i, rec.ImageURL)
	}
	wg.Wait()

	batch := PageBatch{PageNumber: page.Number}
	for i, img := range results {
		if img == nil {
			continue
		}
		batch.Items = append(batch.Items, EncodedItem{
			RecordIndex: i,
			MIMEType:    img.mimeType,
			Data:        img.data,
		})
	}

	span.SetAttributes(
		attribute.Int("backfill.images_sent", len(batch.Items)),
		attribute.Int("backfill.images_dropped", len(page.Records)-len(batch.Items)),
	)

	return batch
}

func (e *Encoder) fetchEncode(ctx context.Context, url string) (*encodedImage, error) {
	if cached, ok := e.cache.Get(url); ok {
		return cached.(*encodedImage), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &gallery.ImageFetchError{URL: url, Err: err}
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, &gallery.ImageFetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &gallery.ImageFetchError{URL: url, Status: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, &gallery.ImageFetchError{URL: url, ContentType: contentType}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &gallery.ImageFetchError{URL: url, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	img := e.downscale(ctx, data, contentType, url)
	e.cache.Set(url, img, gocache.DefaultExpiration)

	return img, nil
}

// downscale re-encodes images larger than the configured dimension as JPEG
// to keep vision request payloads small. Undecodable bytes pass through
// unchanged; the API gets to decide what to do with them.
func (e *Encoder) downscale(ctx context.Context, data []byte, contentType, url string) *encodedImage {
	original := &encodedImage{mimeType: contentType, data: data}
	if e.maxDimension <= 0 {
		return original
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		e.logger.Debug(ctx).Err(err).Str("url", url).Msg("image not decodable, sending original bytes")
		return original
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= e.maxDimension && height <= e.maxDimension {
		return original
	}

	scale := float64(e.maxDimension) / float64(width)
	if height > width {
		scale = float64(e.maxDimension) / float64(height)
	}
	dstWidth := int(float64(width) * scale)
	dstHeight := int(float64(height) * scale)

	dst := image.NewRGBA(image.Rect(0, 0, dstWidth, dstHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err != nil {
		e.logger.Debug(ctx).Err(err).Str("url", url).Msg("downscale encode failed, sending original bytes")
		return original
	}

	return &encodedImage{mimeType: "image/jpeg", data: buf.Bytes()}
}
