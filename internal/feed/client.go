// Package feed talks to the external image feed API: paginated image
// listings plus the best-effort like/unlike mutation endpoints.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"feed-gallery/internal/config"
	"feed-gallery/internal/domain/gallery"
	"feed-gallery/internal/observability"
)

// Client fetches feed pages and posts like mutations. It performs no
// caching itself; the gallery engine decides when a page actually needs
// the network.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *observability.Logger
	tracer  trace.Tracer

	fetchCount    metric.Int64Counter
	fetchDuration metric.Float64Histogram
}

// envelope is the feed API page response:
// { page: number, total_pages: number, data: ImageRecord[] }.
// Data stays raw so that a missing or non-array value can be told apart
// from an empty page.
type envelope struct {
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
	Data       json.RawMessage `json:"data"`
}

// recordDTO is the wire shape of one image record. The optional metadata
// fields are flat on the wire; they are folded into a single Metadata
// value on the domain record so "missing metadata" is one explicit state.
type recordDTO struct {
	ID          string            `json:"id"`
	ImageURL    string            `json:"image_url"`
	LikesCount  int               `json:"likes_count"`
	Comments    []gallery.Comment `json:"comments"`
	Category    string            `json:"category"`
	Description string            `json:"description"`
	AuthorName  string            `json:"authorName"`
}

func (d recordDTO) toDomain() *gallery.ImageRecord {
	rec := &gallery.ImageRecord{
		ID:         d.ID,
		ImageURL:   d.ImageURL,
		LikesCount: d.LikesCount,
		Comments:   d.Comments,
	}
	if d.Category != "" {
		rec.Metadata = &gallery.Metadata{
			Category:    d.Category,
			Description: d.Description,
			AuthorName:  d.AuthorName,
		}
	}
	return rec
}

// NewClient creates a feed client. The meter may be a no-op meter; the
// client degrades to uninstrumented operation if instrument creation fails.
func NewClient(cfg config.FeedConfig, logger *observability.Logger, tracer trace.Tracer, meter metric.Meter) *Client {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("feed")
	}

	c := &Client{
		baseURL: cfg.BaseURL,
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
		tracer: tracer,
	}

	if meter != nil {
		var err error
		c.fetchCount, err = meter.Int64Counter(
			"feed.fetch.count",
			metric.WithDescription("Total number of feed page fetches"),
			metric.WithUnit("{fetch}"),
		)
		if err != nil {
			logger.Warn(context.Background()).Err(err).Msg("failed to create feed fetch counter")
		}
		c.fetchDuration, err = meter.Float64Histogram(
			"feed.fetch.duration",
			metric.WithDescription("Duration of feed page fetches"),
			metric.WithUnit("s"),
		)
		if err != nil {
			logger.Warn(context.Background()).Err(err).Msg("failed to create feed fetch histogram")
		}
	}

	return c
}

// FetchPage issues one GET for the given API page number and returns the
// decoded page plus the feed's total page count. The returned page carries
// the server-echoed page number, which is what the cache must key on.
func (c *Client) FetchPage(ctx context.Context, pageNumber int) (*gallery.Page, int, error) {
	ctx, span := c.tracer.Start(ctx, "feed.FetchPage",
		trace.WithAttributes(attribute.Int("feed.page", pageNumber)))
	defer span.End()

	start := time.Now()
	page, total, err := c.fetchPage(ctx, pageNumber)

	if c.fetchDuration != nil {
		c.fetchDuration.Record(ctx, time.Since(start).Seconds())
	}
	if c.fetchCount != nil {
		c.fetchCount.Add(ctx, 1, metric.WithAttributes(
			attribute.Bool("feed.fetch.error", err != nil)))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, err
	}

	c.logger.Debug(ctx).
		Int("page", page.Number).
		Int("records", len(page.Records)).
		Int("total_pages", total).
		Msg("fetched feed page")

	return page, total, nil
}

func (c *Client) fetchPage(ctx context.Context, pageNumber int) (*gallery.Page, int, error) {
	url := fmt.Sprintf("%s/images?page=%d", c.baseURL, pageNumber)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build feed request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, 0, &gallery.FetchError{URL: url, Status: resp.StatusCode}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", gallery.ErrInvalidResponseFormat, err)
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, 0, fmt.Errorf("%w: missing data array", gallery.ErrInvalidResponseFormat)
	}

	var dtos []recordDTO
	if err := json.Unmarshal(env.Data, &dtos); err != nil {
		return nil, 0, fmt.Errorf("%w: data is not an array of records: %v", gallery.ErrInvalidResponseFormat, err)
	}

	// Trust the server's echoed page number over the requested one
	number := env.Page
	if number < 1 {
		number = pageNumber
	}

	page := &gallery.Page{
		Number:  number,
		Records: make([]*gallery.ImageRecord, 0, len(dtos)),
	}
	for _, d := range dtos {
		page.Records = append(page.Records, d.toDomain())
	}

	return page, env.TotalPages, nil
}

// Like posts a like for the given image id. Best effort: callers treat a
// returned error as log-only.
func (c *Client) Like(ctx context.Context, id string) error {
	return c.mutateLike(ctx, http.MethodPost, id)
}

// Unlike removes a like for the given image id. Best effort, like Like.
func (c *Client) Unlike(ctx context.Context, id string) error {
	return c.mutateLike(ctx, http.MethodDelete, id)
}

func (c *Client) mutateLike(ctx context.Context, method, id string) error {
	ctx, span := c.tracer.Start(ctx, "feed.mutateLike",
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("feed.image_id", id)))
	defer span.End()

	url := fmt.Sprintf("%s/likes/%s", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build like request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("like request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := &gallery.FetchError{URL: url, Status: resp.StatusCode}
		span.RecordError(err)
		return err
	}

	return nil
}
