// Package gallery holds the domain model for the paginated image gallery:
// image records and their optional AI-generated metadata, feed pages,
// view-mode arithmetic and category filtering. Everything in this package
// is pure and side-effect free.
package gallery

import (
	"errors"
	"fmt"
)

// ViewMode selects how the gallery presents loaded pages. Grid mode shows
// two API pages per view, carousel mode shows one.
type ViewMode string

const (
	ViewModeGrid     ViewMode = "grid"
	ViewModeCarousel ViewMode = "carousel"
)

// GridPagesPerView is the number of API pages a single grid view flattens.
const GridPagesPerView = 2

// Valid reports whether m is a known view mode.
func (m ViewMode) Valid() bool {
	return m == ViewModeGrid || m == ViewModeCarousel
}

// Comment is a single comment attached to an image record. Comments are
// immutable once loaded and owned by their record.
type Comment struct {
	CommenterName string `json:"commenter_name"`
	Comment       string `json:"comment"`
}

// Metadata is the AI-generated descriptive block for an image. A record
// either carries a complete Metadata value or none at all; the absence of
// metadata is what makes a record eligible for backfill.
type Metadata struct {
	Category    string `json:"category" validate:"required"`
	Description string `json:"description" validate:"required"`
	AuthorName  string `json:"authorName" validate:"required"`
}

// ImageRecord is one image in the feed. Identity is ID, globally unique
// across pages. Records are mutated in place by like toggling and metadata
// backfill and are never deleted during a session.
type ImageRecord struct {
	ID         string    `json:"id"`
	ImageURL   string    `json:"image_url"`
	LikesCount int       `json:"likes_count"`
	Comments   []Comment `json:"comments"`
	Metadata   *Metadata `json:"metadata,omitempty"`
}

// HasMetadata reports whether the record already carries generated
// metadata. Backfill never overwrites a record for which this is true.
func (r *ImageRecord) HasMetadata() bool {
	return r.Metadata != nil && r.Metadata.Category != ""
}

// Category returns the record's category, or the empty string when the
// record is uncategorised.
func (r *ImageRecord) Category() string {
	if r.Metadata == nil {
		return ""
	}
	return r.Metadata.Category
}

// Page is one fixed-size batch of records as returned by the feed API,
// keyed by the server-assigned page number.
type Page struct {
	Number  int
	Records []*ImageRecord
}

// NeedsMetadata reports whether any record on the page lacks metadata.
// Selection for backfill is page-level: a page with a single incomplete
// record is still sent in full to preserve positional correspondence.
func (p *Page) NeedsMetadata() bool {
	for _, r := range p.Records {
		if !r.HasMetadata() {
			return true
		}
	}
	return false
}

// Record returns the record with the given id, if present on the page.
func (p *Page) Record(id string) (*ImageRecord, bool) {
	for _, r := range p.Records {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// Domain errors
var (
	ErrInvalidResponseFormat = errors.New("invalid feed response format")
	ErrUnknownViewMode       = errors.New("unknown view mode")
	ErrPageOutOfRange        = errors.New("page out of range")
	ErrRecordNotFound        = errors.New("image record not found")
	ErrBackfillInProgress    = errors.New("backfill already in progress")
	ErrNoQualifyingImages    = errors.New("no images need metadata")
	ErrNoEncodedImages       = errors.New("no images could be encoded")
	ErrSDKInit               = errors.New("ai client initialization failed")
)

// FetchError is returned when the feed API answers with a non-2xx status.
type FetchError struct {
	URL    string
	Status int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("feed fetch failed: %s returned status %d", e.URL, e.Status)
}

// ImageFetchError is a localized per-image failure during backfill source
// fetching. It never aborts sibling images or other pages.
type ImageFetchError struct {
	URL         string
	Status      int
	ContentType string
	Err         error
}

func (e *ImageFetchError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("image fetch failed: %s: %v", e.URL, e.Err)
	case e.ContentType != "":
		return fmt.Sprintf("image fetch failed: %s has non-image content type %q", e.URL, e.ContentType)
	default:
		return fmt.Sprintf("image fetch failed: %s returned status %d", e.URL, e.Status)
	}
}

func (e *ImageFetchError) Unwrap() error { return e.Err }

// AIResponseMismatchError reports a shape violation between the images sent
// for a page and the metadata entries the AI returned for it. A single
// mismatch anywhere in the batch voids the entire run.
type AIResponseMismatchError struct {
	Page     int
	Sent     int
	Received int
}

func (e *AIResponseMismatchError) Error() string {
	return fmt.Sprintf("ai response mismatch: page %d sent %d images but received %d metadata entries", e.Page, e.Sent, e.Received)
}
