package testutils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"feed-gallery/internal/domain/gallery"
)

// FakeFeed is an httptest stand-in for the image feed API. It serves
// `GET /images?page=n` from a fixed page layout and records every like
// mutation it receives.
type FakeFeed struct {
	Server *httptest.Server

	TotalPages int
	PageSize   int

	// WithMetadata marks pages whose records come pre-categorised.
	WithMetadata map[int]bool

	mu         sync.Mutex
	fetches    map[int]int
	likeCalls  []string
	imageBase  string
}

// NewFakeFeed starts a fake feed with the given layout. Image URLs point
// at imageBase, typically a FakeImageHost.
func NewFakeFeed(t *testing.T, totalPages, pageSize int, imageBase string) *FakeFeed {
	t.Helper()

	f := &FakeFeed{
		TotalPages:   totalPages,
		PageSize:     pageSize,
		WithMetadata: make(map[int]bool),
		fetches:      make(map[int]int),
		imageBase:    imageBase,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/images", f.handleImages)
	mux.HandleFunc("/likes/", f.handleLikes)

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)

	return f
}

// URL returns the fake feed's base URL.
func (f *FakeFeed) URL() string { return f.Server.URL }

// Fetches returns how often the given page was requested.
func (f *FakeFeed) Fetches(page int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[page]
}

// LikeCalls returns the recorded like mutations as "METHOD id" strings.
func (f *FakeFeed) LikeCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.likeCalls...)
}

func (f *FakeFeed) handleImages(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	if page > f.TotalPages {
		// The feed clamps past-the-end requests onto its last page
		page = f.TotalPages
	}

	f.mu.Lock()
	f.fetches[page]++
	withMeta := f.WithMetadata[page]
	f.mu.Unlock()

	records := make([]map[string]any, 0, f.PageSize)
	for i := 0; i < f.PageSize; i++ {
		rec := map[string]any{
			"id":          RecordID(page, i),
			"image_url":   fmt.Sprintf("%s/p%d-%d.jpg", f.imageBase, page, i),
			"likes_count": page * 10,
			"comments":    []map[string]string{},
		}
		if withMeta {
			rec["category"] = fmt.Sprintf("Category %d", page)
			rec["description"] = "a preexisting description"
			rec["authorName"] = "Known Author"
		}
		records = append(records, rec)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"page":        page,
		"total_pages": f.TotalPages,
		"data":        records,
	})
}

func (f *FakeFeed) handleLikes(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/likes/")

	f.mu.Lock()
	f.likeCalls = append(f.likeCalls, r.Method+" "+id)
	f.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// RecordID is the deterministic id scheme the fake feed uses: page and
// intra-page index.
func RecordID(page, index int) string {
	return fmt.Sprintf("img-%d-%d", page, index)
}

// NewFakeImageHost serves small fake jpeg bytes for any path, so backfill
// tests have something to fetch.
func NewFakeImageHost(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg" + r.URL.Path))
	}))
	t.Cleanup(srv.Close)

	return srv
}

// NewRecord builds an image record for tests.
func NewRecord(id, imageURL string) *gallery.ImageRecord {
	return &gallery.ImageRecord{ID: id, ImageURL: imageURL}
}

// NewCategorisedRecord builds a record that already carries metadata.
func NewCategorisedRecord(id, category string) *gallery.ImageRecord {
	return &gallery.ImageRecord{
		ID: id,
		Metadata: &gallery.Metadata{
			Category:    category,
			Description: "a description",
			AuthorName:  "An Author",
		},
	}
}

// MakeJSONRequest creates an HTTP test request with a JSON body.
func MakeJSONRequest(method, url string, payload interface{}) *http.Request {
	var body io.Reader
	if payload != nil {
		jsonData, _ := json.Marshal(payload)
		body = bytes.NewReader(jsonData)
	}

	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", "application/json")

	return req
}

// DecodeJSONResponse unmarshals a recorded JSON response into target.
func DecodeJSONResponse(t *testing.T, resp *httptest.ResponseRecorder, target interface{}) {
	t.Helper()

	if ct := resp.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("expected JSON response, got %s (body: %s)", ct, resp.Body.String())
	}
	if err := json.Unmarshal(resp.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to unmarshal JSON response: %v (body: %s)", err, resp.Body.String())
	}
}
