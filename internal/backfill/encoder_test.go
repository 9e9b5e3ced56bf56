package backfill

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"feed-gallery/internal/config"
	"feed-gallery/internal/domain/gallery"
	"feed-gallery/internal/observability"
)

func newTestEncoder() *Encoder {
	return NewEncoder(
		config.BackfillConfig{
			Workers:        4,
			ImageTimeout:   5 * time.Second,
			EncodeCacheTTL: time.Minute,
		},
		observability.NewTestLogger(),
		nooptrace.NewTracerProvider().Tracer("test"),
	)
}

func pageWithURLs(number int, urls ...string) *gallery.Page {
	p := &gallery.Page{Number: number}
	for i, u := range urls {
		p.Records = append(p.Records, &gallery.ImageRecord{
			ID:       string(rune('a' + i)),
			ImageURL: u,
		})
	}
	return p
}

func TestEncodePagePreservesRecordIndexes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes-" + r.URL.Path))
	}))
	defer srv.Close()

	page := pageWithURLs(3,
		srv.URL+"/one.jpg",
		srv.URL+"/missing.jpg",
		srv.URL+"/three.jpg",
	)

	batch := newTestEncoder().EncodePage(context.Background(), page)

	assert.Equal(t, 3, batch.PageNumber)
	require.Len(t, batch.Items, 2)
	assert.Equal(t, 0, batch.Items[0].RecordIndex)
	assert.Equal(t, 2, batch.Items[1].RecordIndex)
	assert.Equal(t, "image/jpeg", batch.Items[0].MIMEType)
	assert.Equal(t, []byte("jpeg-bytes-/one.jpg"), batch.Items[0].Data)
	assert.Equal(t, []byte("jpeg-bytes-/three.jpg"), batch.Items[1].Data)
}

func TestEncodePageRejectsNonImageContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>not an image</html>"))
	}))
	defer srv.Close()

	batch := newTestEncoder().EncodePage(context.Background(), pageWithURLs(1, srv.URL+"/fake.jpg"))
	assert.Empty(t, batch.Items)
}

func TestEncodePageCachesByURL(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	enc := newTestEncoder()
	page := pageWithURLs(1, srv.URL+"/same.png")

	first := enc.EncodePage(context.Background(), page)
	second := enc.EncodePage(context.Background(), page)

	require.Len(t, first.Items, 1)
	require.Len(t, second.Items, 1)
	assert.Equal(t, first.Items[0].Data, second.Items[0].Data)
	assert.Equal(t, int32(1), hits.Load())
}
