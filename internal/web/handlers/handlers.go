// Package handlers is the HTTP presentation surface: a JSON API over the
// gallery engine plus a minimal HTML shell that drives it.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"feed-gallery/internal/gallery"
	"feed-gallery/internal/observability"
	"feed-gallery/internal/services"
)

type Handler struct {
	engine    *gallery.Engine
	logger    *observability.Logger
	container *services.Container
}

// NewWithContainer creates the handler from the DI container.
func NewWithContainer(container *services.Container) *Handler {
	return &Handler{
		engine:    container.Engine(),
		logger:    container.Logger(),
		container: container,
	}
}

// New creates a handler directly from an engine and logger. Used by tests
// that do not want a full container.
func New(engine *gallery.Engine, logger *observability.Logger) *Handler {
	return &Handler{
		engine: engine,
		logger: logger,
	}
}

func (h *Handler) Routes() http.Handler {
	return h.routes(nil)
}

// RoutesWithMetrics wires the HTTP metrics middleware in front of the
// router.
func (h *Handler) RoutesWithMetrics(metrics *observability.HTTPMetrics) http.Handler {
	return h.routes(metrics)
}

func (h *Handler) routes(metrics *observability.HTTPMetrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if metrics != nil {
		r.Use(observability.MetricsMiddleware(metrics))
	}

	// Web routes
	r.Get("/", h.indexHandler)

	// Health probes
	r.Get("/healthz", h.healthzHandler)
	r.Get("/readyz", h.readyzHandler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/view", h.viewHandler)
		r.Route("/nav", func(r chi.Router) {
			r.Post("/next", h.navNextHandler)
			r.Post("/prev", h.navPrevHandler)
			r.Post("/page/{n}", h.navPageHandler)
		})
		r.Post("/view-mode/{mode}", h.viewModeHandler)
		r.Post("/category/{slug}", h.categoryHandler)
		r.Post("/images/{id}/like", h.likeHandler)
		r.Post("/backfill", h.backfillHandler)
		r.Get("/backfill/status", h.backfillStatusHandler)
	})

	return r
}

func (h *Handler) indexHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(`
<!DOCTYPE html>
<html>
<head>
    <title>Feed Gallery</title>
    <link href="https://cdn.jsdelivr.net/npm/tailwindcss@2.2.19/dist/tailwind.min.css" rel="stylesheet">
</head>
<body class="bg-gray-100">
    <div class="container mx-auto px-4 py-8">
        <div class="flex items-center justify-between mb-6">
            <h1 class="text-3xl font-bold">Feed Gallery</h1>
            <div class="space-x-2">
                <button onclick="setMode('grid')" class="bg-blue-500 text-white px-3 py-1 rounded">Grid</button>
                <button onclick="setMode('carousel')" class="bg-blue-500 text-white px-3 py-1 rounded">Carousel</button>
                <button onclick="post('/api/backfill').then(refresh)" class="bg-purple-500 text-white px-3 py-1 rounded">Generate metadata</button>
            </div>
        </div>
        <div id="categories" class="flex flex-wrap gap-2 mb-4"></div>
        <div id="status" class="text-sm text-gray-500 mb-4"></div>
        <div id="gallery" class="grid grid-cols-1 md:grid-cols-3 lg:grid-cols-5 gap-4"></div>
        <div class="flex items-center justify-center gap-4 mt-6">
            <button onclick="post('/api/nav/prev').then(render)" class="bg-gray-700 text-white px-4 py-2 rounded">Prev</button>
            <span id="pager" class="text-gray-700"></span>
            <button onclick="post('/api/nav/next').then(render)" class="bg-gray-700 text-white px-4 py-2 rounded">Next</button>
        </div>
    </div>
    <script>
        function post(url) { return fetch(url, {method: 'POST'}).then(r => r.json()); }
        function refresh() { return fetch('/api/view').then(r => r.json()).then(render); }
        function setMode(mode) { post('/api/view-mode/' + mode).then(render); }
        function setCategory(slug) { post('/api/category/' + slug).then(render); }
        function like(id) { post('/api/images/' + id + '/like').then(render); }
        function render(view) {
            document.getElementById('pager').textContent =
                'Page ' + view.logical_page + ' / ' + (view.total_logical_pages || '?') + ' (' + view.view_mode + ')';
            document.getElementById('status').textContent =
                view.backfill.running ? view.backfill.message + ' ' + '.'.repeat(view.backfill.tick % 4) : view.backfill.message;
            document.getElementById('categories').innerHTML = view.categories.map(c =>
                '<button onclick="setCategory(\'' + c.slug + '\')" style="background:' + c.color + '"' +
                ' class="text-white px-2 py-1 rounded text-sm' + (c.active ? ' ring-2 ring-black' : '') + '">' + c.label + '</button>'
            ).join('');
            document.getElementById('gallery').innerHTML = view.records.map(rec =>
                '<div class="bg-white rounded-lg shadow-md overflow-hidden">' +
                '<img src="' + rec.image_url + '" class="w-full h-40 object-cover">' +
                '<div class="p-3">' +
                (rec.metadata ? '<p class="text-sm font-medium">' + rec.metadata.category + '</p>' +
                    '<p class="text-xs text-gray-500">' + rec.metadata.description + '</p>' +
                    '<p class="text-xs text-gray-400">' + rec.metadata.authorName + '</p>' :
                    '<p class="text-xs text-gray-400">No metadata yet</p>') +
                '<button onclick="like(\'' + rec.id + '\')" class="text-sm mt-2">&#10084; ' + rec.likes_count + '</button>' +
                '</div></div>'
            ).join('');
            if (view.backfill.running) setTimeout(refresh, 700);
        }
        refresh();
    </script>
</body>
</html>
	`))
}
