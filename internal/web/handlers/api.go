package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	domain "feed-gallery/internal/domain/gallery"
)

// ErrorResponse is the JSON error body for every API failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) viewHandler(w http.ResponseWriter, r *http.Request) {
	h.writeView(w, h.engine.CurrentView())
}

func (h *Handler) navNextHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.engine.Next(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeView(w, view)
}

func (h *Handler) navPrevHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.engine.Prev(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeView(w, view)
}

func (h *Handler) navPageHandler(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 {
		h.writeStatus(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}

	view, err := h.engine.GotoPage(r.Context(), n)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeView(w, view)
}

func (h *Handler) viewModeHandler(w http.ResponseWriter, r *http.Request) {
	mode := domain.ViewMode(chi.URLParam(r, "mode"))

	view, err := h.engine.SetViewMode(r.Context(), mode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeView(w, view)
}

func (h *Handler) categoryHandler(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	h.writeView(w, h.engine.SetCategory(r.Context(), slug))
}

func (h *Handler) likeHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	view, err := h.engine.ToggleLike(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeView(w, view)
}

func (h *Handler) backfillHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.StartBackfill(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(h.engine.BackfillStatus())
}

func (h *Handler) backfillStatusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.engine.BackfillStatus())
}

func (h *Handler) writeView(w http.ResponseWriter, view *domain.View) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *Handler) writeStatus(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// writeError maps engine errors onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fetchErr *domain.FetchError

	switch {
	case errors.Is(err, domain.ErrUnknownViewMode):
		h.writeStatus(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrRecordNotFound):
		h.writeStatus(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrBackfillInProgress):
		h.writeStatus(w, http.StatusConflict, err.Error())
	case errors.As(err, &fetchErr), errors.Is(err, domain.ErrInvalidResponseFormat):
		h.logger.Error(r.Context()).Err(err).Msg("feed request failed")
		h.writeStatus(w, http.StatusBadGateway, "the image feed is unavailable")
	default:
		h.logger.Error(r.Context()).Err(err).Msg("request failed")
		h.writeStatus(w, http.StatusInternalServerError, "internal error")
	}
}
