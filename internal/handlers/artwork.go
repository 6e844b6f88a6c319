package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/litartclub/gallery/httpx"
	"github.com/litartclub/gallery/internal/models"
	"github.com/litartclub/gallery/internal/services"
	"github.com/litartclub/gallery/internal/session"
	"github.com/litartclub/gallery/internal/storage"
	"github.com/litartclub/gallery/view"
)

// LiveFeed delivers newly inserted artworks to stream subscribers.
type LiveFeed interface {
	Subscribe() (<-chan models.Artwork, func())
}

type ArtworkHandler struct {
	artworks *services.ArtworkService
	feed     LiveFeed
}

func NewArtworkHandler(artworks *services.ArtworkService, feed LiveFeed) *ArtworkHandler {
	return &ArtworkHandler{artworks: artworks, feed: feed}
}

// Gallery lists artworks, optionally filtered and sorted by query params.
func (h *ArtworkHandler) Gallery(w http.ResponseWriter, r *http.Request) {
	all, err := h.artworks.List(r.Context())
	if err != nil {
		renderError(w, r, "gallery.html", http.StatusBadGateway, "Could not load the gallery. Please try again.")
		return
	}

	category := r.URL.Query().Get("category")
	sortKey := r.URL.Query().Get("sort")

	items := services.FilterByCategory(all, category)
	if sortKey != "" {
		items = services.SortBy(items, sortKey)
	}

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"artworks": items})
		return
	}
	view.Render(w, r, "gallery.html", map[string]any{
		"Artworks":   items,
		"Categories": models.Categories,
		"Category":   category,
		"Sort":       sortKey,
	})
}

// Upload renders the submission form and accepts the multipart POST.
func (h *ArtworkHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ident, ok := session.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if r.Method == http.MethodGet {
		view.Render(w, r, "upload.html", map[string]any{"Categories": models.Categories})
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		renderError(w, r, "upload.html", http.StatusBadRequest, "Invalid upload")
		return
	}

	price, _ := strconv.ParseFloat(r.FormValue("price"), 64)
	art := models.Artwork{
		Title:       r.FormValue("title"),
		Artist:      r.FormValue("artist"),
		Description: r.FormValue("description"),
		Category:    models.Category(r.FormValue("category")),
		Price:       price,
	}

	var image []byte
	if file, _, err := r.FormFile("image"); err == nil {
		defer file.Close()
		image, err = io.ReadAll(io.LimitReader(file, storage.MaxObjectSize+1))
		if err != nil {
			renderError(w, r, "upload.html", http.StatusBadRequest, "Could not read upload")
			return
		}
	}

	if violations := h.artworks.Validate(art, image); len(violations) > 0 {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "validation failed", violations)
			return
		}
		view.Render(w, r, "upload.html", map[string]any{
			"Error":      "Please fix the highlighted fields",
			"Violations": violations,
			"Artwork":    art,
			"Categories": models.Categories,
		})
		return
	}

	created, err := h.artworks.Upload(r.Context(), ident, art, image)
	if err != nil {
		renderError(w, r, "upload.html", http.StatusBadRequest, userMessage(err))
		return
	}

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, map[string]any{"artwork": created})
		return
	}
	http.Redirect(w, r, "/gallery", http.StatusSeeOther)
}

// Live streams newly inserted artworks as server-sent events.
func (h *ArtworkHandler) Live(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil {
		http.Error(w, "live feed unavailable", http.StatusServiceUnavailable)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch, cancel := h.feed.Subscribe()
	defer cancel()

	// The server's write timeout would cut the stream mid-flight;
	// lift it for this long-lived response.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case art, open := <-ch:
			if !open {
				return
			}
			payload, err := json.Marshal(art)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: artwork\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
