package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/alumni-informatik/events-server/internal/storage/jsonfile"
)

// FeedHandler serves the public event feed at /events.json. The stored
// document bytes are served verbatim, so the feed is exactly what the
// admin mutations persisted: pretty-printed, sorted by start, with
// slashes and non-ASCII text unescaped.
type FeedHandler struct {
	Store *jsonfile.Store
}

func NewFeedHandler(store *jsonfile.Store) *FeedHandler {
	return &FeedHandler{Store: store}
}

func (h *FeedHandler) ServeFeed(w http.ResponseWriter, r *http.Request) {
	data, err := h.Store.ReadRaw(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to read event feed")
		http.Error(w, "Failed to load events", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	// Clients poll this for the landing page; always revalidate.
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
