package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alumni-informatik/events-server/internal/domain/events"
	"github.com/alumni-informatik/events-server/internal/storage/jsonfile"
)

func tempStore(t *testing.T) *jsonfile.Store {
	t.Helper()
	store, err := jsonfile.New(filepath.Join(t.TempDir(), "events.json"), 2*time.Second)
	require.NoError(t, err)
	return store
}

func TestServeFeedEmptyCollection(t *testing.T) {
	handler := NewFeedHandler(tempStore(t))

	req := httptest.NewRequest(http.MethodGet, "/events.json", nil)
	rec := httptest.NewRecorder()
	handler.ServeFeed(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	require.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	require.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestServeFeedServesStoredDocumentVerbatim(t *testing.T) {
	store := tempStore(t)
	handler := NewFeedHandler(store)

	start, err := time.Parse(time.RFC3339, "2025-03-10T18:00:00+01:00")
	require.NoError(t, err)
	loc := strPtr("Café Überraschung")
	link := strPtr("https://example.org/apero?x=1&y=2")
	require.NoError(t, store.Save(context.Background(), []events.Event{{
		ID:        "evt_2025-03-10_2a9f01cd",
		Title:     "Apéro & Talks",
		Start:     start,
		Location:  loc,
		URL:       link,
		Tags:      []string{},
		CreatedAt: start,
	}}))

	raw, err := store.ReadRaw(context.Background())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/events.json", nil)
	rec := httptest.NewRecorder()
	handler.ServeFeed(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, string(raw), rec.Body.String())
	// The stored document keeps slashes and non-ASCII text readable.
	require.Contains(t, rec.Body.String(), "https://example.org/apero?x=1&y=2")
	require.Contains(t, rec.Body.String(), "Café Überraschung")
}
