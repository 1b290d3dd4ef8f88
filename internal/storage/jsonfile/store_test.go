package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alumni-informatik/events-server/internal/domain/events"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "data", "events.json"), time.Second)
	require.NoError(t, err)
	return store
}

func testEvent(id, title string, start time.Time) events.Event {
	return events.Event{
		ID:        id,
		Title:     title,
		Start:     start,
		Tags:      []string{},
		CreatedAt: start,
	}
}

func TestLoadInitializesMissingFile(t *testing.T) {
	store := newTestStore(t)

	collection, err := store.Load(context.Background())

	require.NoError(t, err)
	require.Empty(t, collection)

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	require.JSONEq(t, "[]", string(data))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	zurich, err := time.LoadLocation("Europe/Zurich")
	require.NoError(t, err)

	start := time.Date(2025, 3, 10, 18, 0, 0, 0, zurich)
	original := []events.Event{testEvent("evt_2025-03-10_a1b2c3d4", "Apéro", start)}

	require.NoError(t, store.Save(context.Background(), original))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, original[0].ID, loaded[0].ID)
	require.Equal(t, original[0].Title, loaded[0].Title)
	require.True(t, original[0].Start.Equal(loaded[0].Start))

	// Saving an unmodified loaded collection reproduces identical bytes.
	before, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), loaded))
	after, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	require.Equal(t, string(before), string(after))
}

func TestLoadTolerantOnCorruptContent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))

	for _, content := range []string{"not json at all", `{"id":"evt_x"}`, `"just a string"`} {
		require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0o644))

		collection, err := store.Load(context.Background())

		require.NoError(t, err, "content %q should be tolerated", content)
		require.Empty(t, collection)
	}
}

func TestSaveWritesReadableJSON(t *testing.T) {
	store := newTestStore(t)
	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	url := "https://example.com/signup?a=1&b=2"
	event := testEvent("evt_2025-05-01_deadbeef", "Überraschung & Co", start)
	event.URL = &url

	require.NoError(t, store.Save(context.Background(), []events.Event{event}))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	text := string(data)
	require.Contains(t, text, "\n  ", "expected pretty-printed output")
	require.Contains(t, text, "Überraschung & Co", "expected unescaped unicode and ampersand")
	require.Contains(t, text, url, "expected unescaped URL")
	require.NotContains(t, text, `\u0026`)
}

func TestSaveLeavesNoTempFilesBehind(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(context.Background(), nil))

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	for _, entry := range entries {
		require.False(t, strings.Contains(entry.Name(), ".tmp."), "leftover temp file %s", entry.Name())
	}
}

func TestSaveNilPersistsEmptyArray(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(context.Background(), nil))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	var raw []json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Empty(t, raw)
}

func TestConcurrentReadersSeeCompleteDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	start := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.Save(ctx, []events.Event{testEvent("evt_seed_00000000", "Seed", start)}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 25; i++ {
			_ = store.Save(ctx, []events.Event{
				testEvent("evt_seed_00000000", "Seed", start),
				testEvent("evt_seed_00000001", "Second", start.Add(time.Hour)),
			})
		}
	}()

	for i := 0; i < 25; i++ {
		collection, err := store.Load(ctx)
		require.NoError(t, err)
		// Either the old or the new complete document, never partial.
		require.Contains(t, []int{1, 2}, len(collection))
	}
	<-done
}

func TestNewRejectsEmptyPath(t *testing.T) {
	_, err := New("", time.Second)
	require.Error(t, err)
}
