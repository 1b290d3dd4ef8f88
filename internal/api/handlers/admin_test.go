package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alumni-informatik/events-server/internal/domain/events"
)

func zurich(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Zurich")
	require.NoError(t, err)
	return loc
}

func strPtr(s string) *string { return &s }

func seededRepo(t *testing.T) *memRepo {
	t.Helper()
	start, err := time.Parse(time.RFC3339, "2025-03-10T18:00:00+01:00")
	require.NoError(t, err)
	end := start.Add(3 * time.Hour)
	return &memRepo{events: []events.Event{
		{
			ID:        "evt_2025-03-10_2a9f01cd",
			Title:     "Apéro & Talks",
			Start:     start,
			End:       &end,
			Location:  strPtr("Bern"),
			Image:     strPtr("/uploads/apero-talks-2a9f01cd.jpg"),
			Tags:      []string{"networking", "talk"},
			CreatedAt: start.Add(-24 * time.Hour),
		},
	}}
}

func newAdminHandler(t *testing.T, repo *memRepo) *AdminHandler {
	t.Helper()
	loc := zurich(t)
	return NewAdminHandler(testService(t, repo, stubImages{}), loc)
}

func postForm(handler http.HandlerFunc, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/admin/events", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestServeAddRendersForm(t *testing.T) {
	handler := newAdminHandler(t, &memRepo{})

	req := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	rec := httptest.NewRecorder()
	handler.ServeAdd(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	require.Contains(t, body, `action="/api/events"`)
	require.Contains(t, body, `enctype="multipart/form-data"`)
	require.Contains(t, body, `name="title"`)
	require.Contains(t, body, `type="datetime-local"`)
}

func TestServeManageListsEvents(t *testing.T) {
	handler := newAdminHandler(t, seededRepo(t))

	req := httptest.NewRequest(http.MethodGet, "/admin/manage", nil)
	rec := httptest.NewRecorder()
	handler.ServeManage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Apéro &amp; Talks")
	require.Contains(t, body, `value="evt_2025-03-10_2a9f01cd"`)
	// Stored instants render in local wall time for the edit inputs.
	require.Contains(t, body, `value="2025-03-10T18:00"`)
	require.Contains(t, body, `value="2025-03-10T21:00"`)
	require.Contains(t, body, "networking, talk")
	require.Contains(t, body, "/uploads/apero-talks-2a9f01cd.jpg")
	require.Contains(t, body, "1 Event vorhanden")
}

func TestServeManageEmpty(t *testing.T) {
	handler := newAdminHandler(t, &memRepo{})

	req := httptest.NewRequest(http.MethodGet, "/admin/manage", nil)
	rec := httptest.NewRecorder()
	handler.ServeManage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Noch keine Events vorhanden")
}

func TestServeManageFlashMessages(t *testing.T) {
	handler := newAdminHandler(t, &memRepo{})

	for msg, want := range map[string]string{
		"deleted": "Event erfolgreich gelöscht",
		"updated": "Event erfolgreich aktualisiert",
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin/manage?msg="+msg, nil)
		rec := httptest.NewRecorder()
		handler.ServeManage(rec, req)

		require.Contains(t, rec.Body.String(), want)
	}
}

func TestServeManageEscapesStoredText(t *testing.T) {
	repo := seededRepo(t)
	repo.events[0].Title = `<script>alert(1)</script>`
	handler := newAdminHandler(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/admin/manage", nil)
	rec := httptest.NewRecorder()
	handler.ServeManage(rec, req)

	body := rec.Body.String()
	require.NotContains(t, body, "<script>alert(1)</script>")
	require.Contains(t, body, "&lt;script&gt;")
}

func TestHandleActionDelete(t *testing.T) {
	repo := seededRepo(t)
	handler := newAdminHandler(t, repo)

	rec := postForm(handler.HandleAction, url.Values{
		"action": {"delete"},
		"id":     {"evt_2025-03-10_2a9f01cd"},
	})

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin/manage?msg=deleted", rec.Header().Get("Location"))
	require.Empty(t, repo.events)
}

func TestHandleActionUpdate(t *testing.T) {
	repo := seededRepo(t)
	handler := newAdminHandler(t, repo)

	rec := postForm(handler.HandleAction, url.Values{
		"action":   {"update"},
		"id":       {"evt_2025-03-10_2a9f01cd"},
		"title":    {"Apéro & Talks (neu)"},
		"start":    {"2025-03-11T19:00"},
		"end":      {"2025-03-11T22:00"},
		"location": {"Zürich"},
		"tags":     {"workshop"},
	})

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin/manage?msg=updated", rec.Header().Get("Location"))
	require.Len(t, repo.events, 1)
	updated := repo.events[0]
	require.Equal(t, "Apéro & Talks (neu)", updated.Title)
	require.Equal(t, []string{"workshop"}, updated.Tags)
	require.NotNil(t, updated.UpdatedAt)
	// A plain field edit keeps the stored image.
	require.NotNil(t, updated.Image)
}

func TestHandleActionUpdateValidationError(t *testing.T) {
	repo := seededRepo(t)
	handler := newAdminHandler(t, repo)

	rec := postForm(handler.HandleAction, url.Values{
		"action": {"update"},
		"id":     {"evt_2025-03-10_2a9f01cd"},
		"title":  {""},
		"start":  {"2025-03-11T19:00"},
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "Titel darf nicht leer sein")
	require.Equal(t, "Apéro & Talks", repo.events[0].Title)
}

func TestHandleActionUpdateEndBeforeStart(t *testing.T) {
	handler := newAdminHandler(t, seededRepo(t))

	rec := postForm(handler.HandleAction, url.Values{
		"action": {"update"},
		"id":     {"evt_2025-03-10_2a9f01cd"},
		"title":  {"Apéro & Talks"},
		"start":  {"2025-03-11T19:00"},
		"end":    {"2025-03-11T18:00"},
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "Enddatum muss nach Startdatum liegen")
}

func TestHandleActionUpdateUnknownEvent(t *testing.T) {
	handler := newAdminHandler(t, seededRepo(t))

	rec := postForm(handler.HandleAction, url.Values{
		"action": {"update"},
		"id":     {"evt_2025-01-01_ffffffff"},
		"title":  {"Neu"},
		"start":  {"2025-03-11T19:00"},
	})

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Event nicht gefunden")
}

func TestHandleActionInvalidID(t *testing.T) {
	repo := seededRepo(t)
	handler := newAdminHandler(t, repo)

	for _, id := range []string{"", "../../etc/passwd", "evt_a/../b", "event-123"} {
		rec := postForm(handler.HandleAction, url.Values{
			"action": {"delete"},
			"id":     {id},
		})

		require.Equal(t, http.StatusBadRequest, rec.Code, "id %q", id)
	}
	require.Len(t, repo.events, 1)
}

func TestHandleActionUnknownAction(t *testing.T) {
	handler := newAdminHandler(t, seededRepo(t))

	rec := postForm(handler.HandleAction, url.Values{
		"action": {"duplicate"},
		"id":     {"evt_2025-03-10_2a9f01cd"},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
