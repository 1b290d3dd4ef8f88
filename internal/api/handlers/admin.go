package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/alumni-informatik/events-server/internal/api/middleware"
	"github.com/alumni-informatik/events-server/internal/domain/events"
	"github.com/alumni-informatik/events-server/internal/domain/ids"
	"github.com/alumni-informatik/events-server/internal/metrics"
	"github.com/alumni-informatik/events-server/internal/sanitize"
	"github.com/alumni-informatik/events-server/web"
)

// localDateTimeLayout matches the value format of HTML datetime-local
// inputs.
const localDateTimeLayout = "2006-01-02T15:04"

// AdminHandler serves the admin pages: the add-event form and the
// manage page with inline edit and delete forms. All mutating routes
// sit behind the CSRF middleware.
type AdminHandler struct {
	Service *events.Service
	Loc     *time.Location
}

func NewAdminHandler(service *events.Service, loc *time.Location) *AdminHandler {
	if loc == nil {
		loc = time.Local
	}
	return &AdminHandler{Service: service, Loc: loc}
}

// ServeAdd renders the add-event form.
func (h *AdminHandler) ServeAdd(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	data := web.AddPageData{CSRFField: middleware.CSRFTemplateField(r)}
	if err := web.RenderAddPage(w, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to render add page")
	}
}

// ServeManage renders the manage page. A msg query parameter set by a
// post-mutation redirect becomes a flash message.
func (h *AdminHandler) ServeManage(w http.ResponseWriter, r *http.Request) {
	var success string
	switch r.URL.Query().Get("msg") {
	case "deleted":
		success = "Event erfolgreich gelöscht"
	case "updated":
		success = "Event erfolgreich aktualisiert"
	}

	h.renderManage(w, r, http.StatusOK, "", success)
}

// HandleAction dispatches the manage page form submissions
// (action=update or action=delete).
func (h *AdminHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Ungültige Formulardaten", http.StatusBadRequest)
		return
	}

	id := r.PostFormValue("id")
	if err := ids.ValidateEventID(id); err != nil {
		http.Error(w, "Ungültige Event-ID", http.StatusBadRequest)
		return
	}

	switch r.PostFormValue("action") {
	case "delete":
		h.handleDelete(w, r, id)
	case "update":
		h.handleUpdate(w, r, id)
	default:
		http.Error(w, "Unbekannte Aktion", http.StatusBadRequest)
	}
}

func (h *AdminHandler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.Service.Delete(r.Context(), id); err != nil {
		metrics.EventMutations.WithLabelValues("delete", "storage_error").Inc()
		zerolog.Ctx(r.Context()).Error().Err(err).Str("event_id", id).Msg("failed to delete event")
		h.renderManage(w, r, http.StatusInternalServerError, "Speichern fehlgeschlagen", "")
		return
	}

	metrics.EventMutations.WithLabelValues("delete", "ok").Inc()
	refreshEventsGauge(r, h.Service)
	http.Redirect(w, r, "/admin/manage?msg=deleted", http.StatusSeeOther)
}

func (h *AdminHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	input := events.EventInput{
		Title:       r.PostFormValue("title"),
		Start:       r.PostFormValue("start"),
		End:         r.PostFormValue("end"),
		Location:    r.PostFormValue("location"),
		URL:         r.PostFormValue("url"),
		Tags:        r.PostFormValue("tags"),
		Description: r.PostFormValue("description"),
	}

	_, err := h.Service.Update(r.Context(), id, input, nil, nil)
	if err != nil {
		status, message := updateErrorPage(err)
		if status == http.StatusInternalServerError {
			metrics.EventMutations.WithLabelValues("update", "storage_error").Inc()
			zerolog.Ctx(r.Context()).Error().Err(err).Str("event_id", id).Msg("failed to update event")
		} else {
			metrics.EventMutations.WithLabelValues("update", "validation_error").Inc()
		}
		h.renderManage(w, r, status, message, "")
		return
	}

	metrics.EventMutations.WithLabelValues("update", "ok").Inc()
	http.Redirect(w, r, "/admin/manage?msg=updated", http.StatusSeeOther)
}

// updateErrorPage maps a service error to the status and the
// user-facing message shown in the manage page flash.
func updateErrorPage(err error) (int, string) {
	var fieldErr events.FieldError
	switch {
	case errors.Is(err, events.ErrNotFound):
		return http.StatusNotFound, "Event nicht gefunden"
	case errors.As(err, &fieldErr):
		switch fieldErr.Field {
		case "title":
			return http.StatusUnprocessableEntity, "Titel darf nicht leer sein"
		case "url":
			return http.StatusUnprocessableEntity, "Ungültiges URL-Format"
		case "start":
			return http.StatusUnprocessableEntity, "Ungültiges Startdatum"
		case "end":
			return http.StatusUnprocessableEntity, "Enddatum muss nach Startdatum liegen"
		default:
			return http.StatusUnprocessableEntity, fieldErr.Message
		}
	default:
		return http.StatusInternalServerError, "Speichern fehlgeschlagen"
	}
}

func (h *AdminHandler) renderManage(w http.ResponseWriter, r *http.Request, status int, errMsg, success string) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to load events for manage page")
		http.Error(w, "Events konnten nicht geladen werden", http.StatusInternalServerError)
		return
	}

	data := web.ManagePageData{
		CSRFField: middleware.CSRFTemplateField(r),
		Error:     errMsg,
		Success:   success,
		Events:    make([]web.ManageEventView, 0, len(list)),
	}
	for _, e := range list {
		data.Events = append(data.Events, h.eventView(e))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := web.RenderManagePage(w, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to render manage page")
	}
}

func (h *AdminHandler) eventView(e events.Event) web.ManageEventView {
	view := web.ManageEventView{
		ID:         e.ID,
		Title:      e.Title,
		Tags:       strings.Join(e.Tags, ", "),
		StartLocal: e.Start.In(h.Loc).Format(localDateTimeLayout),
		Meta:       e.Start.In(h.Loc).Format("02.01.2006 15:04"),
	}
	if view.Title == "" {
		view.Title = "Unbenannt"
	}
	if e.End != nil {
		view.EndLocal = e.End.In(h.Loc).Format(localDateTimeLayout)
	}
	if e.Location != nil {
		view.Location = *e.Location
	}
	if e.URL != nil {
		view.URL = *e.URL
	}
	if e.Description != nil {
		view.Description = *e.Description
		view.DescriptionPreview = template.HTML(sanitize.Description(*e.Description))
	}
	if e.Image != nil {
		view.Image = *e.Image
	}
	return view
}
