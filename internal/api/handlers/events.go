package handlers

import (
	"errors"
	"net/http"

	"github.com/alumni-informatik/events-server/internal/api/respond"
	"github.com/alumni-informatik/events-server/internal/domain/events"
	"github.com/alumni-informatik/events-server/internal/domain/ids"
	"github.com/alumni-informatik/events-server/internal/metrics"
	"github.com/alumni-informatik/events-server/internal/uploads"
)

// maxMultipartMemory bounds the in-memory part of multipart parsing;
// larger parts spill to temp files.
const maxMultipartMemory = 1 << 20

type EventsHandler struct {
	Service *events.Service
}

func NewEventsHandler(service *events.Service) *EventsHandler {
	return &EventsHandler{Service: service}
}

// Create handles the multipart add-event form submission.
// CSRF has already been checked by the middleware; a bad token never
// reaches this handler.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Service == nil {
		respond.Error(w, r, http.StatusInternalServerError, "Server error", nil)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			metrics.EventMutations.WithLabelValues("create", "too_large").Inc()
			respond.Error(w, r, http.StatusRequestEntityTooLarge, "Request too large", err)
			return
		}
		respond.Error(w, r, http.StatusBadRequest, "Invalid form submission", err)
		return
	}

	input := events.EventInput{
		Title:       r.FormValue("title"),
		Start:       r.FormValue("start"),
		End:         r.FormValue("end"),
		Location:    r.FormValue("location"),
		URL:         r.FormValue("url"),
		Tags:        r.FormValue("tags"),
		Description: r.FormValue("description"),
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// No image supplied: valid, not an error.
		file, header = nil, nil
	case err != nil:
		respond.Error(w, r, http.StatusBadRequest, "Upload error", err)
		return
	default:
		defer func() { _ = file.Close() }()
	}

	event, err := h.Service.Create(r.Context(), input, file, header)
	if err != nil {
		writeCreateError(w, r, err)
		return
	}

	if header != nil {
		metrics.ImageUploads.WithLabelValues("ok").Inc()
	}
	metrics.EventMutations.WithLabelValues("create", "ok").Inc()
	refreshEventsGauge(r, h.Service)
	respond.OK(w, event)
}

// refreshEventsGauge re-counts the stored collection after a mutation.
// Mutations are rare enough that the extra shared-lock read is fine.
func refreshEventsGauge(r *http.Request, service *events.Service) {
	list, err := service.List(r.Context())
	if err != nil {
		return
	}
	metrics.EventsTotal.Set(float64(len(list)))
}

func writeCreateError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErr events.FieldError
	switch {
	case errors.As(err, &fieldErr):
		metrics.EventMutations.WithLabelValues("create", "validation_error").Inc()
		respond.Error(w, r, http.StatusUnprocessableEntity, fieldErr.Error(), err)
	case errors.Is(err, uploads.ErrImageTooLarge):
		metrics.ImageUploads.WithLabelValues("too_large").Inc()
		respond.Error(w, r, http.StatusRequestEntityTooLarge, "Image too large", err)
	case errors.Is(err, uploads.ErrUnsupportedImageType):
		metrics.ImageUploads.WithLabelValues("unsupported_type").Inc()
		respond.Error(w, r, http.StatusUnsupportedMediaType, "Unsupported image type", err)
	case errors.Is(err, ids.ErrInvalidEventID):
		respond.Error(w, r, http.StatusBadRequest, "Invalid event id", err)
	default:
		metrics.EventMutations.WithLabelValues("create", "storage_error").Inc()
		respond.Error(w, r, http.StatusInternalServerError, "Failed to save event", err)
	}
}
