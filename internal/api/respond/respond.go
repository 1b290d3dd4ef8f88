// Package respond writes the JSON envelopes of the event API:
// {"ok": true, "event": {...}} on success and {"ok": false, "error": "..."}
// on failure, with the failure logged through the request-scoped logger.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/json; charset=utf-8"

// Envelope is the wire shape of every mutating API response.
type Envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Event any    `json:"event,omitempty"`
}

// OK writes a success envelope, optionally carrying the affected event.
func OK(w http.ResponseWriter, event any) {
	writeEnvelope(w, http.StatusOK, Envelope{OK: true, Event: event})
}

// Error writes a failure envelope with a short user-facing message.
// The underlying error goes to the log, never to the client: 5xx at
// error level, 4xx at warn.
func Error(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil && r != nil {
		logger := zerolog.Ctx(r.Context())
		event := logger.Warn()
		if status >= 500 {
			event = logger.Error()
		}
		event.
			Err(err).
			Int("status", status).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(message)
	}

	writeEnvelope(w, status, Envelope{OK: false, Error: message})
}

func writeEnvelope(w http.ResponseWriter, status int, envelope Envelope) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"ok":false,"error":"internal error"}`))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
