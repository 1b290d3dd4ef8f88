package middleware

import (
	"crypto/sha256"
	"errors"
	"html/template"
	"io"
	"net/http"

	"github.com/gorilla/csrf"
	"golang.org/x/crypto/hkdf"
)

// csrfKeyLength is the auth key size gorilla/csrf expects (HMAC-SHA256).
const csrfKeyLength = 32

const csrfKeyPurpose = "events-server-csrf-v1"

// ErrEmptyCSRFSecret is returned when the master secret is missing.
var ErrEmptyCSRFSecret = errors.New("csrf secret cannot be empty")

// DeriveCSRFKey derives the 32-byte CSRF auth key from the configured
// master secret using HKDF-SHA256, so the secret itself is never used
// directly and stays independent from any future derived key.
func DeriveCSRFKey(masterSecret []byte) ([]byte, error) {
	if len(masterSecret) == 0 {
		return nil, ErrEmptyCSRFSecret
	}

	reader := hkdf.New(sha256.New, masterSecret, nil, []byte(csrfKeyPurpose))
	key := make([]byte, csrfKeyLength)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// CSRFProtection creates CSRF middleware for the form-submitting routes
// (add-event form, manage page, create endpoint).
//
// gorilla/csrf implements the double-submit cookie pattern: a per-session
// token is embedded in each form as a hidden field, paired with a signed
// cookie, and both must match on every mutating submission. Comparison is
// constant-time inside the library. A failed check aborts the request
// before any handler side effect.
//
// The library's origin check assumes TLS: on a plaintext connection it
// rewrites the request scheme to https, so a browser's http:// Origin
// never matches and every token-bearing POST gets 403. Requests arriving
// without TLS are therefore marked plaintext before the check runs. The
// server itself speaks plain HTTP; TLS terminates at the proxy.
func CSRFProtection(authKey []byte, secure bool) func(http.Handler) http.Handler {
	opts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName("csrf"),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	}

	protect := csrf.Protect(authKey, opts...)
	return func(next http.Handler) http.Handler {
		inner := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS == nil {
				r = csrf.PlaintextHTTPRequest(r)
			}
			inner.ServeHTTP(w, r)
		})
	}
}

// csrfErrorHandler returns a 403 Forbidden response for CSRF validation failures
func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"ok":false,"error":"Invalid CSRF token"}`))
}

// CSRFToken extracts the CSRF token from the request context for embedding in forms
func CSRFToken(r *http.Request) string {
	return csrf.Token(r)
}

// CSRFTemplateField returns the hidden form field carrying the token,
// ready to drop into a template.
func CSRFTemplateField(r *http.Request) template.HTML {
	return csrf.TemplateField(r)
}
