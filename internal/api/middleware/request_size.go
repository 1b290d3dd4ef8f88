package middleware

import (
	"net/http"
)

const (
	// DefaultMaxBodySize is 64KB, enough for any text-only form submission
	DefaultMaxBodySize int64 = 64 << 10

	// UploadMaxBodySize is 3MB: the 2 MiB image cap plus form field headroom
	UploadMaxBodySize int64 = 3 << 20
)

// RequestSize limits the size of incoming request bodies.
//
// It wraps the request body with http.MaxBytesReader to enforce the limit.
// If the body exceeds maxBytes, reads fail and the handler surfaces
// 413 Payload Too Large.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

			next.ServeHTTP(w, r)
		})
	}
}

// FormRequestSize limits request bodies for text-only form endpoints.
func FormRequestSize() func(http.Handler) http.Handler {
	return RequestSize(DefaultMaxBodySize)
}

// UploadRequestSize limits request bodies for endpoints accepting an image part.
func UploadRequestSize() func(http.Handler) http.Handler {
	return RequestSize(UploadMaxBodySize)
}
