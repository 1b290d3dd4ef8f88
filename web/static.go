package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed index.html
var indexHTML []byte

//go:embed robots.txt
var robotsTxt []byte

//go:embed assets
var assetsFS embed.FS

// IndexHandler serves the public landing page at the web root (/).
// The page loads the event listing client-side from /events.json.
//
// Only GET and HEAD methods are allowed; other methods return 405.
func IndexHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		// Cache for an hour, but revalidate so edits show up.
		w.Header().Set("Cache-Control", "public, max-age=3600, must-revalidate")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(indexHTML)
	})
}

// RobotsTxtHandler serves the robots.txt file.
func RobotsTxtHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(robotsTxt)
	})
}

// AssetsHandler serves the embedded static assets (stylesheet, client
// renderer) under /assets/.
func AssetsHandler() http.Handler {
	sub, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		// The embed is part of the binary; a missing subdir is a
		// build defect, not a runtime condition.
		panic(err)
	}
	return http.StripPrefix("/assets/", http.FileServerFS(sub))
}
