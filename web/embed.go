// Package web embeds the built tutor frontend (dist/) and serves it as a
// single-page application.
//
// dist/ ships a placeholder index.html; the frontend build overwrites it.
package web

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
)

//go:embed all:dist
var distFS embed.FS

// reservedPrefixes are server routes that must never fall back to index.html.
var reservedPrefixes = []string{"api/", "ws/"}

// SPAHandler returns an http.Handler that serves the embedded frontend.
func SPAHandler() http.Handler {
	subFS, err := fs.Sub(distFS, "dist")
	if err != nil {
		panic("web: failed to create sub filesystem: " + err.Error())
	}
	return spaHandler(subFS)
}

func spaHandler(root fs.FS) http.Handler {
	fileServer := http.FileServer(http.FS(root))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		for _, prefix := range reservedPrefixes {
			if strings.HasPrefix(name+"/", prefix) {
				http.Error(w, `{"error": "not found"}`, http.StatusNotFound)
				return
			}
		}
		if name == "" || name == "." {
			name = "index.html"
		}

		if f, err := root.Open(name); err == nil {
			if closeErr := f.Close(); closeErr != nil {
				slog.Debug("web: failed to close embedded file", "path", name, "error", closeErr)
			}
			if strings.HasPrefix(name, "assets/") {
				w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
			}
			fileServer.ServeHTTP(w, r)
			return
		}

		// Unknown paths belong to client-side routing.
		w.Header().Set("Cache-Control", "no-cache")
		r.URL.Path = "/"
		fileServer.ServeHTTP(w, r)
	})
}
