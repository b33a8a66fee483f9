package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"index.html":    {Data: []byte("<html>tutor</html>")},
		"assets/app.js": {Data: []byte("console.log('hi')")},
		"favicon.ico":   {Data: []byte("ico")},
	}
}

func TestSPAHandlerServesFiles(t *testing.T) {
	t.Parallel()
	h := spaHandler(testFS())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/app.js", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "console.log") {
		t.Fatalf("unexpected asset response %d %q", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("Cache-Control"), "immutable") {
		t.Fatalf("assets should be cached, got %q", rec.Header().Get("Cache-Control"))
	}
}

func TestSPAHandlerFallsBackToIndex(t *testing.T) {
	t.Parallel()
	h := spaHandler(testFS())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notes/123", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "tutor") {
		t.Fatalf("expected index fallback, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestSPAHandlerKeepsAPIRoutes404(t *testing.T) {
	t.Parallel()
	h := spaHandler(testFS())

	for _, p := range []string{"/api/unknown", "/ws/other", "/api"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", p, rec.Code)
		}
	}
}

func TestEmbeddedPlaceholderPresent(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	SPAHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected embedded index, got %d", rec.Code)
	}
}
