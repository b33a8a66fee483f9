package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func serveCORS(allowed []string, method, origin string) *httptest.ResponseRecorder {
	h := CORS(allowed)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	req := httptest.NewRequest(method, "/api/state", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCORSExplicitOriginGetsCredentials(t *testing.T) {
	t.Parallel()

	rec := serveCORS([]string{"https://tutor.example"}, http.MethodGet, "https://tutor.example")
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected passthrough, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://tutor.example" {
		t.Fatalf("allow origin = %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatal("explicit origin should allow credentials")
	}
}

func TestCORSWildcardWithoutCredentials(t *testing.T) {
	t.Parallel()

	rec := serveCORS([]string{"*"}, http.MethodGet, "https://other.example")
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://other.example" {
		t.Fatal("wildcard should echo origin")
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Fatal("wildcard must not allow credentials")
	}
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	t.Parallel()

	rec := serveCORS([]string{"https://tutor.example"}, http.MethodGet, "https://evil.example")
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unknown origin should not be allowed")
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	rec := serveCORS([]string{"https://tutor.example"}, http.MethodOptions, "https://tutor.example")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rec.Code)
	}
}
