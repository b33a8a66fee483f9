// Package api provides HTTP handlers for the tutor API.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sambhav874/tuition-teacher/internal/tutor"
)

const defaultMaxRequestBodySize = 12 << 20

// Options configures a Handler.
type Options struct {
	Provider            string
	MaxRequestBodyBytes int64
	Limiter             *tutor.RateLimiter
	Now                 func() time.Time
}

// Handler serves the tutoring endpoints.
type Handler struct {
	svc      *tutor.Service
	limiter  *tutor.RateLimiter
	provider string
	maxBody  int64
	now      func() time.Time
}

// NewHandler creates a new Handler.
func NewHandler(svc *tutor.Service, opts Options) *Handler {
	if opts.MaxRequestBodyBytes <= 0 {
		opts.MaxRequestBodyBytes = defaultMaxRequestBodySize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{
		svc:      svc,
		limiter:  opts.Limiter,
		provider: opts.Provider,
		maxBody:  opts.MaxRequestBodyBytes,
		now:      opts.Now,
	}
}

// RegisterRoutes registers tutoring routes (requires identity middleware).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.GetState)
		r.Put("/profile", h.UpdateProfile)
		r.Get("/config", h.GetConfig)

		r.Get("/sessions", h.ListSessions)
		r.Post("/sessions", h.CreateSession)
		r.Put("/sessions/current", h.SelectSession)
		r.Get("/sessions/{id}", h.GetSession)
		r.Delete("/sessions/{id}", h.DeleteSession)
		r.Post("/sessions/{id}/messages", h.PostSessionMessage)
		r.Get("/sessions/{id}/export", h.ExportSession)

		r.Post("/messages", h.PostMessage)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

var errBodyTooLarge = errors.New("request body too large")

// decodeJSON reads a size-limited JSON body into dst.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errBodyTooLarge
		}
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		Error(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	Error(w, http.StatusBadRequest, "invalid request body")
}
