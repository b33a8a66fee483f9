package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sambhav874/tuition-teacher/internal/domain"
	"github.com/sambhav874/tuition-teacher/internal/identity"
	"github.com/sambhav874/tuition-teacher/internal/tutor"
)

type profileRequest struct {
	UserName  string `json:"userName"`
	UserGrade string `json:"userGrade"`
}

type selectSessionRequest struct {
	ID string `json:"id"`
}

type messageRequest struct {
	SessionID   string   `json:"sessionId,omitempty"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`
	Mode        string   `json:"mode,omitempty"`
}

// requireUser returns the caller's user ID, writing 401 when absent.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}

func (h *Handler) serviceError(w http.ResponseWriter, userID string, err error) {
	switch {
	case errors.Is(err, tutor.ErrSessionNotFound):
		Error(w, http.StatusNotFound, "session not found")
	case errors.Is(err, tutor.ErrEmptyTurn):
		Error(w, http.StatusBadRequest, "message requires content or attachments")
	case errors.Is(err, tutor.ErrUnsupportedAttachment):
		Error(w, http.StatusUnsupportedMediaType, err.Error())
	default:
		slog.Error("tutor request failed", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

// GetState returns the caller's whole AppState.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	state, err := h.svc.State(r.Context(), userID)
	if err != nil {
		h.serviceError(w, userID, err)
		return
	}
	JSON(w, http.StatusOK, state)
}

// UpdateProfile sets the learner's name and grade.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req profileRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if err := h.svc.SetProfile(r.Context(), userID, req.UserName, req.UserGrade); err != nil {
		h.serviceError(w, userID, err)
		return
	}
	JSON(w, http.StatusOK, req)
}

// GetConfig returns the server configuration for the frontend.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"ai_enabled": h.svc.AIEnabled(),
		"provider":   h.provider,
		"model":      h.svc.Model(),
		"modes": []domain.Mode{
			domain.ModeStandard, domain.ModeEnglishTutor, domain.ModeMockTest, domain.ModeNotes,
		},
	})
}

// ListSessions lists the caller's sessions without messages.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	sessions, err := h.svc.Sessions(r.Context(), userID)
	if err != nil {
		h.serviceError(w, userID, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// CreateSession starts a new empty session and makes it active.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := h.svc.CreateSession(r.Context(), userID)
	if err != nil {
		h.serviceError(w, userID, err)
		return
	}
	JSON(w, http.StatusCreated, map[string]string{"id": id})
}

// SelectSession switches the active session without validating the ID.
func (h *Handler) SelectSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req selectSessionRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if err := h.svc.SelectSession(r.Context(), userID, req.ID); err != nil {
		h.serviceError(w, userID, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"currentSessionId": req.ID})
}

// GetSession returns one session with its messages.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	sess, err := h.svc.Session(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.serviceError(w, userID, err)
		return
	}
	JSON(w, http.StatusOK, sess)
}

// DeleteSession removes a session. Unknown IDs succeed.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteSession(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.serviceError(w, userID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostSessionMessage runs a turn in the session named by the path.
func (h *Handler) PostSessionMessage(w http.ResponseWriter, r *http.Request) {
	h.handleTurn(w, r, chi.URLParam(r, "id"))
}

// PostMessage runs a turn in the body's session, creating one when absent.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	h.handleTurn(w, r, "")
}

func (h *Handler) handleTurn(w http.ResponseWriter, r *http.Request, pathSessionID string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Rate-limit by user so new sessions do not reset the budget.
	if h.limiter != nil && !h.limiter.Allow(userID) {
		Error(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var req messageRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	sessionID := req.SessionID
	if pathSessionID != "" {
		sessionID = pathSessionID
	}

	reqID := chiMiddleware.GetReqID(r.Context())
	slog.Info("Tutor turn request",
		"user_id", userID,
		"session_id", sessionID,
		"mode", req.Mode,
		"message_length", len(req.Content),
		"attachments", len(req.Attachments),
		"ip", identity.IPFromRequest(r),
	)

	result, err := h.svc.Turn(r.Context(), userID, tutor.TurnRequest{
		SessionID:   sessionID,
		Content:     req.Content,
		Attachments: req.Attachments,
		Mode:        domain.Mode(req.Mode),
		RequestID:   reqID,
	})
	if err != nil {
		h.serviceError(w, userID, err)
		return
	}
	JSON(w, http.StatusOK, result)
}

// ExportSession downloads a plain-text transcript of the session.
func (h *Handler) ExportSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	text, err := h.svc.Export(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.serviceError(w, userID, err)
		return
	}

	name := tutor.ExportFileName(r.URL.Query().Get("mode"), h.now())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(text)); err != nil {
		slog.Debug("failed to write export", "error", err, "user_id", userID)
	}
}
