package handlers

import (
	"errors"
	"net/http"

	sessionsvc "github.com/dottenv/dating-bot/internal/services/sessions"
	"github.com/dottenv/dating-bot/internal/transport/http/dto"
	httperrors "github.com/dottenv/dating-bot/internal/transport/http/errors"
)

type SessionHandler struct {
	service *sessionsvc.Service
}

func NewSessionHandler(service *sessionsvc.Service) *SessionHandler {
	return &SessionHandler{service: service}
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "caller identity required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SESSION_SERVICE_UNAVAILABLE", "session service is unavailable")
		return
	}

	session, ok := h.service.Get(userID)
	if !ok {
		writeNotFound(w, "NO_ACTIVE_CHAT", "no active chat session")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SessionResponse{
		SessionID:    session.ID,
		PartnerID:    session.PartnerOf(userID),
		StartedAt:    session.StartedAt,
		MessageCount: session.MessageCount,
		RevealState:  string(h.service.RevealState(userID)),
	})
}

func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "caller identity required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SESSION_SERVICE_UNAVAILABLE", "session service is unavailable")
		return
	}

	if _, err := h.service.EndForUser(r.Context(), userID); err != nil {
		if errors.Is(err, sessionsvc.ErrNoSession) {
			// ending twice is fine, the chat is gone either way
			httperrors.Write(w, http.StatusOK, dto.SessionEndResponse{Ended: false})
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to end chat")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SessionEndResponse{Ended: true})
}

// Message records one relayed message for quota and rating bookkeeping.
// The message body itself never reaches the API.
func (h *SessionHandler) Message(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "caller identity required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SESSION_SERVICE_UNAVAILABLE", "session service is unavailable")
		return
	}

	session, err := h.service.RecordMessage(userID)
	if err != nil {
		if errors.Is(err, sessionsvc.ErrNoSession) {
			writeNotFound(w, "NO_ACTIVE_CHAT", "no active chat session")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to record message")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SessionMessageResponse{MessageCount: session.MessageCount})
}
