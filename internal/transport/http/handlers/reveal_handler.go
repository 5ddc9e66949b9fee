package handlers

import (
	"errors"
	"net/http"

	sessionsvc "github.com/dottenv/dating-bot/internal/services/sessions"
	"github.com/dottenv/dating-bot/internal/transport/http/dto"
	httperrors "github.com/dottenv/dating-bot/internal/transport/http/errors"
)

type RevealHandler struct {
	service *sessionsvc.Service
}

func NewRevealHandler(service *sessionsvc.Service) *RevealHandler {
	return &RevealHandler{service: service}
}

func (h *RevealHandler) Request(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "caller identity required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SESSION_SERVICE_UNAVAILABLE", "session service is unavailable")
		return
	}

	state, err := h.service.RequestReveal(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, sessionsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid reveal request")
		case errors.Is(err, sessionsvc.ErrNoSession):
			writeNotFound(w, "NO_ACTIVE_CHAT", "no active chat session")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to request reveal")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.RevealResponse{State: string(state)})
}

func (h *RevealHandler) Decide(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "caller identity required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SESSION_SERVICE_UNAVAILABLE", "session service is unavailable")
		return
	}

	var req dto.RevealDecisionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	state, err := h.service.RespondReveal(r.Context(), userID, req.Approve)
	if err != nil {
		switch {
		case errors.Is(err, sessionsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid reveal decision")
		case errors.Is(err, sessionsvc.ErrNoSession):
			writeNotFound(w, "NO_ACTIVE_CHAT", "no active chat session")
		case errors.Is(err, sessionsvc.ErrNoRevealRequest):
			writeConflict(w, "NO_REVEAL_REQUEST", "nothing to decide on")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to submit reveal decision")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.RevealResponse{State: string(state)})
}
