package handlers

import (
	"errors"
	"net/http"

	matchingsvc "github.com/dottenv/dating-bot/internal/services/matching"
	profilesvc "github.com/dottenv/dating-bot/internal/services/profiles"
	"github.com/dottenv/dating-bot/internal/transport/http/dto"
	httperrors "github.com/dottenv/dating-bot/internal/transport/http/errors"
)

type SearchHandler struct {
	service *matchingsvc.Service
}

func NewSearchHandler(service *matchingsvc.Service) *SearchHandler {
	return &SearchHandler{service: service}
}

func (h *SearchHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "caller identity required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCHING_SERVICE_UNAVAILABLE", "matching service is unavailable")
		return
	}

	result, err := h.service.RequestSearch(r.Context(), userID)
	if err != nil {
		var rateErr *matchingsvc.RateLimitError
		switch {
		case errors.Is(err, matchingsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid search request")
		case errors.Is(err, matchingsvc.ErrInChat):
			writeConflict(w, "ALREADY_IN_CHAT", "finish the current chat before searching again")
		case errors.Is(err, matchingsvc.ErrNotEligible):
			writeConflict(w, "PROFILE_NOT_ELIGIBLE", "complete and activate the profile before searching")
		case errors.Is(err, profilesvc.ErrNotFound):
			writeNotFound(w, "PROFILE_NOT_FOUND", "profile not found")
		case errors.As(err, &rateErr):
			httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
				Code:          "RATE_LIMITED",
				Message:       "too many search requests",
				RetryAfterSec: rateErr.RetryAfterSec,
			})
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to start search")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SearchStartResponse{
		Status:    string(result.Status),
		SessionID: result.SessionID,
		PartnerID: result.PartnerID,
		Score:     result.Score,
		Reasons:   result.Reasons,
	})
}

func (h *SearchHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "caller identity required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCHING_SERVICE_UNAVAILABLE", "matching service is unavailable")
		return
	}

	info := h.service.Status(userID)
	httperrors.Write(w, http.StatusOK, dto.SearchStatusResponse{
		Status:     string(info.Status),
		SessionID:  info.SessionID,
		PartnerID:  info.PartnerID,
		RelaxLevel: info.RelaxLevel,
		Waiting:    info.Waiting,
	})
}

func (h *SearchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "caller identity required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCHING_SERVICE_UNAVAILABLE", "matching service is unavailable")
		return
	}

	stopped := h.service.CancelSearch(userID)
	httperrors.Write(w, http.StatusOK, dto.SearchCancelResponse{Stopped: stopped})
}
