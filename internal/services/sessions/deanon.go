package sessions

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/dottenv/dating-bot/internal/domain/model"
	"github.com/dottenv/dating-bot/internal/services/delivery"
)

var ErrNoRevealRequest = errors.New("no pending reveal request")

// RequestReveal records the caller's consent to swap identities. The
// first request creates the pending consent and prompts the partner;
// when both sides have consented the identities are exchanged exactly
// once. Requesting after a reveal is a no-op.
func (s *Service) RequestReveal(ctx context.Context, userID int64) (model.DeanonState, error) {
	if userID <= 0 {
		return model.DeanonNoRequest, ErrValidation
	}

	s.mu.Lock()
	session, ok := s.byUser[userID]
	if !ok {
		s.mu.Unlock()
		return model.DeanonNoRequest, ErrNoSession
	}

	req, exists := s.deanon[session.ID]
	if !exists {
		req = &model.DeanonRequest{
			SessionID:   session.ID,
			RequestedAt: s.now(),
		}
		s.deanon[session.ID] = req
	}
	if req.Revealed {
		s.mu.Unlock()
		return model.DeanonRevealed, nil
	}

	alreadyConsented := s.approvalOf(req, *session, userID)
	s.setApproval(req, *session, userID)
	ready := req.ApprovalA && req.ApprovalB
	if ready {
		req.Revealed = true
	}
	sessionCopy := *session
	s.mu.Unlock()

	if ready {
		s.reveal(ctx, sessionCopy)
		return model.DeanonRevealed, nil
	}

	if !alreadyConsented {
		partnerID := sessionCopy.PartnerOf(userID)
		event := delivery.Event{
			Kind:      delivery.KindRevealPrompt,
			SessionID: sessionCopy.ID,
			PartnerID: userID,
		}
		if err := s.deliver(ctx, partnerID, event); err != nil {
			s.logger.Warn("reveal prompt delivery failed",
				zap.String("session_id", sessionCopy.ID),
				zap.Int64("user_id", partnerID),
				zap.Error(err),
			)
			s.ForceEnd(ctx, sessionCopy.ID, "reveal prompt undeliverable")
			return model.DeanonNoRequest, ErrNoSession
		}
	}

	return model.DeanonPending, nil
}

// RespondReveal answers the partner's pending request. Approval from the
// second side triggers the reveal; a decline dissolves the request
// entirely so either side may ask again later.
func (s *Service) RespondReveal(ctx context.Context, userID int64, approve bool) (model.DeanonState, error) {
	if userID <= 0 {
		return model.DeanonNoRequest, ErrValidation
	}

	s.mu.Lock()
	session, ok := s.byUser[userID]
	if !ok {
		s.mu.Unlock()
		return model.DeanonNoRequest, ErrNoSession
	}

	req, exists := s.deanon[session.ID]
	if !exists {
		s.mu.Unlock()
		return model.DeanonNoRequest, ErrNoRevealRequest
	}
	if req.Revealed {
		s.mu.Unlock()
		return model.DeanonRevealed, nil
	}

	if !approve {
		delete(s.deanon, session.ID)
		sessionCopy := *session
		s.mu.Unlock()

		partnerID := sessionCopy.PartnerOf(userID)
		event := delivery.Event{
			Kind:      delivery.KindRevealDeclined,
			SessionID: sessionCopy.ID,
			PartnerID: userID,
		}
		if err := s.deliver(ctx, partnerID, event); err != nil {
			s.logger.Warn("reveal decline delivery failed",
				zap.String("session_id", sessionCopy.ID),
				zap.Int64("user_id", partnerID),
				zap.Error(err),
			)
			s.ForceEnd(ctx, sessionCopy.ID, "reveal decline undeliverable")
			return model.DeanonNoRequest, ErrNoSession
		}
		return model.DeanonNoRequest, nil
	}

	s.setApproval(req, *session, userID)
	ready := req.ApprovalA && req.ApprovalB
	if ready {
		req.Revealed = true
	}
	sessionCopy := *session
	s.mu.Unlock()

	if ready {
		s.reveal(ctx, sessionCopy)
		return model.DeanonRevealed, nil
	}

	return model.DeanonPending, nil
}

// RevealState reports the consent state of the caller's session.
func (s *Service) RevealState(userID int64) model.DeanonState {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.byUser[userID]
	if !ok {
		return model.DeanonNoRequest
	}
	req, exists := s.deanon[session.ID]
	if !exists {
		return model.DeanonNoRequest
	}
	if req.Revealed {
		return model.DeanonRevealed
	}
	return model.DeanonPending
}

// reveal swaps the two profiles over the transport. An unreachable side
// or a missing profile tears the session down: a half-revealed chat must
// not continue.
func (s *Service) reveal(ctx context.Context, session model.ChatSession) {
	if s.profiles == nil {
		s.logger.Error("reveal without profile source", zap.String("session_id", session.ID))
		s.ForceEnd(ctx, session.ID, "profile source unavailable")
		return
	}

	profileA, errA := s.profiles.Snapshot(ctx, session.UserA)
	profileB, errB := s.profiles.Snapshot(ctx, session.UserB)
	if errA != nil || errB != nil {
		s.logger.Error("reveal profile lookup failed",
			zap.String("session_id", session.ID),
			zap.NamedError("user_a", errA),
			zap.NamedError("user_b", errB),
		)
		s.ForceEnd(ctx, session.ID, "reveal profile lookup failed")
		return
	}

	deliveries := []struct {
		to      int64
		profile model.Profile
	}{
		{to: session.UserA, profile: profileB},
		{to: session.UserB, profile: profileA},
	}
	for _, d := range deliveries {
		d := d
		event := delivery.Event{
			Kind:      delivery.KindRevealed,
			SessionID: session.ID,
			PartnerID: session.PartnerOf(d.to),
			Profile:   &d.profile,
		}
		if err := s.deliver(ctx, d.to, event); err != nil {
			s.logger.Warn("reveal delivery failed",
				zap.String("session_id", session.ID),
				zap.Int64("user_id", d.to),
				zap.Error(err),
			)
			s.ForceEnd(ctx, session.ID, "reveal undeliverable")
			return
		}
	}

	s.logger.Info("identities revealed", zap.String("session_id", session.ID))
}

func (s *Service) approvalOf(req *model.DeanonRequest, session model.ChatSession, userID int64) bool {
	if userID == session.UserA {
		return req.ApprovalA
	}
	return req.ApprovalB
}

func (s *Service) setApproval(req *model.DeanonRequest, session model.ChatSession, userID int64) {
	if userID == session.UserA {
		req.ApprovalA = true
		return
	}
	req.ApprovalB = true
}
