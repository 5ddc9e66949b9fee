package sessions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dottenv/dating-bot/internal/domain/model"
	"github.com/dottenv/dating-bot/internal/services/delivery"
)

var (
	ErrValidation = errors.New("validation error")
	ErrUserBusy   = errors.New("user already in an active chat")
	ErrNoSession  = errors.New("no active chat session")
)

type ArchiveRecord struct {
	SessionID    string
	UserA        int64
	UserB        int64
	StartedAt    time.Time
	EndedAt      time.Time
	MessageCount int
	Revealed     bool
}

type HistoryStore interface {
	ArchiveSession(ctx context.Context, record ArchiveRecord) error
}

type ProfileSource interface {
	Snapshot(ctx context.Context, userID int64) (model.Profile, error)
}

type RatingSink interface {
	OnChatEnded(ctx context.Context, userA, userB int64, messageCount int, endedBy int64)
}

type Dependencies struct {
	Transport delivery.Transport
	History   HistoryStore
	Profiles  ProfileSource
	Ratings   RatingSink
	Logger    *zap.Logger
}

// Service owns every live chat session and its reveal request. All state
// lives behind one mutex; notifications and archive writes happen after
// the lock is released so a slow transport never stalls the state
// machine.
type Service struct {
	transport delivery.Transport
	history   HistoryStore
	profiles  ProfileSource
	ratings   RatingSink
	logger    *zap.Logger

	mu     sync.Mutex
	byUser map[int64]*model.ChatSession
	byID   map[string]*model.ChatSession
	deanon map[string]*model.DeanonRequest

	now   func() time.Time
	newID func() string
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		transport: deps.Transport,
		history:   deps.History,
		profiles:  deps.Profiles,
		ratings:   deps.Ratings,
		logger:    logger,
		byUser:    make(map[int64]*model.ChatSession),
		byID:      make(map[string]*model.ChatSession),
		deanon:    make(map[string]*model.DeanonRequest),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Create opens a session between two free users. A user already inside
// an active session makes the whole call fail: the caller re-validates
// and unwinds its own bookkeeping.
func (s *Service) Create(ctx context.Context, userA, userB int64) (model.ChatSession, error) {
	if userA <= 0 || userB <= 0 || userA == userB {
		return model.ChatSession{}, ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.byUser[userA]; busy {
		return model.ChatSession{}, fmt.Errorf("user %d: %w", userA, ErrUserBusy)
	}
	if _, busy := s.byUser[userB]; busy {
		return model.ChatSession{}, fmt.Errorf("user %d: %w", userB, ErrUserBusy)
	}

	session := &model.ChatSession{
		ID:        s.newID(),
		UserA:     userA,
		UserB:     userB,
		StartedAt: s.now(),
		State:     model.SessionActive,
	}
	s.byUser[userA] = session
	s.byUser[userB] = session
	s.byID[session.ID] = session

	s.logger.Info("chat session started",
		zap.String("session_id", session.ID),
		zap.Int64("user_a", userA),
		zap.Int64("user_b", userB),
	)

	return *session, nil
}

// Get returns the caller's active session. Both participants see the
// same session.
func (s *Service) Get(userID int64) (model.ChatSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.byUser[userID]
	if !ok {
		return model.ChatSession{}, false
	}
	return *session, true
}

// RecordMessage bumps the relayed message counter of the caller's
// session and returns the updated session.
func (s *Service) RecordMessage(userID int64) (model.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.byUser[userID]
	if !ok {
		return model.ChatSession{}, ErrNoSession
	}
	session.MessageCount++
	return *session, nil
}

// EndForUser closes the caller's session. Both sides are notified and
// the session is archived.
func (s *Service) EndForUser(ctx context.Context, userID int64) (model.ChatSession, error) {
	s.mu.Lock()
	session, ok := s.byUser[userID]
	if !ok {
		s.mu.Unlock()
		return model.ChatSession{}, ErrNoSession
	}
	ended, revealed := s.endLocked(session)
	s.mu.Unlock()

	s.afterEnd(ctx, ended, revealed, userID)
	return ended, nil
}

// ForceEnd terminates a session by id, typically because one participant
// became unreachable. Ending an already gone session is a no-op.
func (s *Service) ForceEnd(ctx context.Context, sessionID string, reason string) bool {
	s.mu.Lock()
	session, ok := s.byID[sessionID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	ended, revealed := s.endLocked(session)
	s.mu.Unlock()

	s.logger.Warn("chat session force-ended",
		zap.String("session_id", sessionID),
		zap.String("reason", reason),
	)
	s.afterEnd(ctx, ended, revealed, 0)
	return true
}

func (s *Service) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// endLocked removes the session and its reveal request from all indexes.
// Caller holds the mutex.
func (s *Service) endLocked(session *model.ChatSession) (model.ChatSession, bool) {
	session.State = model.SessionEnded
	delete(s.byUser, session.UserA)
	delete(s.byUser, session.UserB)
	delete(s.byID, session.ID)

	revealed := false
	if req, ok := s.deanon[session.ID]; ok {
		revealed = req.Revealed
		delete(s.deanon, session.ID)
	}

	return *session, revealed
}

// afterEnd runs the out-of-lock tail of session teardown: participant
// notifications, the history archive and rating rewards. endedBy is the
// user who asked for the end, zero for forced terminations.
func (s *Service) afterEnd(ctx context.Context, session model.ChatSession, revealed bool, endedBy int64) {
	endedAt := s.now()

	for _, userID := range []int64{session.UserA, session.UserB} {
		if userID == endedBy {
			continue
		}
		event := delivery.Event{
			Kind:      delivery.KindSessionEnded,
			SessionID: session.ID,
			PartnerID: session.PartnerOf(userID),
		}
		if err := s.deliver(ctx, userID, event); err != nil {
			s.logger.Warn("session end notification failed",
				zap.String("session_id", session.ID),
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
	}

	if s.history != nil {
		record := ArchiveRecord{
			SessionID:    session.ID,
			UserA:        session.UserA,
			UserB:        session.UserB,
			StartedAt:    session.StartedAt,
			EndedAt:      endedAt,
			MessageCount: session.MessageCount,
			Revealed:     revealed,
		}
		if err := s.history.ArchiveSession(ctx, record); err != nil {
			s.logger.Error("session archive failed",
				zap.String("session_id", session.ID),
				zap.Error(err),
			)
		}
	}

	if s.ratings != nil {
		s.ratings.OnChatEnded(ctx, session.UserA, session.UserB, session.MessageCount, endedBy)
	}

	s.logger.Info("chat session ended",
		zap.String("session_id", session.ID),
		zap.Int("message_count", session.MessageCount),
		zap.Bool("revealed", revealed),
	)
}

func (s *Service) deliver(ctx context.Context, userID int64, event delivery.Event) error {
	if s.transport == nil {
		return fmt.Errorf("transport is nil")
	}
	return s.transport.Deliver(ctx, userID, event)
}
