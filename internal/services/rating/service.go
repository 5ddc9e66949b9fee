package rating

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var ErrValidation = errors.New("validation error")

// Deltas applied on chat outcomes. The store clamps the stored value to
// [0, 1000] on its own.
const (
	DeltaChatCompleted = 5
	DeltaChatAbandoned = -3
	DeltaReported      = -25
	maxAdjustMagnitude = 100
	completedChatFloor = 10
)

type Store interface {
	AdjustRating(ctx context.Context, userID int64, delta int) (int, error)
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context, userID int64)
}

type Service struct {
	store  Store
	cache  CacheInvalidator
	logger *zap.Logger
}

func NewService(store Store, cache CacheInvalidator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, cache: cache, logger: logger}
}

// Adjust shifts the user's rating by delta and returns the new value.
func (s *Service) Adjust(ctx context.Context, userID int64, delta int, reason string) (int, error) {
	if userID <= 0 {
		return 0, ErrValidation
	}
	if delta == 0 || delta > maxAdjustMagnitude || delta < -maxAdjustMagnitude {
		return 0, ErrValidation
	}
	if s.store == nil {
		return 0, fmt.Errorf("rating store is nil")
	}

	rating, err := s.store.AdjustRating(ctx, userID, delta)
	if err != nil {
		return 0, fmt.Errorf("adjust rating: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}

	s.logger.Info("rating adjusted",
		zap.Int64("user_id", userID),
		zap.Int("delta", delta),
		zap.Int("rating", rating),
		zap.String("reason", reason),
	)

	return rating, nil
}

// OnChatEnded settles ratings for a finished chat: both sides earn the
// completion reward after a substantial exchange, a user who walks out
// early pays the abandonment penalty. endedBy is zero for forced
// terminations, which are nobody's fault.
func (s *Service) OnChatEnded(ctx context.Context, userA, userB int64, messageCount int, endedBy int64) {
	if messageCount >= completedChatFloor {
		for _, userID := range []int64{userA, userB} {
			if _, err := s.Adjust(ctx, userID, DeltaChatCompleted, "completed chat"); err != nil {
				s.logger.Warn("chat completion reward failed", zap.Int64("user_id", userID), zap.Error(err))
			}
		}
		return
	}

	if endedBy != userA && endedBy != userB {
		return
	}
	if _, err := s.Adjust(ctx, endedBy, DeltaChatAbandoned, "abandoned chat"); err != nil {
		s.logger.Warn("chat abandonment penalty failed", zap.Int64("user_id", endedBy), zap.Error(err))
	}
}

// OnReported penalizes a user whose partner blocked them mid-chat.
func (s *Service) OnReported(ctx context.Context, userID int64) {
	if _, err := s.Adjust(ctx, userID, DeltaReported, "reported by partner"); err != nil {
		s.logger.Warn("report penalty failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}
