package profiles

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dottenv/dating-bot/internal/domain/model"
	pgrepo "github.com/dottenv/dating-bot/internal/repo/postgres"
	redrepo "github.com/dottenv/dating-bot/internal/repo/redis"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("profile not found")
)

type Store interface {
	Get(ctx context.Context, userID int64) (model.Profile, error)
	SetActive(ctx context.Context, userID int64, active bool) error
}

type Cache interface {
	Get(ctx context.Context, userID int64) (model.Profile, error)
	Set(ctx context.Context, profile model.Profile) error
	Invalidate(ctx context.Context, userID int64) error
}

type Service struct {
	store  Store
	cache  Cache
	logger *zap.Logger
}

func NewService(store Store, cache Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, cache: cache, logger: logger}
}

// Snapshot returns the current profile, preferring the cache. Cache
// trouble is never fatal: the primary store stays authoritative.
func (s *Service) Snapshot(ctx context.Context, userID int64) (model.Profile, error) {
	if userID <= 0 {
		return model.Profile{}, ErrValidation
	}
	if s.store == nil {
		return model.Profile{}, fmt.Errorf("profile store is nil")
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, redrepo.ErrCacheMiss) {
			s.logger.Warn("profile cache read failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	profile, err := s.store.Get(ctx, userID)
	if errors.Is(err, pgrepo.ErrProfileNotFound) {
		return model.Profile{}, ErrNotFound
	}
	if err != nil {
		return model.Profile{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, profile); err != nil {
			s.logger.Warn("profile cache write failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	return profile, nil
}

func (s *Service) SetActive(ctx context.Context, userID int64, active bool) error {
	if userID <= 0 {
		return ErrValidation
	}
	if s.store == nil {
		return fmt.Errorf("profile store is nil")
	}

	if err := s.store.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.Invalidate(ctx, userID)
	return nil
}

// Invalidate drops the cached snapshot so the next read hits the store.
func (s *Service) Invalidate(ctx context.Context, userID int64) {
	if s.cache == nil || userID <= 0 {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("profile cache invalidation failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}
