package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dottenv/dating-bot/internal/domain/model"
)

// ErrCacheMiss means the profile snapshot is not cached. Callers fall
// through to the primary store.
var ErrCacheMiss = errors.New("profile cache miss")

type ProfileCacheRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewProfileCacheRepo(client *goredis.Client, ttl time.Duration) *ProfileCacheRepo {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProfileCacheRepo{client: client, ttl: ttl}
}

func (r *ProfileCacheRepo) Get(ctx context.Context, userID int64) (model.Profile, error) {
	if r.client == nil {
		return model.Profile{}, fmt.Errorf("redis client is nil")
	}
	if userID <= 0 {
		return model.Profile{}, fmt.Errorf("invalid user id")
	}

	data, err := r.client.Get(ctx, profileKey(userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return model.Profile{}, ErrCacheMiss
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("get cached profile: %w", err)
	}

	var profile model.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return model.Profile{}, fmt.Errorf("decode cached profile: %w", err)
	}

	return profile, nil
}

func (r *ProfileCacheRepo) Set(ctx context.Context, profile model.Profile) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if profile.UserID <= 0 {
		return fmt.Errorf("invalid profile payload")
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode cached profile: %w", err)
	}

	if err := r.client.Set(ctx, profileKey(profile.UserID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set cached profile: %w", err)
	}

	return nil
}

func (r *ProfileCacheRepo) Invalidate(ctx context.Context, userID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if userID <= 0 {
		return fmt.Errorf("invalid user id")
	}

	if err := r.client.Del(ctx, profileKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate cached profile: %w", err)
	}

	return nil
}

func profileKey(userID int64) string {
	return "cache:profile:" + strconv.FormatInt(userID, 10)
}
