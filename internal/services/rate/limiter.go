package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const searchWindow = time.Minute

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Limiter caps how often a user may start a partner search. The window
// is a fixed minute backed by a counter with TTL.
type Limiter struct {
	store     WindowStore
	perMinute int
}

func NewLimiter(store WindowStore, perMinute int) *Limiter {
	if perMinute < 0 {
		perMinute = 0
	}
	return &Limiter{store: store, perMinute: perMinute}
}

// AllowSearch consumes one search attempt. When the budget is spent it
// returns allowed=false with the number of seconds until the window
// resets. A zero perMinute disables the limit.
func (l *Limiter) AllowSearch(ctx context.Context, userID int64) (int64, bool, error) {
	if userID <= 0 {
		return 0, false, fmt.Errorf("invalid user id")
	}
	if l.perMinute == 0 {
		return 0, true, nil
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	count, ttl, err := l.store.IncrementWindow(ctx, searchKey(userID), searchWindow)
	if err != nil {
		return 0, false, err
	}
	if count > int64(l.perMinute) {
		return ceilSeconds(ttl), false, nil
	}

	return 0, true, nil
}

func searchKey(userID int64) string {
	return "rate:search:min:" + strconv.FormatInt(userID, 10)
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}
