package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/dottenv/dating-bot/internal/repo/redis"
)

func TestLimiterBlocksAfterMinuteBudget(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewRateRepo(client), 3)

	ctx := context.Background()
	userID := int64(42)

	for i := 0; i < 3; i++ {
		retryAfter, allowed, err := limiter.AllowSearch(ctx, userID)
		if err != nil {
			t.Fatalf("allow search #%d: %v", i+1, err)
		}
		if !allowed || retryAfter != 0 {
			t.Fatalf("unexpected result on allow #%d: allowed=%v retry_after=%d", i+1, allowed, retryAfter)
		}
	}

	retryAfter, allowed, err := limiter.AllowSearch(ctx, userID)
	if err != nil {
		t.Fatalf("allow search #4: %v", err)
	}
	if allowed {
		t.Fatal("expected limiter block on fourth search in a minute")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected positive retry_after, got %d", retryAfter)
	}

	mr.FastForward(61 * time.Second)

	retryAfter, allowed, err = limiter.AllowSearch(ctx, userID)
	if err != nil {
		t.Fatalf("allow search after window reset: %v", err)
	}
	if !allowed || retryAfter != 0 {
		t.Fatalf("unexpected result after fast forward: allowed=%v retry_after=%d", allowed, retryAfter)
	}
}

func TestLimiterZeroBudgetDisablesLimit(t *testing.T) {
	limiter := NewLimiter(nil, 0)

	for i := 0; i < 5; i++ {
		retryAfter, allowed, err := limiter.AllowSearch(context.Background(), 7)
		if err != nil {
			t.Fatalf("allow search #%d: %v", i+1, err)
		}
		if !allowed || retryAfter != 0 {
			t.Fatalf("disabled limiter must always allow: allowed=%v retry_after=%d", allowed, retryAfter)
		}
	}
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})

	return mr, client
}
