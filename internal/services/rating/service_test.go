package rating

import (
	"context"
	"testing"
)

type stubRatingStore struct {
	ratings map[int64]int
	calls   int
}

func (s *stubRatingStore) AdjustRating(_ context.Context, userID int64, delta int) (int, error) {
	s.calls++
	rating := s.ratings[userID] + delta
	if rating < 0 {
		rating = 0
	}
	if rating > 1000 {
		rating = 1000
	}
	s.ratings[userID] = rating
	return rating, nil
}

func TestAdjustAppliesDelta(t *testing.T) {
	store := &stubRatingStore{ratings: map[int64]int{1: 400}}
	service := NewService(store, nil, nil)

	rating, err := service.Adjust(context.Background(), 1, DeltaChatCompleted, "completed chat")
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if rating != 405 {
		t.Fatalf("unexpected rating: %d", rating)
	}
}

func TestAdjustRejectsBadInput(t *testing.T) {
	store := &stubRatingStore{ratings: map[int64]int{}}
	service := NewService(store, nil, nil)

	if _, err := service.Adjust(context.Background(), 0, 5, "x"); err != ErrValidation {
		t.Fatalf("expected validation error for user id, got %v", err)
	}
	if _, err := service.Adjust(context.Background(), 1, 0, "x"); err != ErrValidation {
		t.Fatalf("expected validation error for zero delta, got %v", err)
	}
	if _, err := service.Adjust(context.Background(), 1, 500, "x"); err != ErrValidation {
		t.Fatalf("expected validation error for oversized delta, got %v", err)
	}
	if store.calls != 0 {
		t.Fatalf("store must stay untouched on validation errors, got %d calls", store.calls)
	}
}

func TestOnChatEndedRewardsBothSides(t *testing.T) {
	store := &stubRatingStore{ratings: map[int64]int{1: 100, 2: 200}}
	service := NewService(store, nil, nil)

	service.OnChatEnded(context.Background(), 1, 2, 25, 1)

	if store.ratings[1] != 100+DeltaChatCompleted || store.ratings[2] != 200+DeltaChatCompleted {
		t.Fatalf("unexpected ratings: %v", store.ratings)
	}
}

func TestOnChatEndedPenalizesEarlyLeaver(t *testing.T) {
	store := &stubRatingStore{ratings: map[int64]int{1: 100, 2: 200}}
	service := NewService(store, nil, nil)

	service.OnChatEnded(context.Background(), 1, 2, 2, 1)

	if store.ratings[1] != 100+DeltaChatAbandoned {
		t.Fatalf("leaver must pay the abandonment penalty, got %d", store.ratings[1])
	}
	if store.ratings[2] != 200 {
		t.Fatalf("the other side must keep their rating, got %d", store.ratings[2])
	}
}

func TestOnChatEndedForcedShortChatLeavesRatings(t *testing.T) {
	store := &stubRatingStore{ratings: map[int64]int{1: 100, 2: 200}}
	service := NewService(store, nil, nil)

	service.OnChatEnded(context.Background(), 1, 2, 2, 0)

	if store.calls != 0 {
		t.Fatalf("forced short chat must not touch ratings, got %d calls", store.calls)
	}
}

func TestOnReportedAppliesPenalty(t *testing.T) {
	store := &stubRatingStore{ratings: map[int64]int{2: 200}}
	service := NewService(store, nil, nil)

	service.OnReported(context.Background(), 2)

	if store.ratings[2] != 200+DeltaReported {
		t.Fatalf("unexpected rating after report: %d", store.ratings[2])
	}
}
