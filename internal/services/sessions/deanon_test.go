package sessions

import (
	"context"
	"errors"
	"testing"

	"github.com/dottenv/dating-bot/internal/domain/model"
	"github.com/dottenv/dating-bot/internal/services/delivery"
)

func TestRevealHappyPath(t *testing.T) {
	transport := newStubTransport()
	service, history := newSessionService(transport)

	ctx := context.Background()
	if _, err := service.Create(ctx, 1, 2); err != nil {
		t.Fatalf("create: %v", err)
	}

	state, err := service.RequestReveal(ctx, 1)
	if err != nil {
		t.Fatalf("request reveal: %v", err)
	}
	if state != model.DeanonPending {
		t.Fatalf("unexpected state after first request: %s", state)
	}
	if transport.lastKind(2) != delivery.KindRevealPrompt {
		t.Fatalf("partner must receive a reveal prompt, got %+v", transport.eventsFor(2))
	}

	state, err = service.RespondReveal(ctx, 2, true)
	if err != nil {
		t.Fatalf("respond reveal: %v", err)
	}
	if state != model.DeanonRevealed {
		t.Fatalf("unexpected state after mutual consent: %s", state)
	}

	revealedToA := transport.eventsFor(1)
	if len(revealedToA) == 0 || revealedToA[len(revealedToA)-1].Kind != delivery.KindRevealed {
		t.Fatalf("user a events: %+v", revealedToA)
	}
	profile := revealedToA[len(revealedToA)-1].Profile
	if profile == nil || profile.UserID != 2 || profile.DisplayName != "beta" {
		t.Fatalf("user a must see the partner profile, got %+v", profile)
	}
	if transport.lastKind(2) != delivery.KindRevealed {
		t.Fatalf("user b events: %+v", transport.eventsFor(2))
	}

	// chat continues after the reveal
	if _, ok := service.Get(1); !ok {
		t.Fatal("session must stay active after reveal")
	}
	if service.RevealState(1) != model.DeanonRevealed {
		t.Fatal("reveal state must stick")
	}

	if _, err := service.EndForUser(ctx, 2); err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(history.records) != 1 || !history.records[0].Revealed {
		t.Fatalf("archive must record the reveal: %+v", history.records)
	}
}

func TestRevealDualInitiationMerges(t *testing.T) {
	transport := newStubTransport()
	service, _ := newSessionService(transport)

	ctx := context.Background()
	if _, err := service.Create(ctx, 1, 2); err != nil {
		t.Fatalf("create: %v", err)
	}

	if state, err := service.RequestReveal(ctx, 1); err != nil || state != model.DeanonPending {
		t.Fatalf("first request: state=%s err=%v", state, err)
	}
	state, err := service.RequestReveal(ctx, 2)
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	if state != model.DeanonRevealed {
		t.Fatalf("two independent requests must merge into a reveal, got %s", state)
	}
}

func TestRevealDeclineResetsRequest(t *testing.T) {
	transport := newStubTransport()
	service, _ := newSessionService(transport)

	ctx := context.Background()
	if _, err := service.Create(ctx, 1, 2); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := service.RequestReveal(ctx, 1); err != nil {
		t.Fatalf("request reveal: %v", err)
	}
	state, err := service.RespondReveal(ctx, 2, false)
	if err != nil {
		t.Fatalf("decline reveal: %v", err)
	}
	if state != model.DeanonNoRequest {
		t.Fatalf("decline must reset the request, got %s", state)
	}
	if transport.lastKind(1) != delivery.KindRevealDeclined {
		t.Fatalf("requester must learn about the decline: %+v", transport.eventsFor(1))
	}

	// either side may start over after a decline
	if state, err := service.RequestReveal(ctx, 2); err != nil || state != model.DeanonPending {
		t.Fatalf("re-initiation after decline: state=%s err=%v", state, err)
	}
}

func TestRespondWithoutRequest(t *testing.T) {
	service, _ := newSessionService(newStubTransport())

	ctx := context.Background()
	if _, err := service.Create(ctx, 1, 2); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := service.RespondReveal(ctx, 2, true); !errors.Is(err, ErrNoRevealRequest) {
		t.Fatalf("expected ErrNoRevealRequest, got %v", err)
	}
	if _, err := service.RespondReveal(ctx, 9, true); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession for stranger, got %v", err)
	}
}

func TestRepeatRequestAfterRevealIsNoop(t *testing.T) {
	transport := newStubTransport()
	service, _ := newSessionService(transport)

	ctx := context.Background()
	if _, err := service.Create(ctx, 1, 2); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.RequestReveal(ctx, 1); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := service.RespondReveal(ctx, 2, true); err != nil {
		t.Fatalf("approve: %v", err)
	}

	delivered := len(transport.eventsFor(1))

	state, err := service.RequestReveal(ctx, 1)
	if err != nil {
		t.Fatalf("repeat request: %v", err)
	}
	if state != model.DeanonRevealed {
		t.Fatalf("repeat request must report revealed, got %s", state)
	}
	if len(transport.eventsFor(1)) != delivered {
		t.Fatal("identities must be delivered exactly once")
	}
}

func TestRevealRequestDiesWithSession(t *testing.T) {
	service, _ := newSessionService(newStubTransport())

	ctx := context.Background()
	if _, err := service.Create(ctx, 1, 2); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.RequestReveal(ctx, 1); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := service.EndForUser(ctx, 1); err != nil {
		t.Fatalf("end: %v", err)
	}

	if _, err := service.Create(ctx, 1, 2); err != nil {
		t.Fatalf("second create: %v", err)
	}
	if state := service.RevealState(1); state != model.DeanonNoRequest {
		t.Fatalf("new session must start without a reveal request, got %s", state)
	}
}

func TestRevealDeliveryFailureEndsSession(t *testing.T) {
	transport := newStubTransport()
	service, _ := newSessionService(transport)

	ctx := context.Background()
	if _, err := service.Create(ctx, 1, 2); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.RequestReveal(ctx, 1); err != nil {
		t.Fatalf("request: %v", err)
	}

	transport.fail[1] = true

	if _, err := service.RespondReveal(ctx, 2, true); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if service.ActiveCount() != 0 {
		t.Fatal("undeliverable reveal must terminate the session")
	}
}
