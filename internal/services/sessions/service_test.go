package sessions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dottenv/dating-bot/internal/domain/model"
	"github.com/dottenv/dating-bot/internal/services/delivery"
)

type stubTransport struct {
	mu     sync.Mutex
	events map[int64][]delivery.Event
	fail   map[int64]bool
}

func newStubTransport() *stubTransport {
	return &stubTransport{
		events: make(map[int64][]delivery.Event),
		fail:   make(map[int64]bool),
	}
}

func (t *stubTransport) Deliver(_ context.Context, userID int64, event delivery.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.fail[userID] {
		return fmt.Errorf("user %d unreachable", userID)
	}
	t.events[userID] = append(t.events[userID], event)
	return nil
}

func (t *stubTransport) eventsFor(userID int64) []delivery.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]delivery.Event(nil), t.events[userID]...)
}

func (t *stubTransport) lastKind(userID int64) delivery.Kind {
	events := t.eventsFor(userID)
	if len(events) == 0 {
		return ""
	}
	return events[len(events)-1].Kind
}

type stubHistory struct {
	mu      sync.Mutex
	records []ArchiveRecord
	err     error
}

func (h *stubHistory) ArchiveSession(_ context.Context, record ArchiveRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.err != nil {
		return h.err
	}
	h.records = append(h.records, record)
	return nil
}

type stubProfiles struct {
	profiles map[int64]model.Profile
}

func (p *stubProfiles) Snapshot(_ context.Context, userID int64) (model.Profile, error) {
	profile, ok := p.profiles[userID]
	if !ok {
		return model.Profile{}, errors.New("profile not found")
	}
	return profile, nil
}

type stubRatings struct {
	mu      sync.Mutex
	calls   []int
	endedBy []int64
}

func (r *stubRatings) OnChatEnded(_ context.Context, _, _ int64, messageCount int, endedBy int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, messageCount)
	r.endedBy = append(r.endedBy, endedBy)
}

func newSessionService(transport *stubTransport) (*Service, *stubHistory) {
	history := &stubHistory{}
	profiles := &stubProfiles{profiles: map[int64]model.Profile{
		1: {UserID: 1, DisplayName: "alpha", City: "Berlin"},
		2: {UserID: 2, DisplayName: "beta", City: "Berlin"},
	}}
	service := NewService(Dependencies{
		Transport: transport,
		History:   history,
		Profiles:  profiles,
	})
	return service, history
}

func TestCreateAndSymmetricGet(t *testing.T) {
	service, _ := newSessionService(newStubTransport())

	session, err := service.Create(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if session.State != model.SessionActive {
		t.Fatalf("unexpected state: %s", session.State)
	}

	fromA, okA := service.Get(1)
	fromB, okB := service.Get(2)
	if !okA || !okB {
		t.Fatal("both participants must see the session")
	}
	if fromA.ID != session.ID || fromB.ID != session.ID {
		t.Fatalf("session id mismatch: %s %s %s", session.ID, fromA.ID, fromB.ID)
	}
	if fromA.PartnerOf(1) != 2 || fromB.PartnerOf(2) != 1 {
		t.Fatal("partner resolution broken")
	}
}

func TestCreateRejectsBusyUser(t *testing.T) {
	service, _ := newSessionService(newStubTransport())

	if _, err := service.Create(context.Background(), 1, 2); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := service.Create(context.Background(), 1, 3); !errors.Is(err, ErrUserBusy) {
		t.Fatalf("expected ErrUserBusy, got %v", err)
	}
	if _, err := service.Create(context.Background(), 3, 2); !errors.Is(err, ErrUserBusy) {
		t.Fatalf("expected ErrUserBusy, got %v", err)
	}
	if _, err := service.Create(context.Background(), 5, 5); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for self pairing, got %v", err)
	}
}

func TestRecordMessageCounts(t *testing.T) {
	service, _ := newSessionService(newStubTransport())

	if _, err := service.Create(context.Background(), 1, 2); err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := service.RecordMessage(1); err != nil {
			t.Fatalf("record message #%d: %v", i+1, err)
		}
	}
	session, err := service.RecordMessage(2)
	if err != nil {
		t.Fatalf("record message from b: %v", err)
	}
	if session.MessageCount != 4 {
		t.Fatalf("unexpected message count: %d", session.MessageCount)
	}

	if _, err := service.RecordMessage(9); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession for stranger, got %v", err)
	}
}

func TestEndNotifiesPartnerAndArchives(t *testing.T) {
	transport := newStubTransport()
	service, history := newSessionService(transport)

	ctx := context.Background()
	if _, err := service.Create(ctx, 1, 2); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.RecordMessage(1); err != nil {
		t.Fatalf("record message: %v", err)
	}

	ended, err := service.EndForUser(ctx, 1)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if ended.State != model.SessionEnded {
		t.Fatalf("unexpected state: %s", ended.State)
	}

	if len(transport.eventsFor(1)) != 0 {
		t.Fatal("the ender must not receive an end notification")
	}
	if transport.lastKind(2) != delivery.KindSessionEnded {
		t.Fatalf("partner events: %+v", transport.eventsFor(2))
	}

	if len(history.records) != 1 {
		t.Fatalf("expected one archive record, got %d", len(history.records))
	}
	record := history.records[0]
	if record.SessionID != ended.ID || record.MessageCount != 1 || record.Revealed {
		t.Fatalf("unexpected archive record: %+v", record)
	}

	if _, err := service.EndForUser(ctx, 1); !errors.Is(err, ErrNoSession) {
		t.Fatalf("second end must report no session, got %v", err)
	}
	if _, ok := service.Get(2); ok {
		t.Fatal("partner must be free after end")
	}
}

func TestEndRewardsSubstantialChats(t *testing.T) {
	transport := newStubTransport()
	ratings := &stubRatings{}
	service := NewService(Dependencies{
		Transport: transport,
		Ratings:   ratings,
	})

	ctx := context.Background()
	if _, err := service.Create(ctx, 1, 2); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 12; i++ {
		if _, err := service.RecordMessage(1); err != nil {
			t.Fatalf("record message: %v", err)
		}
	}
	if _, err := service.EndForUser(ctx, 2); err != nil {
		t.Fatalf("end: %v", err)
	}

	if len(ratings.calls) != 1 || ratings.calls[0] != 12 {
		t.Fatalf("unexpected rating sink calls: %v", ratings.calls)
	}
	if ratings.endedBy[0] != 2 {
		t.Fatalf("sink must learn who ended the chat, got %d", ratings.endedBy[0])
	}
}

func TestForceEndReportsNobodyAsEnder(t *testing.T) {
	ratings := &stubRatings{}
	service := NewService(Dependencies{
		Transport: newStubTransport(),
		Ratings:   ratings,
	})

	ctx := context.Background()
	session, err := service.Create(ctx, 1, 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !service.ForceEnd(ctx, session.ID, "unreachable") {
		t.Fatal("force end must succeed")
	}

	if len(ratings.endedBy) != 1 || ratings.endedBy[0] != 0 {
		t.Fatalf("forced end must carry no ender, got %v", ratings.endedBy)
	}
}

func TestForceEndNotifiesBothSides(t *testing.T) {
	transport := newStubTransport()
	service, _ := newSessionService(transport)

	ctx := context.Background()
	session, err := service.Create(ctx, 1, 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if !service.ForceEnd(ctx, session.ID, "test") {
		t.Fatal("force end must succeed for a live session")
	}
	if service.ForceEnd(ctx, session.ID, "test") {
		t.Fatal("force end must be a no-op for a gone session")
	}

	if transport.lastKind(1) != delivery.KindSessionEnded || transport.lastKind(2) != delivery.KindSessionEnded {
		t.Fatal("both participants must learn about the forced end")
	}
	if service.ActiveCount() != 0 {
		t.Fatalf("unexpected active sessions: %d", service.ActiveCount())
	}
}
