package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
)

func TestSessionGetWithoutChat(t *testing.T) {
	f := newHandlerFixture(t, nil)
	handler := NewSessionHandler(f.sessions)

	rr := doRequest(t, handler.Get, http.MethodGet, "/v1/chat", 1, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestSessionGetReturnsPartner(t *testing.T) {
	f := newHandlerFixture(t, nil)
	handler := NewSessionHandler(f.sessions)

	if _, err := f.sessions.Create(context.Background(), 1, 2); err != nil {
		t.Fatalf("create session: %v", err)
	}

	rr := doRequest(t, handler.Get, http.MethodGet, "/v1/chat", 1, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body: %s", rr.Code, rr.Body.String())
	}

	var payload struct {
		PartnerID   int64  `json:"partner_id"`
		RevealState string `json:"reveal_state"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.PartnerID != 2 || payload.RevealState != "no_request" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestSessionEndIsIdempotent(t *testing.T) {
	f := newHandlerFixture(t, nil)
	handler := NewSessionHandler(f.sessions)

	if _, err := f.sessions.Create(context.Background(), 1, 2); err != nil {
		t.Fatalf("create session: %v", err)
	}

	rr := doRequest(t, handler.End, http.MethodDelete, "/v1/chat", 1, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("first end status: %d", rr.Code)
	}
	var payload struct {
		Ended bool `json:"ended"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.Ended {
		t.Fatal("first end must report ended")
	}

	rr = doRequest(t, handler.End, http.MethodDelete, "/v1/chat", 1, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("second end status: %d", rr.Code)
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Ended {
		t.Fatal("second end must be a no-op")
	}
}

func TestSessionMessageCountsRelayedTraffic(t *testing.T) {
	f := newHandlerFixture(t, nil)
	handler := NewSessionHandler(f.sessions)

	if _, err := f.sessions.Create(context.Background(), 1, 2); err != nil {
		t.Fatalf("create session: %v", err)
	}

	rr := doRequest(t, handler.Message, http.MethodPost, "/v1/chat/message", 1, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var payload struct {
		MessageCount int `json:"message_count"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.MessageCount != 1 {
		t.Fatalf("unexpected message count: %d", payload.MessageCount)
	}
}

func TestRevealFlowOverHTTP(t *testing.T) {
	f := newHandlerFixture(t, nil)
	handler := NewRevealHandler(f.sessions)

	if _, err := f.sessions.Create(context.Background(), 1, 2); err != nil {
		t.Fatalf("create session: %v", err)
	}

	rr := doRequest(t, handler.Request, http.MethodPost, "/v1/chat/reveal", 1, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("request status: %d body: %s", rr.Code, rr.Body.String())
	}
	var payload struct {
		State string `json:"state"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.State != "pending" {
		t.Fatalf("unexpected state: %s", payload.State)
	}

	rr = doRequest(t, handler.Decide, http.MethodPost, "/v1/chat/reveal/decision", 2, `{"approve":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("decision status: %d body: %s", rr.Code, rr.Body.String())
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.State != "revealed" {
		t.Fatalf("unexpected state: %s", payload.State)
	}
}

func TestRevealDecisionWithoutRequestConflicts(t *testing.T) {
	f := newHandlerFixture(t, nil)
	handler := NewRevealHandler(f.sessions)

	if _, err := f.sessions.Create(context.Background(), 1, 2); err != nil {
		t.Fatalf("create session: %v", err)
	}

	rr := doRequest(t, handler.Decide, http.MethodPost, "/v1/chat/reveal/decision", 2, `{"approve":true}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("unexpected status: %d body: %s", rr.Code, rr.Body.String())
	}
}
