package model

import "time"

type DeanonState string

const (
	DeanonNoRequest DeanonState = "no_request"
	DeanonPending   DeanonState = "pending"
	DeanonRevealed  DeanonState = "revealed"
)

// DeanonRequest tracks the two-party consent to reveal identities inside
// one chat session. It is created lazily on the first request and cannot
// outlive its session.
type DeanonRequest struct {
	SessionID   string    `json:"session_id"`
	ApprovalA   bool      `json:"approval_a"`
	ApprovalB   bool      `json:"approval_b"`
	Revealed    bool      `json:"revealed"`
	RequestedAt time.Time `json:"requested_at"`
}
