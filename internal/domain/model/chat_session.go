package model

import "time"

type SessionState string

const (
	SessionActive SessionState = "active"
	SessionEnded  SessionState = "ended"
)

// ChatSession is the live pairing between two anonymous users, from
// match to end. Process-lifetime state: sessions do not survive a
// restart; durable history is archived separately.
type ChatSession struct {
	ID           string       `json:"id"`
	UserA        int64        `json:"user_a"`
	UserB        int64        `json:"user_b"`
	StartedAt    time.Time    `json:"started_at"`
	MessageCount int          `json:"message_count"`
	State        SessionState `json:"state"`
}

// PartnerOf resolves the other participant, or 0 if the user is not a
// member of the session.
func (s ChatSession) PartnerOf(userID int64) int64 {
	switch userID {
	case s.UserA:
		return s.UserB
	case s.UserB:
		return s.UserA
	default:
		return 0
	}
}

func (s ChatSession) Has(userID int64) bool {
	return userID == s.UserA || userID == s.UserB
}
