package dto

import "time"

type SessionResponse struct {
	SessionID    string    `json:"session_id"`
	PartnerID    int64     `json:"partner_id"`
	StartedAt    time.Time `json:"started_at"`
	MessageCount int       `json:"message_count"`
	RevealState  string    `json:"reveal_state"`
}

type SessionEndResponse struct {
	Ended bool `json:"ended"`
}

type SessionMessageResponse struct {
	MessageCount int `json:"message_count"`
}
