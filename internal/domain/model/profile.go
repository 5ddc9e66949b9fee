package model

import "github.com/dottenv/dating-bot/internal/domain/enums"

// Profile is a read-only snapshot of a user's questionnaire. The pairing
// core never mutates it; it is fetched through the profiles service and
// may be slightly stale.
type Profile struct {
	UserID      int64             `json:"user_id"`
	DisplayName string            `json:"display_name"`
	Age         int               `json:"age"`
	City        string            `json:"city"`
	Bio         string            `json:"bio"`
	Tags        []string          `json:"tags"`
	Gender      enums.Gender      `json:"gender"`
	Orientation enums.Orientation `json:"orientation"`
	Goal        enums.DatingGoal  `json:"goal"`
	Rating      int               `json:"rating"`
	IsActive    bool              `json:"is_active"`
	Completed   bool              `json:"completed"`
}

// Eligible reports whether the profile may enter matchmaking at all.
func (p Profile) Eligible() bool {
	return p.IsActive && p.Completed
}
