package model

import (
	"time"

	"github.com/dottenv/dating-bot/internal/domain/enums"
)

// QueueEntry is one waiting user in the search queue. A user id appears
// in at most one tier at any time.
type QueueEntry struct {
	UserID     int64      `json:"user_id"`
	Tier       enums.Tier `json:"tier"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
}
