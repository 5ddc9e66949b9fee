package delivery

import (
	"context"

	"go.uber.org/zap"

	"github.com/dottenv/dating-bot/internal/domain/model"
)

type Kind string

const (
	KindMatchFound     Kind = "match_found"
	KindSearchTimeout  Kind = "search_timeout"
	KindSessionEnded   Kind = "session_ended"
	KindRevealPrompt   Kind = "reveal_prompt"
	KindRevealDeclined Kind = "reveal_declined"
	KindRevealed       Kind = "revealed"
)

// Event is a single out-of-band notification for one user. PartnerID and
// Profile describe the other side of the chat, never the recipient.
type Event struct {
	Kind      Kind
	SessionID string
	PartnerID int64
	Score     float64
	Reasons   []string
	Profile   *model.Profile
}

// Transport pushes events to users. A failed delivery means the recipient
// is unreachable and the caller must not assume the event arrived.
type Transport interface {
	Deliver(ctx context.Context, userID int64, event Event) error
}

// LogTransport is the fallback for deployments without a bot attached. It
// records every event and always reports success.
type LogTransport struct {
	logger *zap.Logger
}

func NewLogTransport(logger *zap.Logger) *LogTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Deliver(_ context.Context, userID int64, event Event) error {
	t.logger.Info("event delivered to log transport",
		zap.Int64("user_id", userID),
		zap.String("kind", string(event.Kind)),
		zap.String("session_id", event.SessionID),
	)
	return nil
}
