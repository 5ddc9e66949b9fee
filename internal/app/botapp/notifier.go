package botapp

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	tginfra "github.com/dottenv/dating-bot/internal/infra/telegram"
	"github.com/dottenv/dating-bot/internal/services/delivery"
)

// notifier pushes service events to users over Telegram. For private
// chats the chat id equals the user id. A send failure propagates so the
// services can treat the user as unreachable.
type notifier struct {
	bot    *tginfra.Bot
	logger *zap.Logger
}

func (n *notifier) Deliver(ctx context.Context, userID int64, event delivery.Event) error {
	switch event.Kind {
	case delivery.KindMatchFound:
		return n.bot.SendText(ctx, userID, matchFoundText(event))
	case delivery.KindSearchTimeout:
		return n.bot.SendText(ctx, userID, "Nobody around right now. Try /search again a bit later.")
	case delivery.KindSessionEnded:
		return n.bot.SendText(ctx, userID, "Your partner left the chat. /search to find a new one.")
	case delivery.KindRevealPrompt:
		return n.bot.SendKeyboard(ctx, userID,
			"Your partner wants to swap profiles. Agree?",
			[]tginfra.InlineButton{
				{Label: "Yes", Data: callbackRevealYes},
				{Label: "No", Data: callbackRevealNo},
			},
		)
	case delivery.KindRevealDeclined:
		return n.bot.SendText(ctx, userID, "Your partner prefers to stay anonymous for now.")
	case delivery.KindRevealed:
		return n.bot.SendText(ctx, userID, revealedText(event))
	default:
		n.logger.Warn("unknown event kind", zap.String("kind", string(event.Kind)))
		return nil
	}
}

func matchFoundText(event delivery.Event) string {
	var b strings.Builder
	b.WriteString("Partner found! Say hi - everything you type here goes to them.")
	if len(event.Reasons) > 0 {
		b.WriteString("\nWhy you might click: ")
		b.WriteString(strings.Join(event.Reasons, ", "))
	}
	return b.String()
}

func revealedText(event delivery.Event) string {
	if event.Profile == nil {
		return "Profiles swapped!"
	}

	p := event.Profile
	var b strings.Builder
	b.WriteString("Profiles swapped! Your partner:\n")
	fmt.Fprintf(&b, "%s, %d", p.DisplayName, p.Age)
	if p.City != "" {
		fmt.Fprintf(&b, ", %s", p.City)
	}
	if p.Bio != "" {
		b.WriteString("\n")
		b.WriteString(p.Bio)
	}
	return b.String()
}
