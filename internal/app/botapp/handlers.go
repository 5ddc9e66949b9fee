package botapp

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dottenv/dating-bot/internal/domain/model"
	tginfra "github.com/dottenv/dating-bot/internal/infra/telegram"
	matchingsvc "github.com/dottenv/dating-bot/internal/services/matching"
	profilesvc "github.com/dottenv/dating-bot/internal/services/profiles"
	sessionsvc "github.com/dottenv/dating-bot/internal/services/sessions"
)

const (
	welcomeText = "Hi! This is anonymous chat. Use /search to find a partner, " +
		"/end to leave a chat, /reveal to offer swapping profiles."
	searchingText     = "Looking for a partner, hang on..."
	searchRepeatText  = "Already searching. I will ping you the moment someone shows up."
	noProfileText     = "Finish your profile first, then come back for /search."
	notEligibleText   = "Your profile is incomplete or deactivated. Fix it and try /search again."
	inChatText        = "You are already chatting. /end the current chat before searching again."
	cancelledText     = "Search stopped."
	nothingToStopText = "No search is running."
	noChatText        = "You are not in a chat right now. Try /search."
	chatEndedByYou    = "You left the chat."
	blockedText       = "Partner blocked and the chat is closed. They will not come up again."
	unknownCmdText    = "I know /search, /cancel, /end, /reveal, /block and /status."

	callbackRevealYes = "reveal:yes"
	callbackRevealNo  = "reveal:no"
)

// handleCommand never returns an error for user-level failures: a bad
// command must not take the listener down.
func (a *App) handleCommand(ctx context.Context, update tginfra.CommandUpdate) error {
	switch update.Command {
	case "start":
		a.reply(ctx, update.ChatID, welcomeText)
	case "search":
		a.startSearch(ctx, update)
	case "cancel":
		if a.matching.CancelSearch(update.UserID) {
			a.reply(ctx, update.ChatID, cancelledText)
		} else {
			a.reply(ctx, update.ChatID, nothingToStopText)
		}
	case "end":
		a.endChat(ctx, update)
	case "reveal":
		a.requestReveal(ctx, update)
	case "block":
		a.blockPartner(ctx, update)
	case "status":
		a.reportStatus(ctx, update)
	default:
		a.reply(ctx, update.ChatID, unknownCmdText)
	}
	return nil
}

func (a *App) startSearch(ctx context.Context, update tginfra.CommandUpdate) {
	result, err := a.matching.RequestSearch(ctx, update.UserID)
	if err != nil {
		var rateErr *matchingsvc.RateLimitError
		switch {
		case errors.Is(err, matchingsvc.ErrInChat):
			a.reply(ctx, update.ChatID, inChatText)
		case errors.Is(err, matchingsvc.ErrNotEligible):
			a.reply(ctx, update.ChatID, notEligibleText)
		case errors.Is(err, profilesvc.ErrNotFound):
			a.reply(ctx, update.ChatID, noProfileText)
		case errors.As(err, &rateErr):
			a.reply(ctx, update.ChatID, fmt.Sprintf("Too many attempts. Try again in %d seconds.", rateErr.RetryAfterSec))
		default:
			a.logger.Error("search request failed", zap.Int64("user_id", update.UserID), zap.Error(err))
			a.reply(ctx, update.ChatID, "Something went wrong, try again later.")
		}
		return
	}

	// a match is announced through the notifier, only the waiting state
	// needs an explicit reply
	if result.Status == matchingsvc.StatusSearching {
		a.reply(ctx, update.ChatID, searchingText)
	}
}

func (a *App) endChat(ctx context.Context, update tginfra.CommandUpdate) {
	if _, err := a.sessions.EndForUser(ctx, update.UserID); err != nil {
		if errors.Is(err, sessionsvc.ErrNoSession) {
			a.reply(ctx, update.ChatID, noChatText)
			return
		}
		a.logger.Error("end chat failed", zap.Int64("user_id", update.UserID), zap.Error(err))
		return
	}
	a.reply(ctx, update.ChatID, chatEndedByYou)
}

func (a *App) requestReveal(ctx context.Context, update tginfra.CommandUpdate) {
	state, err := a.sessions.RequestReveal(ctx, update.UserID)
	if err != nil {
		if errors.Is(err, sessionsvc.ErrNoSession) {
			a.reply(ctx, update.ChatID, noChatText)
			return
		}
		a.logger.Error("reveal request failed", zap.Int64("user_id", update.UserID), zap.Error(err))
		return
	}

	if state == model.DeanonPending {
		a.reply(ctx, update.ChatID, "Asked your partner to swap profiles. Waiting for the answer.")
	}
	// on a reveal the profile cards are pushed by the notifier
}

// blockPartner closes the chat, bans the pair from future matching and
// penalizes the reported side. The forced end keeps the reporter clear
// of the abandonment penalty.
func (a *App) blockPartner(ctx context.Context, update tginfra.CommandUpdate) {
	session, ok := a.sessions.Get(update.UserID)
	if !ok {
		a.reply(ctx, update.ChatID, noChatText)
		return
	}
	partnerID := session.PartnerOf(update.UserID)

	if err := a.blocks.Upsert(ctx, update.UserID, partnerID, "blocked via chat"); err != nil {
		a.logger.Error("block partner failed", zap.Int64("user_id", update.UserID), zap.Error(err))
		a.reply(ctx, update.ChatID, "Something went wrong, try again later.")
		return
	}

	a.sessions.ForceEnd(ctx, session.ID, "partner blocked")
	a.ratings.OnReported(ctx, partnerID)
	a.reply(ctx, update.ChatID, blockedText)
}

func (a *App) reportStatus(ctx context.Context, update tginfra.CommandUpdate) {
	info := a.matching.Status(update.UserID)
	switch info.Status {
	case matchingsvc.StatusMatched:
		a.reply(ctx, update.ChatID, "You are in a chat. Just type to talk, /end to leave.")
	case matchingsvc.StatusSearching:
		a.reply(ctx, update.ChatID, fmt.Sprintf("Still searching (widening level %d, %d waiting).", info.RelaxLevel, info.Waiting))
	default:
		a.reply(ctx, update.ChatID, "Idle. /search to find someone.")
	}
}

// handleText relays chat traffic between the paired users. The bot is
// the only thing either side ever talks to.
func (a *App) handleText(ctx context.Context, update tginfra.TextUpdate) error {
	session, err := a.sessions.RecordMessage(update.UserID)
	if err != nil {
		if errors.Is(err, sessionsvc.ErrNoSession) {
			a.reply(ctx, update.ChatID, noChatText)
			return nil
		}
		a.logger.Error("record message failed", zap.Int64("user_id", update.UserID), zap.Error(err))
		return nil
	}

	partnerID := session.PartnerOf(update.UserID)
	if err := a.bot.SendText(ctx, partnerID, update.Text); err != nil {
		a.logger.Warn("message relay failed, ending chat",
			zap.String("session_id", session.ID),
			zap.Int64("partner_id", partnerID),
			zap.Error(err),
		)
		a.sessions.ForceEnd(ctx, session.ID, "relay undeliverable")
	}
	return nil
}

func (a *App) handleCallback(ctx context.Context, update tginfra.CallbackUpdate) error {
	switch update.Data {
	case callbackRevealYes, callbackRevealNo:
		approve := update.Data == callbackRevealYes
		state, err := a.sessions.RespondReveal(ctx, update.UserID, approve)
		if err != nil {
			switch {
			case errors.Is(err, sessionsvc.ErrNoSession):
				_ = a.bot.AnswerCallback(ctx, update.CallbackID, "The chat is already over.")
			case errors.Is(err, sessionsvc.ErrNoRevealRequest):
				_ = a.bot.AnswerCallback(ctx, update.CallbackID, "Nothing to decide on.")
			default:
				a.logger.Error("reveal decision failed", zap.Int64("user_id", update.UserID), zap.Error(err))
				_ = a.bot.AnswerCallback(ctx, update.CallbackID, "Something went wrong.")
			}
			return nil
		}

		switch {
		case !approve:
			_ = a.bot.AnswerCallback(ctx, update.CallbackID, "Declined.")
		case state == model.DeanonRevealed:
			_ = a.bot.AnswerCallback(ctx, update.CallbackID, "Profiles swapped!")
		default:
			_ = a.bot.AnswerCallback(ctx, update.CallbackID, "Noted.")
		}
	default:
		_ = a.bot.AnswerCallback(ctx, update.CallbackID, "")
	}
	return nil
}

func (a *App) reply(ctx context.Context, chatID int64, text string) {
	if err := a.bot.SendText(ctx, chatID, text); err != nil {
		a.logger.Warn("bot reply failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
