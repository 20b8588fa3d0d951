package telegram

import (
	"context"
	"errors"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hackbot/internal/reminder"
)

// Bot is the subset of *tgbotapi.BotAPI the package needs.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Notifier sends plain text messages and classifies Telegram failures.
type Notifier struct {
	bot Bot
}

func NewNotifier(bot Bot) *Notifier {
	return &Notifier{bot: bot}
}

func (n *Notifier) Send(_ context.Context, chatID int64, text string) (reminder.Outcome, error) {
	_, err := n.bot.Send(tgbotapi.NewMessage(chatID, text))
	return Classify(err)
}

// Classify maps a Send error to a delivery outcome. Telegram API refusals are expected
// outcomes; anything else (network, decoding) is returned as an error.
func Classify(err error) (reminder.Outcome, error) {
	if err == nil {
		return reminder.Delivered, nil
	}

	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return reminder.Failed, err
	}
	switch {
	case apiErr.Code == http.StatusForbidden:
		return reminder.Blocked, nil
	case apiErr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Message), "chat not found"):
		return reminder.ChatNotFound, nil
	default:
		return reminder.Failed, nil
	}
}
