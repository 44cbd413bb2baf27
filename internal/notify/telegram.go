package notify

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier delivers events to a Telegram chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *log.Logger
}

// NewTelegramNotifier authorizes the bot and returns a notifier bound to
// the given chat.
func NewTelegramNotifier(token string, chatID int64, logger *log.Logger) (*TelegramNotifier, error) {
	if logger == nil {
		logger = log.Default()
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authorize telegram bot: %w", err)
	}

	logger.Printf("[notify] Telegram bot authorized as %s", bot.Self.UserName)

	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		logger: logger,
	}, nil
}

// Notify sends the formatted event as a chat message.
func (n *TelegramNotifier) Notify(_ context.Context, event *Event) error {
	msg := tgbotapi.NewMessage(n.chatID, event.Format())
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

var _ Notifier = (*TelegramNotifier)(nil)
