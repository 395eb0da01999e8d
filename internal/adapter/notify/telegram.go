package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/custodio-dev/custodio/internal/domain"
)

// TelegramNotifier sends the outcome of each run to a chat. It carries no
// history; the operation log remains the source of truth.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(botToken, chatID string) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	var id int64
	if _, err := fmt.Sscanf(chatID, "%d", &id); err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}

	return &TelegramNotifier{bot: bot, chatID: id}, nil
}

func (t *TelegramNotifier) Notify(ctx context.Context, record domain.OperationRecord) error {
	msg := tgbotapi.NewMessage(t.chatID, formatRecord(record))
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}
	return nil
}

func formatRecord(r domain.OperationRecord) string {
	icon := "✅"
	if r.Status != domain.StatusSuccess {
		icon = "❌"
	}

	text := fmt.Sprintf(
		"%s Backup %s\n\n"+
			"📁 Source: %s\n"+
			"🕐 Time: %s",
		icon,
		r.Status,
		r.SourcePath,
		r.Timestamp.Format("2006-01-02 15:04:05"),
	)

	if r.ArtifactPath != "" {
		text += fmt.Sprintf("\n📦 Artifact: %s (%.2f MB)",
			r.ArtifactPath, float64(r.ArtifactSize)/(1024*1024))
	}
	if r.Message != "" {
		text += fmt.Sprintf("\n⚠️ %s", r.Message)
	}

	return text
}
