package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessageSender - часть *bot.Bot, нужная для отправки сообщений
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// ChatDirectory сопоставляет пользователей с Telegram-чатами
type ChatDirectory interface {
	ChatIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

type TelegramNotifier struct {
	sender MessageSender
	chats  ChatDirectory
	logger *zap.Logger
}

func NewTelegramNotifier(sender MessageSender, chats ChatDirectory, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chats: chats, logger: logger}
}

// Notify отправляет сообщение каждому получателю, у которого есть чат
func (n *TelegramNotifier) Notify(ctx context.Context, event Event) error {
	recipients := event.Recipients()
	if len(recipients) == 0 {
		return nil
	}

	chatIDs, err := n.chats.ChatIDs(ctx, recipients)
	if err != nil {
		return fmt.Errorf("resolve chats: %w", err)
	}

	text := FormatEvent(event)
	var errs []error
	for _, userID := range recipients {
		chatID, ok := chatIDs[userID]
		if !ok {
			n.logger.Debug("No telegram chat for user", zap.String("user_id", userID.String()))
			continue
		}

		_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   text,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("send to %s: %w", userID, err))
		}
	}

	return errors.Join(errs...)
}

// FormatEvent формирует текст уведомления
func FormatEvent(event Event) string {
	a := event.Appointment
	when := ""
	if a.Slot != nil {
		when = fmt.Sprintf("\n📅 %s %s–%s", a.Slot.Date, a.Slot.StartTime, a.Slot.EndTime)
	}

	switch event.Kind {
	case EventBooked:
		return fmt.Sprintf("📝 New mentorship request\nTopic: %s%s\nPlease confirm or cancel it.", a.Topic, when)
	case EventConfirmed:
		return fmt.Sprintf("✅ Session confirmed\nTopic: %s%s", a.Topic, when)
	case EventCancelled:
		return fmt.Sprintf("❌ Session cancelled\nTopic: %s%s", a.Topic, when)
	case EventCompleted:
		return fmt.Sprintf("🎓 Session completed\nTopic: %s\nYou can now leave feedback.", a.Topic)
	case EventFeedback:
		return fmt.Sprintf("💬 New feedback for the session on %s", a.Topic)
	}
	return fmt.Sprintf("Appointment %s: %s", a.ID, event.Kind)
}
