package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/mentorship_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatRepository связывает пользователей с Telegram-чатами для уведомлений
type ChatRepository struct {
	*base.Repository
}

func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{Repository: base.NewRepository(pool)}
}

// ChatIDs возвращает чаты для тех пользователей, у которых они есть
func (r *ChatRepository) ChatIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	query := `
		SELECT user_id, telegram_chat_id
		FROM notification_chats
		WHERE user_id = ANY($1::uuid[])
	`

	rows, err := r.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("get notification chats: %w", err)
	}
	defer rows.Close()

	chats := make(map[uuid.UUID]int64, len(userIDs))
	for rows.Next() {
		var userID uuid.UUID
		var chatID int64
		if err := rows.Scan(&userID, &chatID); err != nil {
			return nil, fmt.Errorf("scan notification chat: %w", err)
		}
		chats[userID] = chatID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get notification chats: %w", err)
	}

	return chats, nil
}

// Link сохраняет или обновляет чат пользователя
func (r *ChatRepository) Link(ctx context.Context, userID uuid.UUID, chatID int64) error {
	query := `
		INSERT INTO notification_chats (user_id, telegram_chat_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET telegram_chat_id = EXCLUDED.telegram_chat_id
	`

	if _, err := r.ExecAffected(ctx, query, userID, chatID); err != nil {
		return fmt.Errorf("link notification chat: %w", err)
	}
	return nil
}
