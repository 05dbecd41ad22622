package database

import (
	"context"
	"fmt"
	"time"

	"tourcrm/internal/models"
)

func (db *DB) CreateChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	query := `INSERT INTO chat_messages (sender, text, channel, timestamp) VALUES (?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query, msg.Sender, msg.Text, msg.Channel, now)
	if err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	msg.ID = id
	msg.Timestamp = now

	return nil
}

// GetRecentChatMessages возвращает последние limit сообщений, новые первыми.
// Разворот в хронологический порядок — забота вызывающего.
func (db *DB) GetRecentChatMessages(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	query := `SELECT id, sender, text, channel, timestamp
	          FROM chat_messages ORDER BY timestamp DESC, id DESC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat messages: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.Sender, &m.Text, &m.Channel, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}
