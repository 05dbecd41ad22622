package models

import "time"

// ChatMessage сообщение общего чата. Журнал только на добавление.
type ChatMessage struct {
	ID        int64     `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Channel   string    `json:"channel"`
	Timestamp time.Time `json:"timestamp"`
}
