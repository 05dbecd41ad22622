package service

import "errors"

var (
	// ErrEmptyText пустой или пробельный текст заметки/сообщения
	ErrEmptyText = errors.New("text is empty")

	// ErrRateLimited отправитель превысил лимит сообщений в окне
	ErrRateLimited = errors.New("rate limit exceeded")
)
