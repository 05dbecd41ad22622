package models

import "time"

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"` // уникальное отображаемое имя
	Role      string    `json:"role"`     // manager, admin
	CreatedAt time.Time `json:"created_at"`
}
