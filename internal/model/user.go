package model

import "time"

// User is a backend record for a Telegram account that has submitted at
// least one listing. It is created lazily on first submission and never
// updated afterwards in this flow.
//
// WHY TelegramID int64?
// Telegram user ids are integers that long ago outgrew int32. The id is the
// primary key — we deliberately do not mint our own id for users, because
// every caller identifies itself by its Telegram id anyway.
type User struct {
	TelegramID int64     `json:"telegramId"`
	Username   string    `json:"username"` // Telegram @username, may be empty
	FullName   string    `json:"fullName"` // "first last", trimmed, may be empty
	CreatedAt  time.Time `json:"createdAt"`
}
