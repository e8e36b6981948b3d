package model

import "time"

// Admin はダッシュボードの管理者アカウントを表す。
type Admin struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
