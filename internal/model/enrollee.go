package model

import "time"

// Enrollee はプログラムに登録された利用者を表す。
// APIでは "user" として公開される。
// プログラムが削除された場合、ProgramIDは空になる。
type Enrollee struct {
	ID         string
	FullName   string
	Phone      string
	DOB        *time.Time
	Email      string
	ProgramID  string
	GWObjectID string
	GWSaveLink string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// GiftCard は発行済みカードの監査レコードを表す。
// 登録成功時に1件作成され、以後変更されない。
type GiftCard struct {
	ID         string
	EnrolleeID string
	ProgramID  string
	GWClassID  string
	GWObjectID string
	SaveLink   string
	CreatedAt  time.Time
}
