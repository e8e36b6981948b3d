package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Program はギフト/ロイヤリティプログラムを表す。
// GWClassIDはウォレットクラスの作成後に一度だけ設定され、クライアント入力では変更されない。
type Program struct {
	ID          string
	Name        string
	Description string
	Amount      decimal.Decimal
	ExpiryDate  *time.Time
	ThemeURL    string
	GWClassID   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasWalletClass はウォレットクラスが作成済みかを返す。
func (p *Program) HasWalletClass() bool {
	return p.GWClassID != ""
}

// ProgramUpdate はプログラムの部分更新内容を表す。
// nilのフィールドは変更しない。クラス参照は含まない。
type ProgramUpdate struct {
	Name        *string
	Description *string
	Amount      *decimal.Decimal
	ExpiryDate  *time.Time
	ThemeURL    *string
}

// IsEmpty は更新対象のフィールドが1つもないかを返す。
func (u ProgramUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Amount == nil &&
		u.ExpiryDate == nil && u.ThemeURL == nil
}
