package wallet

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyProgramName はプログラム名が空の場合のエラー。
	ErrEmptyProgramName = errors.New("wallet: program name is empty")
	// ErrEmptyHolderEmail は保有者のメールアドレスが空の場合のエラー。
	ErrEmptyHolderEmail = errors.New("wallet: holder email is empty")
)

// APIError はウォレット発行APIの呼び出し失敗を表す。
// 上流がレスポンスを返した場合はStatusCodeとBodyを持ち、
// 通信失敗やタイムアウトの場合はStatusCodeが0でErrに原因を持つ。
type APIError struct {
	Operation  string
	ResourceID string
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wallet %s %s failed: %v", e.Operation, e.ResourceID, e.Err)
	}
	return fmt.Sprintf("wallet %s %s failed (%d): %s", e.Operation, e.ResourceID, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}
