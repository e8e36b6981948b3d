// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// Detailsはバリデーションエラー時のフィールド単位の詳細を保持する。
type APIError struct {
	Code    string           // エラーコード
	Message string           // クライアントに返すメッセージ
	Details *ValidationError // バリデーション詳細（任意）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// ValidationError はフィールド単位のバリデーションエラーを表す。
// FormErrorsはフィールドに紐付かないエラー、FieldErrorsはフィールド名ごとのエラー一覧。
type ValidationError struct {
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

// NewValidationError は空のValidationErrorを生成する。
func NewValidationError() *ValidationError {
	return &ValidationError{
		FormErrors:  []string{},
		FieldErrors: map[string][]string{},
	}
}

// Add はフィールドにエラーメッセージを追加する。
func (v *ValidationError) Add(field, message string) {
	v.FieldErrors[field] = append(v.FieldErrors[field], message)
}

// AddForm はフィールドに紐付かないエラーメッセージを追加する。
func (v *ValidationError) AddForm(message string) {
	v.FormErrors = append(v.FormErrors, message)
}

// HasErrors はエラーが1件以上あるかを返す。
func (v *ValidationError) HasErrors() bool {
	return len(v.FormErrors) > 0 || len(v.FieldErrors) > 0
}

// 定義済みエラーコード
const (
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeMissingCredentials  = "MISSING_CREDENTIALS"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeProgramNotFound     = "PROGRAM_NOT_FOUND"
	ErrCodeProgramMissingClass = "PROGRAM_MISSING_CLASS"
	ErrCodeEnrolleeNotFound    = "USER_NOT_FOUND"
	ErrCodeWalletUpstream      = "WALLET_UPSTREAM_ERROR"
	ErrCodeInternal            = "INTERNAL_ERROR"
	ErrCodeRateLimited         = "RATE_LIMITED"
)

// NewValidationFailedError はバリデーション失敗エラーを生成する。
func NewValidationFailedError(details *ValidationError) *APIError {
	return &APIError{
		Code:    ErrCodeValidationFailed,
		Message: "Validation failed",
		Details: details,
	}
}

// NewInvalidRequestError はリクエストボディが解析できない場合のエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidRequest,
		Message: "Invalid request body",
	}
}

// NewMissingCredentialsError はログイン情報の欠落エラーを生成する。
func NewMissingCredentialsError() *APIError {
	return &APIError{
		Code:    ErrCodeMissingCredentials,
		Message: "Missing credentials",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// メールアドレス不一致とパスワード不一致を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidCredentials,
		Message: "Invalid credentials",
	}
}

// NewUnauthorizedError は認証エラーを生成する。
// どの検証で失敗したかは含めない。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:    ErrCodeUnauthorized,
		Message: "Unauthorized",
	}
}

// NewProgramNotFoundError はプログラム未検出エラーを生成する。
func NewProgramNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeProgramNotFound,
		Message: "Program not found",
	}
}

// NewProgramMissingClassError はウォレットクラス未作成のプログラムへの登録エラーを生成する。
func NewProgramMissingClassError() *APIError {
	return &APIError{
		Code:    ErrCodeProgramMissingClass,
		Message: "Program missing Wallet class",
	}
}

// NewEnrolleeNotFoundError は利用者未検出エラーを生成する。
func NewEnrolleeNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeEnrolleeNotFound,
		Message: "User not found",
	}
}

// NewWalletUpstreamError はウォレット発行APIの失敗を表すエラーを生成する。
// statusCodeは上流のHTTPステータス（通信失敗時は0）。
func NewWalletUpstreamError(statusCode int) *APIError {
	msg := "Wallet issuer request failed"
	if statusCode > 0 {
		msg = fmt.Sprintf("Wallet issuer request failed (%d)", statusCode)
	}
	return &APIError{
		Code:    ErrCodeWalletUpstream,
		Message: msg,
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:    ErrCodeRateLimited,
		Message: "Too many requests",
	}
}
