package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cocopalms/giftwallet/internal/enrollment"
	"github.com/cocopalms/giftwallet/internal/model"
	"github.com/cocopalms/giftwallet/internal/program"
	"github.com/cocopalms/giftwallet/internal/security"
	"github.com/cocopalms/giftwallet/internal/wallet"
	"github.com/shopspring/decimal"
)

// バリデーションメッセージ
const (
	msgRequired        = "Required"
	msgInvalidDatetime = "Invalid datetime"
	msgInvalidURL      = "Invalid url"
	msgInvalidEmail    = "Invalid email"
	msgExpectedString  = "Expected string"
	msgExpectedNumber  = "Expected number"
	msgNonNegative     = "Number must be greater than or equal to 0"
	msgAmountScale     = "Number must be a multiple of 0.01"
	msgAmountMax       = "Number must be less than or equal to 9999999999.99"
	msgNameNoSlug      = "Name must contain at least one ASCII letter or digit"
)

// 金額の上限。programs.amountのNUMERIC(12, 2)に合わせる。
const (
	amountMaxScale         = 2
	amountMaxIntegerDigits = 10
)

func msgMinLength(n int) string {
	return fmt.Sprintf("String must contain at least %d character(s)", n)
}

// decodeBody はJSONリクエストボディをデコードする。
// 未知のフィールドは無視する。クラス参照などサーバー管理のフィールドが送られても反映しない。
func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.New("empty body")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

// programRequest はプログラム作成・更新リクエストのボディ。
// 型違いをフィールド単位で報告するため、値はRawMessageで受け取る。
type programRequest struct {
	Name        json.RawMessage `json:"name"`
	Description json.RawMessage `json:"description"`
	Amount      json.RawMessage `json:"amount"`
	ExpiryDate  json.RawMessage `json:"expiryDate"`
	ThemeURL    json.RawMessage `json:"themeUrl"`
}

// enrollRequest は利用者登録リクエストのボディ。
type enrollRequest struct {
	FullName  json.RawMessage `json:"fullName"`
	Phone     json.RawMessage `json:"phone"`
	DOB       json.RawMessage `json:"dob"`
	Email     json.RawMessage `json:"email"`
	ProgramID json.RawMessage `json:"programId"`
}

// isAbsent はフィールドが未指定またはnullかを返す。
func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// readString は文字列フィールドを読み取る。未指定の場合はok=falseを返す。
func readString(v *model.ValidationError, field string, raw json.RawMessage) (string, bool) {
	if isAbsent(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		v.Add(field, msgExpectedString)
		return "", false
	}
	return s, true
}

// requireMinLength は必須文字列フィールドを前後の空白を除いた上で長さ検証し、除去後の値を返す。
func requireMinLength(v *model.ValidationError, field string, raw json.RawMessage, min int) (string, bool) {
	if isAbsent(raw) {
		v.Add(field, msgRequired)
		return "", false
	}
	s, ok := readString(v, field, raw)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < min {
		v.Add(field, msgMinLength(min))
		return "", false
	}
	return s, true
}

// readDatetime はRFC3339形式の日時フィールドを読み取る。空文字列は未指定として扱う。
func readDatetime(v *model.ValidationError, field string, raw json.RawMessage) *time.Time {
	s, ok := readString(v, field, raw)
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		v.Add(field, msgInvalidDatetime)
		return nil
	}
	return &t
}

// readAmount は金額フィールドを読み取る。JSONの数値のみ受け付け、負の値は拒否する。
func readAmount(v *model.ValidationError, field string, raw json.RawMessage) *decimal.Decimal {
	if isAbsent(raw) {
		return nil
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && (trimmed[0] == '"' || trimmed[0] == '{' || trimmed[0] == '[' ||
		trimmed[0] == 't' || trimmed[0] == 'f') {
		v.Add(field, msgExpectedNumber)
		return nil
	}
	d, err := decimal.NewFromString(string(trimmed))
	if err != nil {
		v.Add(field, msgExpectedNumber)
		return nil
	}
	if d.IsNegative() {
		v.Add(field, msgNonNegative)
		return nil
	}
	intDigits, scale := amountDigits(d)
	if scale > amountMaxScale {
		v.Add(field, msgAmountScale)
		return nil
	}
	if intDigits > amountMaxIntegerDigits {
		v.Add(field, msgAmountMax)
		return nil
	}
	return &d
}

// amountDigits は非負の値の整数部の桁数と、末尾の0を除いた小数部の桁数を返す。
// 指数が極端な値でも係数を桁移動せずに求める。
func amountDigits(d decimal.Decimal) (intDigits, scale int) {
	coef := d.Coefficient().String()
	if coef == "0" {
		return 0, 0
	}
	trimmed := strings.TrimRight(coef, "0")
	exp := int(d.Exponent()) + len(coef) - len(trimmed)
	if exp < 0 {
		scale = -exp
	}
	intDigits = len(trimmed) + exp
	if intDigits < 0 {
		intDigits = 0
	}
	return intDigits, scale
}

// readThemeURL はテーマ画像URLを読み取る。空文字列は未指定として扱う。
// ホストを持つ絶対http(s)URLのみ受け付ける。
func readThemeURL(v *model.ValidationError, field string, raw json.RawMessage) (string, bool) {
	s, ok := readString(v, field, raw)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	if err := security.ValidateWebURL(s); err != nil {
		v.Add(field, msgInvalidURL)
		return "", false
	}
	return s, true
}

// validateCreateProgram はプログラム作成リクエストを検証し、サービス層の入力に変換する。
func validateCreateProgram(req programRequest) (program.CreateInput, *model.ValidationError) {
	v := model.NewValidationError()

	name, ok := requireMinLength(v, "name", req.Name, 2)
	// クラスIDは名前のスラッグから作るため、スラッグが空になる名前は受け付けない
	if ok && wallet.Slugify(name) == "" {
		v.Add("name", msgNameNoSlug)
	}
	description, _ := readString(v, "description", req.Description)

	var amount decimal.Decimal
	if isAbsent(req.Amount) {
		v.Add("amount", msgRequired)
	} else if a := readAmount(v, "amount", req.Amount); a != nil {
		amount = *a
	}

	expiry := readDatetime(v, "expiryDate", req.ExpiryDate)
	themeURL, _ := readThemeURL(v, "themeUrl", req.ThemeURL)

	if v.HasErrors() {
		return program.CreateInput{}, v
	}
	return program.CreateInput{
		Name:        name,
		Description: description,
		Amount:      amount,
		ExpiryDate:  expiry,
		ThemeURL:    themeURL,
	}, nil
}

// validateUpdateProgram はプログラム更新リクエストを検証する。
// 全フィールドが任意で、指定されたフィールドには作成時と同じ規則を適用する。
func validateUpdateProgram(req programRequest) (model.ProgramUpdate, *model.ValidationError) {
	v := model.NewValidationError()
	var update model.ProgramUpdate

	if !isAbsent(req.Name) {
		if name, ok := requireMinLength(v, "name", req.Name, 2); ok {
			update.Name = &name
		}
	}
	if desc, ok := readString(v, "description", req.Description); ok {
		update.Description = &desc
	}
	update.Amount = readAmount(v, "amount", req.Amount)
	update.ExpiryDate = readDatetime(v, "expiryDate", req.ExpiryDate)
	if themeURL, ok := readThemeURL(v, "themeUrl", req.ThemeURL); ok && themeURL != "" {
		update.ThemeURL = &themeURL
	}

	if v.HasErrors() {
		return model.ProgramUpdate{}, v
	}
	return update, nil
}

// validateEnroll は利用者登録リクエストを検証し、サービス層の入力に変換する。
func validateEnroll(req enrollRequest) (enrollment.EnrollInput, *model.ValidationError) {
	v := model.NewValidationError()

	fullName, _ := requireMinLength(v, "fullName", req.FullName, 2)
	phone, _ := requireMinLength(v, "phone", req.Phone, 11)
	dob := readDatetime(v, "dob", req.DOB)

	var email string
	if isAbsent(req.Email) {
		v.Add("email", msgRequired)
	} else if s, ok := readString(v, "email", req.Email); ok {
		email = strings.TrimSpace(s)
		if !isValidEmail(email) {
			v.Add("email", msgInvalidEmail)
		}
	}

	programID, _ := requireMinLength(v, "programId", req.ProgramID, 1)

	if v.HasErrors() {
		return enrollment.EnrollInput{}, v
	}
	return enrollment.EnrollInput{
		FullName:  fullName,
		Phone:     phone,
		DOB:       dob,
		Email:     email,
		ProgramID: programID,
	}, nil
}

// isValidEmail は表示名を含まない素のメールアドレスかを返す。
func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email && addr.Name == "" && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}
