// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は管理画面から入力されたテキストからHTMLを除去し、プレーンテキストとして保存する。
// URLGuard は外部に公開されるURL（テーマ画像など）が内部ネットワークを指していないかを検証する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はHTMLを含みうるテキストをプレーンテキストに変換する。
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerを生成する。
// 全てのタグを除去するStrictPolicyを使用する。script/styleは内容ごと除去される。
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize はタグを除去したプレーンテキストを返す。
// bluemondayがエスケープした実体参照は元の文字に戻し、前後の空白を除く。
// 同一入力に対して常に同一出力を返す。
func (s *TextSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}
