package wallet

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// saveURLPrefix は保存リンクの引き換えエンドポイント。
	saveURLPrefix = "https://pay.google.com/gp/v/save/"
	saveAudience  = "google"
	saveType      = "savetowallet"
)

// SaveTokenSigner はギフトカードオブジェクトを埋め込んだ保存用アサーションをRS256で署名する。
// 署名鍵はCredentialStoreから取得するため、ファイルの読み込みはプロセスで1回に限られる。
type SaveTokenSigner struct {
	creds *CredentialStore
	now   func() time.Time
}

// NewSaveTokenSigner はSaveTokenSignerを生成する。
func NewSaveTokenSigner(creds *CredentialStore) *SaveTokenSigner {
	return &SaveTokenSigner{creds: creds, now: time.Now}
}

// Sign はオブジェクトのJSON表現を埋め込んだアサーションを署名する。
// アサーションに有効期限は設定しない。
func (s *SaveTokenSigner) Sign(object json.RawMessage) (string, error) {
	cred, err := s.creds.Get()
	if err != nil {
		return "", fmt.Errorf("failed to load signing credential: %w", err)
	}

	claims := jwt.MapClaims{
		"iss": cred.ClientEmail,
		"aud": saveAudience,
		"typ": saveType,
		"iat": s.now().Unix(),
		"payload": map[string]any{
			"giftCardObjects": []json.RawMessage{object},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if cred.PrivateKeyID != "" {
		token.Header["kid"] = cred.PrivateKeyID
	}

	signed, err := token.SignedString(cred.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign save token: %w", err)
	}
	return signed, nil
}

// SaveLink は署名済みアサーションから保存リンクを組み立てる。
func SaveLink(token string) string {
	return saveURLPrefix + url.PathEscape(token)
}
