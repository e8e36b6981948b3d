package wallet

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	oauthjwt "golang.org/x/oauth2/jwt"
)

const (
	// IssuerScope はウォレットオブジェクト発行用のOAuth2スコープ。
	IssuerScope = "https://www.googleapis.com/auth/wallet_object.issuer"
	// defaultTokenURL はサービスアカウントJSONにtoken_uriがない場合のトークンエンドポイント。
	defaultTokenURL = "https://oauth2.googleapis.com/token"
)

// ErrCredentialPathUnset は認証情報ファイルのパスが未設定の場合のエラー。
var ErrCredentialPathUnset = errors.New("wallet: credential path is not set")

// Credential はサービスアカウントの署名用認証情報。
type Credential struct {
	ClientEmail   string
	PrivateKeyID  string
	TokenURL      string
	PrivateKey    *rsa.PrivateKey
	privateKeyPEM []byte
}

// serviceAccountFile はサービスアカウントJSONのうち利用するフィールド。
type serviceAccountFile struct {
	ClientEmail  string `json:"client_email"`
	PrivateKey   string `json:"private_key"`
	PrivateKeyID string `json:"private_key_id"`
	TokenURI     string `json:"token_uri"`
}

// LoadCredential は指定パスのサービスアカウントJSONを読み込み検証する。
// 相対パスはカレントディレクトリ基準で解決する。
func LoadCredential(path string) (*Credential, error) {
	if path == "" {
		return nil, ErrCredentialPathUnset
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve credential path: %w", err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account JSON at %s: %w", abs, err)
	}
	return ParseCredential(data)
}

// ParseCredential はサービスアカウントJSONをパースする。
// client_emailとprivate_keyが必須で、private_keyはRSA鍵でなければならない。
func ParseCredential(data []byte) (*Credential, error) {
	var f serviceAccountFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse service account JSON: %w", err)
	}
	if f.ClientEmail == "" || f.PrivateKey == "" {
		return nil, errors.New("service account JSON missing client_email/private_key")
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(f.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account private key: %w", err)
	}

	tokenURL := f.TokenURI
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}

	return &Credential{
		ClientEmail:   f.ClientEmail,
		PrivateKeyID:  f.PrivateKeyID,
		TokenURL:      tokenURL,
		PrivateKey:    key,
		privateKeyPEM: []byte(f.PrivateKey),
	}, nil
}

// HTTPClient はこの認証情報でアクセストークンを取得・更新するHTTPクライアントを返す。
// トークンはサービスアカウントのJWTグラントで取得され、期限切れ前に自動更新される。
// トークンエンドポイントへの要求にはtimeoutを課す。
func (c *Credential) HTTPClient(ctx context.Context, timeout time.Duration) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: timeout})
	conf := &oauthjwt.Config{
		Email:        c.ClientEmail,
		PrivateKey:   c.privateKeyPEM,
		PrivateKeyID: c.PrivateKeyID,
		Scopes:       []string{IssuerScope},
		TokenURL:     c.TokenURL,
	}
	return conf.Client(ctx)
}

// CredentialStore は認証情報を一度だけ読み込みキャッシュする。
// 読み込みに失敗した場合はキャッシュせず、次回の呼び出しで再試行する。
type CredentialStore struct {
	path string

	mu   sync.Mutex
	cred *Credential
}

// NewCredentialStore はCredentialStoreを生成する。
func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{path: path}
}

// Get はキャッシュ済みの認証情報を返す。未読み込みの場合はファイルから読み込む。
func (s *CredentialStore) Get() (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cred != nil {
		return s.cred, nil
	}
	cred, err := LoadCredential(s.path)
	if err != nil {
		return nil, err
	}
	s.cred = cred
	return cred, nil
}
