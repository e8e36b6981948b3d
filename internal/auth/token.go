package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// RoleAdmin は管理者トークンのロール。
	RoleAdmin = "admin"
	// DefaultTokenTTL はトークンの既定の有効期間。
	DefaultTokenTTL = 24 * time.Hour
)

// ErrInvalidToken はトークンが不正・期限切れ・ロール不一致のいずれかであることを示す。
// 呼び出し元にどの検証で失敗したかは区別させない。
var ErrInvalidToken = errors.New("invalid admin token")

// AdminClaims は管理者トークンのクレーム。
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer はHS256で署名された管理者トークンを発行・検証する。
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer はTokenIssuerを生成する。ttlが0以下の場合は24時間とする。
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue は管理者IDを主体とするトークンを発行し、有効期限とともに返す。
func (i *TokenIssuer) Issue(adminID string) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := AdminClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign admin token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify はトークンを検証し、管理者IDを返す。
// 署名アルゴリズムはHS256に固定し、有効期限とadminロールを必須とする。
func (i *TokenIssuer) Verify(token string) (string, error) {
	claims := &AdminClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", ErrInvalidToken
	}
	if claims.Role != RoleAdmin || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
