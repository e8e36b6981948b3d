// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// adminIDContextKey はリクエストコンテキストに管理者IDを格納するためのキー。
var adminIDContextKey = contextKey("admin_id")

// TokenVerifier は管理者トークンの検証に必要なインターフェース。
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// NewAdminAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証するミドルウェアを返す。
// 認証済み管理者IDをリクエストコンテキストに注入する。
// トークンの欠落・不正・期限切れ・ロール不一致はいずれも同じ401を返す。
func NewAdminAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				WriteUnauthorized(w)
				return
			}

			adminID, err := verifier.Verify(token)
			if err != nil {
				WriteUnauthorized(w)
				return
			}

			ctx := ContextWithAdminID(r.Context(), adminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// AdminIDFromContext はリクエストコンテキストから管理者IDを取得する。
// 管理者認証ミドルウェアを通過したリクエストでのみ有効。
func AdminIDFromContext(ctx context.Context) (string, error) {
	adminID, ok := ctx.Value(adminIDContextKey).(string)
	if !ok || adminID == "" {
		return "", fmt.Errorf("admin ID not found in context")
	}
	return adminID, nil
}

// ContextWithAdminID はコンテキストに管理者IDを注入する。
// ログミドルウェアの配下であれば、リクエストログにも管理者IDが記録される。
func ContextWithAdminID(ctx context.Context, adminID string) context.Context {
	if holder, ok := ctx.Value(adminIDHolderKey).(*adminIDHolder); ok {
		holder.set(adminID)
	}
	return context.WithValue(ctx, adminIDContextKey, adminID)
}
