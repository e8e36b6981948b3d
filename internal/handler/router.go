package handler

import (
	"log/slog"
	"net/http"

	"github.com/cocopalms/giftwallet/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// maxRequestBodyBytes はリクエストボディの上限サイズ。
const maxRequestBodyBytes = 2 << 20

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier  middleware.TokenVerifier
	CORSOrigins    []string
	RateLimiter    *middleware.RateLimiter
	TrustProxy     bool // X-Forwarded-For等からクライアントIPを取得する
	MetricsHandler http.Handler
	Logger         *slog.Logger

	// サービス
	AuthService       AuthServiceInterface
	ProgramService    ProgramServiceInterface
	EnrollmentService EnrollmentServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → RequestSize
//	  管理API: AdminAuth → RateLimit(General)
//	  公開API: RateLimit(Public)
//
// /health と /metrics は認証不要。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	if deps.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSOrigins))
	r.Use(chimiddleware.RequestSize(maxRequestBodyBytes))

	authHandler := NewAuthHandler(deps.AuthService, deps.Logger)
	programHandler := NewProgramHandler(deps.ProgramService, deps.Logger)
	enrolleeHandler := NewEnrolleeHandler(deps.EnrollmentService, deps.Logger)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// ログインは公開APIと同じIP単位のレート制限を適用する
	r.With(deps.RateLimiter.PublicMiddleware()).Post("/api/auth/login", authHandler.Login)

	r.Route("/api/public", func(r chi.Router) {
		r.Use(deps.RateLimiter.PublicMiddleware())
		r.Get("/programs", programHandler.List)
		r.Post("/users", enrolleeHandler.PublicCreate)
	})

	// --- 管理者認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAdminAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/api/auth/me", authHandler.Me)

		r.Route("/api/programs", func(r chi.Router) {
			r.Get("/", programHandler.List)
			r.Post("/", programHandler.Create)
			r.Put("/{id}", programHandler.Update)
			r.Delete("/{id}", programHandler.Delete)
		})

		r.Route("/api/users", func(r chi.Router) {
			r.Get("/", enrolleeHandler.List)
			r.Post("/", enrolleeHandler.Create)
			r.Get("/{id}/giftcards", enrolleeHandler.ListGiftCards)
		})
	})

	return r
}
