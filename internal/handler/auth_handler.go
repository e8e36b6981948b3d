package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cocopalms/giftwallet/internal/auth"
	"github.com/cocopalms/giftwallet/internal/middleware"
	"github.com/cocopalms/giftwallet/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	CurrentAdmin(ctx context.Context, adminID string) (*model.Admin, error)
}

// AuthHandler は管理者認証のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	logger  *slog.Logger
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type meResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Login はメールアドレスとパスワードで管理者トークンを発行する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewMissingCredentialsError())
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: result.Token, ExpiresAt: result.ExpiresAt})
}

// Me は認証済み管理者の情報を返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.AdminIDFromContext(r.Context())
	if err != nil {
		middleware.WriteUnauthorized(w)
		return
	}

	admin, err := h.service.CurrentAdmin(r.Context(), adminID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{ID: admin.ID, Email: admin.Email})
}
