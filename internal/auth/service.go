// Package auth は管理者の認証（ログイン、トークン発行・検証、初期管理者の登録）を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cocopalms/giftwallet/internal/model"
	"github.com/cocopalms/giftwallet/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AdminStore はログインに必要な管理者の参照インターフェース。
type AdminStore interface {
	FindByEmail(ctx context.Context, email string) (*model.Admin, error)
	FindByID(ctx context.Context, id string) (*model.Admin, error)
}

// LoginResult はログイン成功時の結果。
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Admin     *model.Admin
}

// Service は管理者認証のビジネスロジックを提供する。
type Service struct {
	admins AdminStore
	tokens *TokenIssuer
	logger *slog.Logger
}

// NewService はServiceを生成する。
func NewService(admins AdminStore, tokens *TokenIssuer, logger *slog.Logger) *Service {
	return &Service{admins: admins, tokens: tokens, logger: logger}
}

// dummyHash は存在しないメールアドレスでも照合処理を行うためのハッシュ。
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("giftwallet-dummy-password"), bcrypt.DefaultCost)
	return h
})

// NormalizeEmail はメールアドレスを前後の空白除去と小文字化で正規化する。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login はメールアドレスとパスワードを照合し、管理者トークンを発行する。
// 未登録のメールアドレスとパスワード不一致は同じエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, model.NewMissingCredentialsError()
	}

	admin, err := s.admins.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}

	if admin == nil {
		// 未登録でも照合を1回行い、応答時間を揃える
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		s.logger.Warn("管理者ログインに失敗しました", slog.String("reason", "unknown_email"))
		return nil, model.NewInvalidCredentialsError()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("管理者ログインに失敗しました",
			slog.String("reason", "password_mismatch"),
			slog.String("admin_id", admin.ID),
		)
		return nil, model.NewInvalidCredentialsError()
	}

	token, expiresAt, err := s.tokens.Issue(admin.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("管理者がログインしました", slog.String("admin_id", admin.ID))
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Admin: admin}, nil
}

// CurrentAdmin は認証済み管理者の情報を返す。
// トークン発行後に管理者が削除されている場合は認証エラーとする。
func (s *Service) CurrentAdmin(ctx context.Context, adminID string) (*model.Admin, error) {
	admin, err := s.admins.FindByID(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	if admin == nil {
		return nil, model.NewUnauthorizedError()
	}
	return admin, nil
}

// SeedAdmin は管理者が未登録の場合のみ作成する。作成した場合はtrueを返す。
// 同時実行で一意制約に違反した場合も既存として扱う。
func SeedAdmin(ctx context.Context, admins repository.AdminRepository, email, password string, logger *slog.Logger) (bool, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return false, errors.New("admin email and password are required")
	}

	existing, err := admins.FindByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("failed to check existing admin: %w", err)
	}
	if existing != nil {
		logger.Info("管理者は登録済みです", slog.String("admin_id", existing.ID))
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash admin password: %w", err)
	}

	now := time.Now()
	admin := &model.Admin{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create admin: %w", err)
	}

	logger.Info("管理者を作成しました", slog.String("admin_id", admin.ID), slog.String("email", email))
	return true, nil
}
