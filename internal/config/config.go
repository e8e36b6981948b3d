// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`

	// Admin auth
	JWTSecret     string        `env:"JWT_SECRET"`
	AdminTokenTTL time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"24h"`
	AdminEmail    string        `env:"ADMIN_EMAIL"`
	AdminPassword string        `env:"ADMIN_PASSWORD"`

	// Wallet
	WalletMockEnabled bool          `env:"GW_ENABLE_MOCK"`
	WalletIssuerID    string        `env:"GW_ISSUER_ID"`
	WalletClassPrefix string        `env:"GW_CLASS_PREFIX" envDefault:"cocopalms"`
	WalletIssuerName  string        `env:"GW_ISSUER_NAME" envDefault:"COCOPALMS"`
	WalletCredentials string        `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	WalletTimeout     time.Duration `env:"WALLET_TIMEOUT" envDefault:"10s"`
	WalletAPIBase     string        `env:"WALLET_API_BASE" envDefault:"https://walletobjects.googleapis.com/walletobjects/v1"`

	// Rate Limit（req/min）
	RateLimitPublic  int `env:"RATE_LIMIT_PUBLIC" envDefault:"30"`
	RateLimitGeneral int `env:"RATE_LIMIT_GENERAL" envDefault:"120"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Server
	ServerPort string `env:"SERVER_PORT" envDefault:"4000"`
	TrustProxy bool   `env:"TRUST_PROXY"`

	// CORS
	CORSOrigins []string `env:"CORS_ORIGIN" envSeparator:","`
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
// モック無効時はウォレット発行元IDと認証情報ファイルのパスも必須となる。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if !cfg.WalletMockEnabled {
		if cfg.WalletIssuerID == "" {
			missing = append(missing, "GW_ISSUER_ID")
		}
		if cfg.WalletCredentials == "" {
			missing = append(missing, "GOOGLE_APPLICATION_CREDENTIALS")
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	if cfg.WalletTimeout <= 0 {
		return nil, fmt.Errorf("WALLET_TIMEOUT must be positive: %s", cfg.WalletTimeout)
	}

	cfg.WalletAPIBase = strings.TrimRight(cfg.WalletAPIBase, "/")
	cfg.CORSOrigins = trimEmpty(cfg.CORSOrigins)

	return cfg, nil
}

// trimEmpty は前後の空白を除去し、空要素を取り除く。
func trimEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
