// Package app はサブコマンドの解析と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cocopalms/giftwallet/internal/auth"
	"github.com/cocopalms/giftwallet/internal/config"
	"github.com/cocopalms/giftwallet/internal/database"
	"github.com/cocopalms/giftwallet/internal/enrollment"
	"github.com/cocopalms/giftwallet/internal/handler"
	"github.com/cocopalms/giftwallet/internal/logger"
	"github.com/cocopalms/giftwallet/internal/metrics"
	"github.com/cocopalms/giftwallet/internal/middleware"
	"github.com/cocopalms/giftwallet/internal/program"
	"github.com/cocopalms/giftwallet/internal/repository"
	"github.com/cocopalms/giftwallet/internal/security"
	"github.com/cocopalms/giftwallet/internal/wallet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// defaultPort はSERVER_PORT未設定時のポート。
const defaultPort = "4000"

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再初期化
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = defaultPort
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.Bool("wallet_mock", cfg.WalletMockEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSeedAdmin:
		return runSeedAdmin(ctx, cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// 認証情報とDB接続を検証し、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// ctxがキャンセルされる（SIGINT/SIGTERM）とグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	log := slog.Default()

	// 1. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 2. ウォレット連携（認証情報の不備はここで起動失敗にする）
	provisioner, issuer, err := wallet.Setup(ctx, walletConfig(cfg),
		wallet.NewCredentialStore(cfg.WalletCredentials), collector, log)
	if err != nil {
		return fmt.Errorf("failed to set up wallet integration: %w", err)
	}

	// 3. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("database connection established")

	// 4. リポジトリの初期化
	programRepo := repository.NewPostgresProgramRepo(db)
	enrolleeRepo := repository.NewPostgresEnrolleeRepo(db)
	giftCardRepo := repository.NewPostgresGiftCardRepo(db)
	adminRepo := repository.NewPostgresAdminRepo(db)

	// 5. 管理者の初期登録（設定されている場合のみ）
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, err := auth.SeedAdmin(ctx, adminRepo, cfg.AdminEmail, cfg.AdminPassword, log); err != nil {
			return fmt.Errorf("failed to seed admin: %w", err)
		}
	}

	// 6. ドメインサービスの初期化
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.AdminTokenTTL)
	authService := auth.NewService(adminRepo, tokens, log)
	programService := program.NewService(programRepo, provisioner, security.NewTextSanitizer(), collector, log)
	enrollmentService := enrollment.NewService(programRepo, enrolleeRepo, giftCardRepo, issuer, collector, log)

	// 7. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitPublic), log)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		TokenVerifier:     tokens,
		CORSOrigins:       cfg.CORSOrigins,
		RateLimiter:       rateLimiter,
		TrustProxy:        cfg.TrustProxy,
		MetricsHandler:    metrics.Handler(registry),
		Logger:            log,
		AuthService:       authService,
		ProgramService:    programService,
		EnrollmentService: enrollmentService,
	})

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.WalletTimeout*3 + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down API server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("API server stopped gracefully")
	return nil
}

// walletConfig は設定からウォレット連携の設定を組み立てる。
func walletConfig(cfg *config.Config) wallet.Config {
	return wallet.Config{
		MockEnabled: cfg.WalletMockEnabled,
		IssuerID:    cfg.WalletIssuerID,
		ClassPrefix: cfg.WalletClassPrefix,
		IssuerName:  cfg.WalletIssuerName,
		APIBase:     cfg.WalletAPIBase,
		Timeout:     cfg.WalletTimeout,
	}
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	status, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("from_version", uint64(status.From)),
		slog.Uint64("to_version", uint64(status.To)),
		slog.Bool("applied", status.Applied()),
	)
	return nil
}

// runSeedAdmin はADMIN_EMAIL/ADMIN_PASSWORDの管理者を作成する。既に存在する場合は何もしない。
func runSeedAdmin(ctx context.Context, cfg *config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := auth.SeedAdmin(ctx, repository.NewPostgresAdminRepo(db), cfg.AdminEmail, cfg.AdminPassword, slog.Default()); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "***"
	}
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
	}
	return u.String()
}
