package wallet

import (
	"context"
	"fmt"
	"log/slog"
)

// Setup は設定に応じてProvisionerとIssuerを組み立てる。
// 本番モードでは認証情報をここで読み込み、失敗した場合はエラーを返す（起動時に検出するため）。
// ctxはアクセストークン取得に使われるため、プロセスと同じ寿命のものを渡す。
func Setup(ctx context.Context, cfg Config, creds *CredentialStore, recorder Recorder, logger *slog.Logger) (*Provisioner, *Issuer, error) {
	if cfg.MockEnabled {
		logger.Info("ウォレット連携はモックモードで動作します", slog.String("class_prefix", cfg.ClassPrefix))
		return NewProvisioner(cfg, nil, logger), NewIssuer(cfg, nil, nil, logger), nil
	}

	cred, err := creds.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load wallet credential: %w", err)
	}

	client := NewClient(cred.HTTPClient(ctx, cfg.callTimeout()), cfg, recorder, logger)
	logger.Info("ウォレット連携を初期化しました",
		slog.String("issuer_id", cfg.IssuerID),
		slog.String("client_email", cred.ClientEmail),
	)
	return NewProvisioner(cfg, client, logger),
		NewIssuer(cfg, client, NewSaveTokenSigner(creds), logger),
		nil
}
