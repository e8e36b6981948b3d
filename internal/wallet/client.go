// Package wallet はウォレット発行APIとの連携を提供する。
// ギフトカードクラスのプロビジョニング、ギフトカードオブジェクトの発行、
// 保存リンク用アサーションの署名を含む。
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultAPIBase はウォレット発行APIのベースURL。
	DefaultAPIBase = "https://walletobjects.googleapis.com/walletobjects/v1"
	// DefaultTimeout は1回のAPI呼び出しのタイムアウト。
	DefaultTimeout = 10 * time.Second
	// maxResponseBody はレスポンスボディの読み取り上限。
	maxResponseBody = 1 << 20
)

// API操作名。メトリクスとエラーのラベルに使用する。
const (
	opClassGet     = "class_get"
	opClassInsert  = "class_insert"
	opObjectInsert = "object_insert"
	opObjectGet    = "object_get"
)

// Config はウォレット連携の設定。
type Config struct {
	// MockEnabled がtrueの場合は外部APIを呼び出さず決定的な識別子を返す。
	MockEnabled bool
	IssuerID    string
	ClassPrefix string
	IssuerName  string
	APIBase     string
	Timeout     time.Duration
}

// callTimeout は1回の呼び出しに課すタイムアウトを返す。
func (cfg Config) callTimeout() time.Duration {
	if cfg.Timeout <= 0 {
		return DefaultTimeout
	}
	return cfg.Timeout
}

// Recorder はAPI呼び出しの計測インターフェース。
type Recorder interface {
	RecordWalletRequest(operation string, status int, duration time.Duration)
	RecordWalletConflict(resource string)
}

type nopRecorder struct{}

func (nopRecorder) RecordWalletRequest(string, int, time.Duration) {}
func (nopRecorder) RecordWalletConflict(string)                    {}

// Client はウォレット発行APIのHTTPクライアント。
// 認証済みのhttp.Clientを受け取り、呼び出しごとにタイムアウトを課す。再試行はしない。
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	recorder   Recorder
	logger     *slog.Logger
}

// NewClient はClientの新しいインスタンスを生成する。
// recorderがnilの場合は計測しない。
func NewClient(httpClient *http.Client, cfg Config, recorder Recorder, logger *slog.Logger) *Client {
	baseURL := cfg.APIBase
	if baseURL == "" {
		baseURL = DefaultAPIBase
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		timeout:    cfg.callTimeout(),
		recorder:   recorder,
		logger:     logger,
	}
}

// response はAPIのレスポンス。非2xxもエラーではなくここで返す。
type response struct {
	StatusCode int
	Body       []byte
}

func (r *response) ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// do はAPIを1回呼び出す。通信失敗とタイムアウトは*APIErrorとして返す。
func (c *Client) do(ctx context.Context, op, method, path, resourceID string, payload any) (*response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s payload: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recorder.RecordWalletRequest(op, 0, time.Since(start))
		c.logger.Error("ウォレットAPIの呼び出しに失敗しました",
			slog.String("operation", op),
			slog.String("resource_id", resourceID),
			slog.String("error", err.Error()),
		)
		return nil, &APIError{Operation: op, ResourceID: resourceID, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	c.recorder.RecordWalletRequest(op, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, &APIError{Operation: op, ResourceID: resourceID, StatusCode: resp.StatusCode, Err: err}
	}

	return &response{StatusCode: resp.StatusCode, Body: data}, nil
}

// fail は想定外のステータスを*APIErrorとして記録・返却する。
func (c *Client) fail(op, resourceID string, resp *response) error {
	c.logger.Error("ウォレットAPIが想定外のステータスを返しました",
		slog.String("operation", op),
		slog.String("resource_id", resourceID),
		slog.Int("http_status", resp.StatusCode),
	)
	return &APIError{
		Operation:  op,
		ResourceID: resourceID,
		StatusCode: resp.StatusCode,
		Body:       string(resp.Body),
	}
}
