package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// mockSaveURLPrefix はモック時の保存リンクのプレフィックス。
const mockSaveURLPrefix = "https://wallet.google/mock/save/"

// ObjectRequest はオブジェクト発行の入力。
// ClassIDは発行済みクラスを指していなければならない（この層では検証しない）。
type ObjectRequest struct {
	ClassID     string
	HolderName  string
	HolderEmail string
}

// ObjectResult はオブジェクト発行の結果。
type ObjectResult struct {
	ObjectID string
	SaveLink string
}

// Issuer は利用者ごとのギフトカードオブジェクトを発行し、保存リンクを生成する。
type Issuer struct {
	cfg    Config
	client *Client
	signer *SaveTokenSigner
	logger *slog.Logger
	now    func() time.Time

	mu         sync.Mutex
	lastMillis int64
}

// NewIssuer はIssuerを生成する。モック時はclientとsignerにnilを渡せる。
func NewIssuer(cfg Config, client *Client, signer *SaveTokenSigner, logger *slog.Logger) *Issuer {
	return &Issuer{
		cfg:    cfg,
		client: client,
		signer: signer,
		logger: logger,
		now:    time.Now,
	}
}

// nextMillis は発行用のタイムスタンプ（ミリ秒）を返す。
// 同一ミリ秒内の連続発行でも値が重複しないよう単調増加させる。
func (i *Issuer) nextMillis() int64 {
	i.mu.Lock()
	defer i.mu.Unlock()

	ms := i.now().UnixMilli()
	if ms <= i.lastMillis {
		ms = i.lastMillis + 1
	}
	i.lastMillis = ms
	return ms
}

// IssueObject はオブジェクトを作成し、保存リンクを返す。
// 本番ではオブジェクトIDにタイムスタンプを含むため、同じメールアドレスでも呼び出しごとに別のオブジェクトになる。
// 作成時の409は既存扱いとし、保存されているオブジェクトを取得して署名する。
func (i *Issuer) IssueObject(ctx context.Context, req ObjectRequest) (ObjectResult, error) {
	if req.HolderEmail == "" {
		return ObjectResult{}, ErrEmptyHolderEmail
	}

	if i.cfg.MockEnabled {
		objectID := req.ClassID + "." + Slugify(req.HolderEmail)
		return ObjectResult{ObjectID: objectID, SaveLink: mockSaveURLPrefix + objectID}, nil
	}

	ms := i.nextMillis()
	objectID := i.cfg.IssuerID + "." + Slugify(req.HolderEmail) + "-" + strconv.FormatInt(ms, 10)
	obj := objectPayload(objectID, req, ms)

	signed, err := json.Marshal(obj)
	if err != nil {
		return ObjectResult{}, fmt.Errorf("failed to encode gift card object: %w", err)
	}

	resp, err := i.client.do(ctx, opObjectInsert, http.MethodPost, "/giftCardObject", objectID, obj)
	if err != nil {
		return ObjectResult{}, err
	}
	switch {
	case resp.ok():
	case resp.StatusCode == http.StatusConflict:
		i.client.recorder.RecordWalletConflict("giftCardObject")
		i.logger.Warn("ギフトカードオブジェクトは作成済みです。保存済みの内容で署名します",
			slog.String("object_id", objectID),
		)
		stored, err := i.fetchObject(ctx, objectID)
		if err != nil {
			return ObjectResult{}, err
		}
		signed = stored
	default:
		return ObjectResult{}, i.client.fail(opObjectInsert, objectID, resp)
	}

	token, err := i.signer.Sign(signed)
	if err != nil {
		return ObjectResult{}, err
	}
	return ObjectResult{ObjectID: objectID, SaveLink: SaveLink(token)}, nil
}

// fetchObject は保存済みオブジェクトのJSON表現を取得する。
func (i *Issuer) fetchObject(ctx context.Context, objectID string) (json.RawMessage, error) {
	resp, err := i.client.do(ctx, opObjectGet, http.MethodGet, "/giftCardObject/"+url.PathEscape(objectID), objectID, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, i.client.fail(opObjectGet, objectID, resp)
	}
	if !json.Valid(resp.Body) {
		return nil, &APIError{
			Operation:  opObjectGet,
			ResourceID: objectID,
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
			Err:        errors.New("response is not valid JSON"),
		}
	}
	return json.RawMessage(resp.Body), nil
}

func objectPayload(objectID string, req ObjectRequest, ms int64) *giftCardObject {
	cardNumber := "C" + strconv.FormatInt(ms, 10)
	issuedAt := time.UnixMilli(ms).UTC()
	return &giftCardObject{
		ID:         objectID,
		ClassID:    req.ClassID,
		State:      "active",
		CardNumber: cardNumber,
		Barcode:    barcode{Type: "qrCode", Value: objectID},
		TextModulesData: []textModule{
			{Header: "Customer", Body: req.HolderName},
			{Header: "ID", Body: cardNumber},
			{Header: "MEMBER SINCE", Body: strconv.Itoa(issuedAt.Year())},
		},
		ImageModulesData: []imageModule{
			{MainImage: newImage(defaultImageURI, "Coffee")},
		},
	}
}
