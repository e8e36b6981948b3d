package wallet

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
)

const (
	// defaultImageURI はクラスとオブジェクトの画像に使用するURI。
	defaultImageURI = "https://plus.unsplash.com/premium_photo-1675435644687-562e8042b9db?q=80&w=1049&auto=format&fit=crop"
	// classBackgroundColor はカードの背景色。
	classBackgroundColor = "#00AFAF"
)

// ClassResult はクラスのプロビジョニング結果。
type ClassResult struct {
	ClassID string
	// Created はこの呼び出しでクラスを作成したかを示す。409で既存扱いとした場合はfalse。
	Created bool
}

// Provisioner はプログラムに対応するギフトカードクラスを用意する。
type Provisioner struct {
	cfg    Config
	client *Client
	logger *slog.Logger
}

// NewProvisioner はProvisionerを生成する。モック時はclientにnilを渡せる。
func NewProvisioner(cfg Config, client *Client, logger *slog.Logger) *Provisioner {
	return &Provisioner{cfg: cfg, client: client, logger: logger}
}

// ClassID はプログラム名からクラスIDを導出する。
//   - モック: {classPrefix}.{slug}-class
//   - 本番: {issuerId}.{classPrefix}-{slug}
func (p *Provisioner) ClassID(programName string) string {
	slug := Slugify(programName)
	if p.cfg.MockEnabled {
		return p.cfg.ClassPrefix + "." + slug + "-class"
	}
	return p.cfg.IssuerID + "." + p.cfg.ClassPrefix + "-" + slug
}

// ProvisionClass はクラスの存在を保証し、クラスIDを返す。
// 既存であれば変更せずに返し、404の場合のみ作成する。作成時の409は成功として扱う。
// 同じプログラム名で何度呼び出しても作成は最初の1回に限られる。
func (p *Provisioner) ProvisionClass(ctx context.Context, programName string) (ClassResult, error) {
	if programName == "" {
		return ClassResult{}, ErrEmptyProgramName
	}

	classID := p.ClassID(programName)
	if p.cfg.MockEnabled {
		return ClassResult{ClassID: classID}, nil
	}

	resp, err := p.client.do(ctx, opClassGet, http.MethodGet, "/giftCardClass/"+url.PathEscape(classID), classID, nil)
	if err != nil {
		return ClassResult{}, err
	}
	switch {
	case resp.ok():
		return ClassResult{ClassID: classID}, nil
	case resp.StatusCode != http.StatusNotFound:
		return ClassResult{}, p.client.fail(opClassGet, classID, resp)
	}

	resp, err = p.client.do(ctx, opClassInsert, http.MethodPost, "/giftCardClass", classID, p.classPayload(classID, programName))
	if err != nil {
		return ClassResult{}, err
	}
	switch {
	case resp.ok():
		p.logger.Info("ギフトカードクラスを作成しました", slog.String("class_id", classID))
		return ClassResult{ClassID: classID, Created: true}, nil
	case resp.StatusCode == http.StatusConflict:
		p.client.recorder.RecordWalletConflict("giftCardClass")
		p.logger.Info("ギフトカードクラスは作成済みです", slog.String("class_id", classID))
		return ClassResult{ClassID: classID}, nil
	default:
		return ClassResult{}, p.client.fail(opClassInsert, classID, resp)
	}
}

func (p *Provisioner) classPayload(classID, programName string) *giftCardClass {
	return &giftCardClass{
		ID:                 classID,
		IssuerName:         p.cfg.IssuerName,
		ReviewStatus:       "underReview",
		ProgramName:        programName,
		HexBackgroundColor: classBackgroundColor,
		Logo:               newImage(defaultImageURI, "Logo"),
		HeroImage:          newImage(defaultImageURI, "Hero image"),
		TextModulesData: []textModule{
			{Header: programName, Body: "Special discount tier"},
		},
	}
}
