// Package program はプログラムの作成・更新・削除とウォレットクラスのプロビジョニングを提供する。
package program

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cocopalms/giftwallet/internal/model"
	"github.com/cocopalms/giftwallet/internal/repository"
	"github.com/cocopalms/giftwallet/internal/wallet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClassProvisioner はウォレットクラスのプロビジョニングのインターフェース。
type ClassProvisioner interface {
	ProvisionClass(ctx context.Context, programName string) (wallet.ClassResult, error)
}

// Sanitizer はテキストのサニタイズのインターフェース。
type Sanitizer interface {
	Sanitize(raw string) string
}

// Recorder はプログラム作成の計測インターフェース。
type Recorder interface {
	RecordProgramCreated()
}

// CreateInput はプログラム作成の入力。ハンドラーで検証済みであること。
type CreateInput struct {
	Name        string
	Description string
	Amount      decimal.Decimal
	ExpiryDate  *time.Time
	ThemeURL    string
}

// Service はプログラム管理のサービス層。
type Service struct {
	repo        repository.ProgramRepository
	provisioner ClassProvisioner
	sanitizer   Sanitizer
	recorder    Recorder
	logger      *slog.Logger
}

// NewService はServiceを生成する。
func NewService(
	repo repository.ProgramRepository,
	provisioner ClassProvisioner,
	sanitizer Sanitizer,
	recorder Recorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:        repo,
		provisioner: provisioner,
		sanitizer:   sanitizer,
		recorder:    recorder,
		logger:      logger,
	}
}

// Create はウォレットクラスを用意した上でプログラムを保存する。
// クラスの用意に失敗した場合はプログラムを保存しない。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Program, error) {
	name := strings.TrimSpace(in.Name)

	// 1. ウォレットクラスの用意（プログラム作成ごとに1回）
	class, err := s.provisioner.ProvisionClass(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("ウォレットクラスの用意に失敗しました: %w", err)
	}

	// 2. クラス参照付きで保存
	now := time.Now()
	p := &model.Program{
		ID:          uuid.New().String(),
		Name:        name,
		Description: s.sanitizer.Sanitize(in.Description),
		Amount:      in.Amount,
		ExpiryDate:  in.ExpiryDate,
		ThemeURL:    strings.TrimSpace(in.ThemeURL),
		GWClassID:   class.ClassID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("プログラムの保存に失敗しました: %w", err)
	}

	s.recorder.RecordProgramCreated()
	s.logger.Info("プログラムを作成しました",
		slog.String("program_id", p.ID),
		slog.String("class_id", p.GWClassID),
		slog.Bool("class_created", class.Created),
	)
	return p, nil
}

// List は全プログラムを新しい順に返す。
func (s *Service) List(ctx context.Context) ([]*model.Program, error) {
	programs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("プログラム一覧の取得に失敗しました: %w", err)
	}
	return programs, nil
}

// Get は指定IDのプログラムを返す。存在しない場合はPROGRAM_NOT_FOUNDエラーを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Program, error) {
	if !isUUID(id) {
		return nil, model.NewProgramNotFoundError()
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("プログラムの取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewProgramNotFoundError()
	}
	return p, nil
}

// Update はプログラムを部分更新する。クラス参照は更新対象に含まれない。
// 名前を変更してもウォレットクラスは作り直さない。
func (s *Service) Update(ctx context.Context, id string, update model.ProgramUpdate) (*model.Program, error) {
	if !isUUID(id) {
		return nil, model.NewProgramNotFoundError()
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		update.Name = &name
	}
	if update.Description != nil {
		desc := s.sanitizer.Sanitize(*update.Description)
		update.Description = &desc
	}
	if update.ThemeURL != nil {
		themeURL := strings.TrimSpace(*update.ThemeURL)
		update.ThemeURL = &themeURL
	}

	p, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("プログラムの更新に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewProgramNotFoundError()
	}
	return p, nil
}

// Delete はプログラムを削除する。存在しない場合も成功として扱う。
// 登録済みの利用者と発行済みカードの記録は残る。
func (s *Service) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return nil
	}
	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("プログラムの削除に失敗しました: %w", err)
	}
	if deleted {
		s.logger.Info("プログラムを削除しました", slog.String("program_id", id))
	}
	return nil
}

// isUUID はIDがUUID形式かを返す。形式外のIDは存在しないものとして扱う。
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
