// Package enrollment は利用者のプログラム登録とギフトカード発行を提供する。
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cocopalms/giftwallet/internal/model"
	"github.com/cocopalms/giftwallet/internal/repository"
	"github.com/cocopalms/giftwallet/internal/wallet"
	"github.com/google/uuid"
)

// 登録経路。メトリクスのラベルに使用する。
const (
	ZoneAdmin  = "admin"
	ZonePublic = "public"
)

// ObjectIssuer はウォレットオブジェクト発行のインターフェース。
type ObjectIssuer interface {
	IssueObject(ctx context.Context, req wallet.ObjectRequest) (wallet.ObjectResult, error)
}

// ProgramFinder はプログラム参照のインターフェース。
type ProgramFinder interface {
	FindByID(ctx context.Context, id string) (*model.Program, error)
}

// Recorder は登録の計測インターフェース。
type Recorder interface {
	RecordEnrollment(zone string)
}

// EnrollInput は登録の入力。ハンドラーで検証済みであること。
type EnrollInput struct {
	FullName  string
	Phone     string
	DOB       *time.Time
	Email     string
	ProgramID string
}

// Service は利用者登録のサービス層。
type Service struct {
	programs  ProgramFinder
	enrollees repository.EnrolleeRepository
	cards     repository.GiftCardRepository
	issuer    ObjectIssuer
	recorder  Recorder
	logger    *slog.Logger
}

// NewService はServiceを生成する。
func NewService(
	programs ProgramFinder,
	enrollees repository.EnrolleeRepository,
	cards repository.GiftCardRepository,
	issuer ObjectIssuer,
	recorder Recorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		programs:  programs,
		enrollees: enrollees,
		cards:     cards,
		issuer:    issuer,
		recorder:  recorder,
		logger:    logger,
	}
}

// Enroll は利用者をプログラムに登録し、ギフトカードを発行する。
// フロー: プログラム確認 → オブジェクト発行 → 利用者と監査レコードを同一トランザクションで保存
// プログラムが存在しない、またはクラス未作成の場合は発行APIを呼び出さない。
func (s *Service) Enroll(ctx context.Context, in EnrollInput, zone string) (*model.Enrollee, error) {
	// 1. プログラム確認
	program, err := s.findProgram(ctx, in.ProgramID)
	if err != nil {
		return nil, err
	}
	if !program.HasWalletClass() {
		return nil, model.NewProgramMissingClassError()
	}

	fullName := strings.TrimSpace(in.FullName)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	// 2. ウォレットオブジェクト発行
	obj, err := s.issuer.IssueObject(ctx, wallet.ObjectRequest{
		ClassID:     program.GWClassID,
		HolderName:  fullName,
		HolderEmail: email,
	})
	if err != nil {
		return nil, fmt.Errorf("ギフトカードの発行に失敗しました: %w", err)
	}

	// 3. 保存
	now := time.Now()
	enrollee := &model.Enrollee{
		ID:         uuid.New().String(),
		FullName:   fullName,
		Phone:      strings.TrimSpace(in.Phone),
		DOB:        in.DOB,
		Email:      email,
		ProgramID:  program.ID,
		GWObjectID: obj.ObjectID,
		GWSaveLink: obj.SaveLink,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	card := &model.GiftCard{
		ID:         uuid.New().String(),
		EnrolleeID: enrollee.ID,
		ProgramID:  program.ID,
		GWClassID:  program.GWClassID,
		GWObjectID: obj.ObjectID,
		SaveLink:   obj.SaveLink,
		CreatedAt:  now,
	}
	if err := s.enrollees.CreateWithGiftCard(ctx, enrollee, card); err != nil {
		// 発行済みのオブジェクトは残るため、追跡できるようにIDを記録する
		s.logger.Error("発行済みギフトカードの保存に失敗しました",
			slog.String("object_id", obj.ObjectID),
			slog.String("program_id", program.ID),
			slog.String("error", err.Error()),
		)
		// 発行中にプログラムが削除された
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, model.NewProgramNotFoundError()
		}
		return nil, fmt.Errorf("利用者の保存に失敗しました: %w", err)
	}

	s.recorder.RecordEnrollment(zone)
	s.logger.Info("利用者を登録しました",
		slog.String("user_id", enrollee.ID),
		slog.String("program_id", program.ID),
		slog.String("object_id", obj.ObjectID),
		slog.String("zone", zone),
	)
	return enrollee, nil
}

// List は全利用者を新しい順に返す。
func (s *Service) List(ctx context.Context) ([]*model.Enrollee, error) {
	enrollees, err := s.enrollees.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("利用者一覧の取得に失敗しました: %w", err)
	}
	return enrollees, nil
}

// ListGiftCards は利用者に発行されたギフトカードの監査レコードを返す。
func (s *Service) ListGiftCards(ctx context.Context, enrolleeID string) ([]*model.GiftCard, error) {
	if _, err := uuid.Parse(enrolleeID); err != nil {
		return nil, model.NewEnrolleeNotFoundError()
	}
	enrollee, err := s.enrollees.FindByID(ctx, enrolleeID)
	if err != nil {
		return nil, fmt.Errorf("利用者の取得に失敗しました: %w", err)
	}
	if enrollee == nil {
		return nil, model.NewEnrolleeNotFoundError()
	}

	cards, err := s.cards.ListByEnrollee(ctx, enrolleeID)
	if err != nil {
		return nil, fmt.Errorf("ギフトカードの取得に失敗しました: %w", err)
	}
	return cards, nil
}

func (s *Service) findProgram(ctx context.Context, id string) (*model.Program, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.NewProgramNotFoundError()
	}
	program, err := s.programs.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("プログラムの取得に失敗しました: %w", err)
	}
	if program == nil {
		return nil, model.NewProgramNotFoundError()
	}
	return program, nil
}
