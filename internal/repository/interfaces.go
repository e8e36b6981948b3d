// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/cocopalms/giftwallet/internal/model"
)

// ErrMissingReference は参照先のレコードが存在しないことを示す。
var ErrMissingReference = errors.New("referenced record does not exist")

// ErrDuplicate は一意制約違反を示す。
var ErrDuplicate = errors.New("duplicate record")

// ProgramRepository はプログラムデータの永続化インターフェース。
type ProgramRepository interface {
	// Create はプログラムを作成する。
	Create(ctx context.Context, program *model.Program) error

	// FindByID は指定IDのプログラムを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Program, error)

	// List は全プログラムを作成日時の新しい順に返す。
	List(ctx context.Context) ([]*model.Program, error)

	// Update は部分更新を適用し、更新後のプログラムを返す。見つからない場合はnilを返す。
	Update(ctx context.Context, id string, update model.ProgramUpdate) (*model.Program, error)

	// DeleteByID は指定IDのプログラムを削除する。
	// 削除した場合はtrue、存在しない場合はfalseを返す。
	// 登録済みの利用者と監査レコードは残り、プログラム参照がNULLになる。
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// EnrolleeRepository は利用者データの永続化インターフェース。
type EnrolleeRepository interface {
	// CreateWithGiftCard は利用者とギフトカード監査レコードを同一トランザクションで作成する。
	// プログラムが削除済みの場合はErrMissingReferenceを返す。
	CreateWithGiftCard(ctx context.Context, enrollee *model.Enrollee, card *model.GiftCard) error

	// FindByID は指定IDの利用者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Enrollee, error)

	// List は全利用者を作成日時の新しい順に返す。
	List(ctx context.Context) ([]*model.Enrollee, error)
}

// GiftCardRepository はギフトカード監査レコードの参照インターフェース。
type GiftCardRepository interface {
	// ListByEnrollee は指定利用者のギフトカードを作成日時の新しい順に返す。
	ListByEnrollee(ctx context.Context, enrolleeID string) ([]*model.GiftCard, error)
}

// AdminRepository は管理者データの永続化インターフェース。
type AdminRepository interface {
	// FindByEmail はメールアドレスで管理者を検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Admin, error)

	// FindByID は指定IDの管理者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Admin, error)

	// Create は管理者を作成する。メールアドレスが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, admin *model.Admin) error
}
