package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cocopalms/giftwallet/internal/model"
)

// PostgresGiftCardRepo はPostgreSQLを使用したギフトカード監査レコードのリポジトリ。
type PostgresGiftCardRepo struct {
	db *sql.DB
}

// NewPostgresGiftCardRepo はPostgresGiftCardRepoを生成する。
func NewPostgresGiftCardRepo(db *sql.DB) *PostgresGiftCardRepo {
	return &PostgresGiftCardRepo{db: db}
}

// ListByEnrollee は指定利用者のギフトカードを作成日時の新しい順に返す。
func (r *PostgresGiftCardRepo) ListByEnrollee(ctx context.Context, enrolleeID string) ([]*model.GiftCard, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, program_id, gw_class_id, gw_object_id, save_link, created_at
		 FROM gift_cards WHERE user_id = $1 ORDER BY created_at DESC`,
		enrolleeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list gift cards: %w", err)
	}
	defer rows.Close()

	cards := []*model.GiftCard{}
	for rows.Next() {
		c := &model.GiftCard{}
		var programID sql.NullString
		if err := rows.Scan(&c.ID, &c.EnrolleeID, &programID, &c.GWClassID, &c.GWObjectID, &c.SaveLink, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan gift card: %w", err)
		}
		c.ProgramID = programID.String
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate gift cards: %w", err)
	}
	return cards, nil
}

// compile-time interface check
var _ GiftCardRepository = (*PostgresGiftCardRepo)(nil)
