package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cocopalms/giftwallet/internal/model"
)

const enrolleeColumns = `id, full_name, phone, dob, email, program_id, gw_object_id, gw_save_link, created_at, updated_at`

// PostgresEnrolleeRepo はPostgreSQLを使用した利用者リポジトリ。
// テーブル名はAPI上の呼称に合わせてusersとしている。
type PostgresEnrolleeRepo struct {
	db *sql.DB
}

// NewPostgresEnrolleeRepo はPostgresEnrolleeRepoを生成する。
func NewPostgresEnrolleeRepo(db *sql.DB) *PostgresEnrolleeRepo {
	return &PostgresEnrolleeRepo{db: db}
}

func scanEnrollee(row rowScanner) (*model.Enrollee, error) {
	e := &model.Enrollee{}
	var dob sql.NullTime
	var programID, objectID, saveLink sql.NullString
	err := row.Scan(
		&e.ID, &e.FullName, &e.Phone, &dob, &e.Email, &programID,
		&objectID, &saveLink, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if dob.Valid {
		t := dob.Time
		e.DOB = &t
	}
	e.ProgramID = programID.String
	e.GWObjectID = objectID.String
	e.GWSaveLink = saveLink.String
	return e, nil
}

// CreateWithGiftCard は利用者とギフトカード監査レコードを同一トランザクションで作成する。
func (r *PostgresEnrolleeRepo) CreateWithGiftCard(ctx context.Context, enrollee *model.Enrollee, card *model.GiftCard) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 利用者を作成
	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, full_name, phone, dob, email, program_id, gw_object_id, gw_save_link, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		enrollee.ID, enrollee.FullName, enrollee.Phone, enrollee.DOB, enrollee.Email, enrollee.ProgramID,
		nullString(enrollee.GWObjectID), nullString(enrollee.GWSaveLink), enrollee.CreatedAt, enrollee.UpdatedAt,
	)
	if isForeignKeyViolation(err) {
		return ErrMissingReference
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	// 監査レコードを作成
	_, err = tx.ExecContext(ctx,
		`INSERT INTO gift_cards (id, user_id, program_id, gw_class_id, gw_object_id, save_link, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		card.ID, card.EnrolleeID, card.ProgramID, card.GWClassID, card.GWObjectID, card.SaveLink, card.CreatedAt,
	)
	if isForeignKeyViolation(err) {
		return ErrMissingReference
	}
	if err != nil {
		return fmt.Errorf("failed to insert gift card: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// FindByID は指定IDの利用者を取得する。見つからない場合はnilを返す。
func (r *PostgresEnrolleeRepo) FindByID(ctx context.Context, id string) (*model.Enrollee, error) {
	e, err := scanEnrollee(r.db.QueryRowContext(ctx,
		`SELECT `+enrolleeColumns+` FROM users WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return e, nil
}

// List は全利用者を作成日時の新しい順に返す。
func (r *PostgresEnrolleeRepo) List(ctx context.Context) ([]*model.Enrollee, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+enrolleeColumns+` FROM users ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	enrollees := []*model.Enrollee{}
	for rows.Next() {
		e, err := scanEnrollee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		enrollees = append(enrollees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return enrollees, nil
}

// compile-time interface check
var _ EnrolleeRepository = (*PostgresEnrolleeRepo)(nil)
