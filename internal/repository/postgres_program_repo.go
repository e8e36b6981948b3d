package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cocopalms/giftwallet/internal/model"
)

const programColumns = `id, name, description, amount, expiry_date, theme_url, gw_class_id, created_at, updated_at`

// PostgresProgramRepo はPostgreSQLを使用したプログラムリポジトリ。
type PostgresProgramRepo struct {
	db *sql.DB
}

// NewPostgresProgramRepo はPostgresProgramRepoを生成する。
func NewPostgresProgramRepo(db *sql.DB) *PostgresProgramRepo {
	return &PostgresProgramRepo{db: db}
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// nullString は空文字列をNULLとして扱う。
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func scanProgram(row rowScanner) (*model.Program, error) {
	p := &model.Program{}
	var expiry sql.NullTime
	var classID sql.NullString
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Amount, &expiry,
		&p.ThemeURL, &classID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if expiry.Valid {
		t := expiry.Time
		p.ExpiryDate = &t
	}
	p.GWClassID = classID.String
	return p, nil
}

// Create はプログラムを作成する。
func (r *PostgresProgramRepo) Create(ctx context.Context, program *model.Program) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO programs (id, name, description, amount, expiry_date, theme_url, gw_class_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		program.ID, program.Name, program.Description, program.Amount, program.ExpiryDate,
		program.ThemeURL, nullString(program.GWClassID), program.CreatedAt, program.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert program: %w", err)
	}
	return nil
}

// FindByID は指定IDのプログラムを取得する。見つからない場合はnilを返す。
func (r *PostgresProgramRepo) FindByID(ctx context.Context, id string) (*model.Program, error) {
	p, err := scanProgram(r.db.QueryRowContext(ctx,
		`SELECT `+programColumns+` FROM programs WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find program by ID: %w", err)
	}
	return p, nil
}

// List は全プログラムを作成日時の新しい順に返す。
func (r *PostgresProgramRepo) List(ctx context.Context) ([]*model.Program, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+programColumns+` FROM programs ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	defer rows.Close()

	programs := []*model.Program{}
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan program: %w", err)
		}
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate programs: %w", err)
	}
	return programs, nil
}

// Update は部分更新を適用し、更新後のプログラムを返す。見つからない場合はnilを返す。
// nilのフィールドは現在の値を維持する。
func (r *PostgresProgramRepo) Update(ctx context.Context, id string, update model.ProgramUpdate) (*model.Program, error) {
	p, err := scanProgram(r.db.QueryRowContext(ctx,
		`UPDATE programs SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			amount = COALESCE($4, amount),
			expiry_date = COALESCE($5, expiry_date),
			theme_url = COALESCE($6, theme_url),
			updated_at = now()
		 WHERE id = $1
		 RETURNING `+programColumns,
		id, update.Name, update.Description, update.Amount, update.ExpiryDate, update.ThemeURL,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update program: %w", err)
	}
	return p, nil
}

// DeleteByID は指定IDのプログラムを削除する。
func (r *PostgresProgramRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM programs WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete program: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ ProgramRepository = (*PostgresProgramRepo)(nil)
