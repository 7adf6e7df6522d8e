package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Mahi11313/RoastMyStartup-main/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// Upsert は(provider, provider_id)をキーにユーザーを冪等に作成または更新する。
// UNIQUE(provider, provider_id)制約を利用したINSERT ON CONFLICTで実装し、
// 同一外部アカウントの同時ログインでも行が重複しないことをDB側で保証する。
func (r *PostgresUserRepo) Upsert(ctx context.Context, provider, providerID, email, name, picture string) (*model.User, error) {
	now := time.Now().UTC()
	user := &model.User{}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (id, provider, provider_id, email, name, picture, last_login, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		 ON CONFLICT (provider, provider_id) DO UPDATE SET
		   email = EXCLUDED.email,
		   name = EXCLUDED.name,
		   picture = EXCLUDED.picture,
		   last_login = EXCLUDED.last_login
		 RETURNING id, provider, provider_id, email, name, picture, last_login, created_at`,
		uuid.New().String(), provider, providerID, email, name, picture, now,
	).Scan(
		&user.ID, &user.Provider, &user.ProviderID,
		&user.Email, &user.Name, &user.Picture,
		&user.LastLogin, &user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, provider, provider_id, email, name, picture, last_login, created_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(
		&user.ID, &user.Provider, &user.ProviderID,
		&user.Email, &user.Name, &user.Picture,
		&user.LastLogin, &user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// DeleteByID は指定IDのユーザーを削除する。
// login_eventsとroastsのuser_idはFK制約のON DELETE SET NULLでNULL化されるため、
// 過去のイベントと匿名相当のローストは削除後も保持される。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
