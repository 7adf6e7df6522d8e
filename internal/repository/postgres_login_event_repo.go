package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Mahi11313/RoastMyStartup-main/internal/model"
)

// PostgresLoginEventRepo はPostgreSQLを使用したログインイベントリポジトリ。
type PostgresLoginEventRepo struct {
	db *sql.DB
}

// NewPostgresLoginEventRepo はPostgresLoginEventRepoを生成する。
func NewPostgresLoginEventRepo(db *sql.DB) *PostgresLoginEventRepo {
	return &PostgresLoginEventRepo{db: db}
}

// Create はログインイベントを1件追記する。
// IDとTimestampが未設定の場合はここで補完する。
func (r *PostgresLoginEventRepo) Create(ctx context.Context, event *model.LoginEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	// user_idカラムはユーザー削除時のSET NULLに備えてnullable。
	// 空文字列をそのまま入れるとFK違反になるためNULLに変換する。
	var userID sql.NullString
	if event.UserID != "" {
		userID = sql.NullString{String: event.UserID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO login_events (id, user_id, provider, success, timestamp, ip_address, user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, userID, event.Provider, event.Success,
		event.Timestamp, event.IPAddress, event.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("failed to insert login event: %w", err)
	}

	return nil
}

// compile-time interface check
var _ LoginEventRepository = (*PostgresLoginEventRepo)(nil)
