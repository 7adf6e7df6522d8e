package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Mahi11313/RoastMyStartup-main/internal/model"
)

// PostgresRoastRepo はPostgreSQLを使用したローストリポジトリ。
type PostgresRoastRepo struct {
	db *sql.DB
}

// NewPostgresRoastRepo はPostgresRoastRepoを生成する。
func NewPostgresRoastRepo(db *sql.DB) *PostgresRoastRepo {
	return &PostgresRoastRepo{db: db}
}

// Create はローストを保存する。
// roast.UserIDが空の場合はuser_idをNULLで保存する（匿名投稿）。
func (r *PostgresRoastRepo) Create(ctx context.Context, roast *model.Roast) error {
	if roast.ID == "" {
		roast.ID = uuid.New().String()
	}
	if roast.CreatedAt.IsZero() {
		roast.CreatedAt = time.Now().UTC()
	}

	var userID sql.NullString
	if roast.UserID != "" {
		userID = sql.NullString{String: roast.UserID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO roasts (
		   id, startup_name, idea_description, target_users, budget, roast_level,
		   brutal_roast, honest_feedback, competitor_reality_check, survival_tips, pitch_rewrite,
		   user_id, created_at
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		roast.ID,
		roast.Request.StartupName, roast.Request.IdeaDescription,
		roast.Request.TargetUsers, roast.Request.Budget, string(roast.Request.RoastLevel),
		roast.Response.BrutalRoast, roast.Response.HonestFeedback,
		roast.Response.CompetitorRealityCheck, pq.Array(roast.Response.SurvivalTips),
		roast.Response.PitchRewrite,
		userID, roast.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert roast: %w", err)
	}

	return nil
}

// Stats はロースト全体の統計を返す。
// 総数に加えてロースト強度別の件数を集計する。
func (r *PostgresRoastRepo) Stats(ctx context.Context) (*model.RoastStats, error) {
	stats := &model.RoastStats{
		RoastLevels: map[string]int{
			string(model.RoastLevelSoft):    0,
			string(model.RoastLevelMedium):  0,
			string(model.RoastLevelNuclear): 0,
		},
		LastUpdated: time.Now().UTC(),
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT roast_level, COUNT(*) FROM roasts GROUP BY roast_level`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query roast stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var level string
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, fmt.Errorf("failed to scan roast stats: %w", err)
		}
		stats.RoastLevels[level] = count
		stats.TotalRoasts += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roast stats: %w", err)
	}

	return stats, nil
}

// compile-time interface check
var _ RoastRepository = (*PostgresRoastRepo)(nil)
