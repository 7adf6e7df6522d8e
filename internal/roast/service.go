// Package roast はロースト生成と保存のビジネスロジックを提供する。
package roast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Mahi11313/RoastMyStartup-main/internal/model"
	"github.com/Mahi11313/RoastMyStartup-main/internal/repository"
	"github.com/Mahi11313/RoastMyStartup-main/internal/security"
)

// Generator はロースト結果の生成インターフェース。
// gemini.Clientの部分集合として定義する。
type Generator interface {
	Generate(ctx context.Context, req *model.RoastRequest) (*model.RoastResponse, error)
}

// Metrics はローストサービスが記録するメトリクスのインターフェース。
type Metrics interface {
	RecordRoastGenerated(level string)
	RecordGenerationLatency(seconds float64)
	RecordPersistenceDegraded(store string)
}

// Result はロースト処理の結果を表す。
// Persistedは保存が成功したかどうかを示す。保存の失敗は
// レスポンスの成否に影響しない（フェイルオープン）。
type Result struct {
	Response  *model.RoastResponse
	Persisted bool
}

// Service はロースト生成と保存のビジネスロジックを提供する。
// 生成の失敗のみが致命的で、保存の失敗は結果に degraded として記録される。
type Service struct {
	generator Generator
	repo      repository.RoastRepository
	sanitizer security.PitchSanitizerService
	metrics   Metrics
	logger    *slog.Logger
	now       func() time.Time // テスト用に差し替え可能
}

// NewService はServiceを生成する。
func NewService(
	generator Generator,
	repo repository.RoastRepository,
	sanitizer security.PitchSanitizerService,
	metrics Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		generator: generator,
		repo:      repo,
		sanitizer: sanitizer,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// RoastAndSave はピッチを検証・サニタイズし、ローストを生成して保存する。
//
// userIDは解決済みの書き込み主体で、空文字列は匿名を意味する。
// 検証エラーと生成失敗はエラーとして返る。保存の失敗はエラーにならず、
// Result.Persistedがfalseになる。
func (s *Service) RoastAndSave(ctx context.Context, req *model.RoastRequest, userID string) (*Result, error) {
	sanitized := s.sanitizeRequest(req)

	if err := validateRequest(sanitized); err != nil {
		return nil, err
	}

	// 生成の失敗のみがユーザーに見える失敗
	start := s.now()
	resp, err := s.generator.Generate(ctx, sanitized)
	latency := s.now().Sub(start)
	s.metrics.RecordGenerationLatency(latency.Seconds())
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	s.metrics.RecordRoastGenerated(string(sanitized.RoastLevel))

	// 保存はフェイルオープン。失敗してもローストは返す。
	persisted := true
	record := &model.Roast{
		Request:  *sanitized,
		Response: *resp,
		UserID:   userID,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		persisted = false
		s.metrics.RecordPersistenceDegraded("roasts")
		s.logger.Error("failed to persist roast, returning result anyway",
			slog.String("roast_level", string(sanitized.RoastLevel)),
			slog.Bool("anonymous", userID == ""),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("roast generated",
		slog.String("roast_level", string(sanitized.RoastLevel)),
		slog.Bool("anonymous", userID == ""),
		slog.Bool("persisted", persisted),
		slog.Duration("generation_latency", latency),
	)

	return &Result{Response: resp, Persisted: persisted}, nil
}

// Stats はロースト全体の統計を返す。
func (s *Service) Stats(ctx context.Context) (*model.RoastStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load roast stats: %w", err)
	}
	return stats, nil
}

// sanitizeRequest はピッチの各フィールドをサニタイズした複製を返す。
// 元のリクエストは変更しない。
func (s *Service) sanitizeRequest(req *model.RoastRequest) *model.RoastRequest {
	return &model.RoastRequest{
		StartupName:     s.sanitizer.Sanitize(req.StartupName),
		IdeaDescription: s.sanitizer.Sanitize(req.IdeaDescription),
		TargetUsers:     s.sanitizer.Sanitize(req.TargetUsers),
		Budget:          s.sanitizer.Sanitize(req.Budget),
		RoastLevel:      req.RoastLevel,
	}
}

// validateRequest は必須フィールドとロースト強度を検証する。
func validateRequest(req *model.RoastRequest) error {
	if req.StartupName == "" {
		return model.NewMissingFieldError("startup_name")
	}
	if req.IdeaDescription == "" {
		return model.NewMissingFieldError("idea_description")
	}
	if !req.RoastLevel.Valid() {
		return model.NewInvalidRoastLevelError(string(req.RoastLevel))
	}
	return nil
}
