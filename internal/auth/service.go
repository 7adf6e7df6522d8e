// Package auth はOAuth認証フローとセッショントークンの発行を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mahi11313/RoastMyStartup-main/internal/model"
	"github.com/Mahi11313/RoastMyStartup-main/internal/repository"
)

// OAuthUserInfo はOAuthプロバイダーから取得したユーザー情報を表す。
type OAuthUserInfo struct {
	ProviderUserID string
	Email          string
	Name           string
	Picture        string
	Provider       string // "google" 等
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
// 将来的に複数IdP（Google, GitHub等）に対応するための抽象化。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、ユーザー情報を取得する。
	ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error)
}

// TokenIssuer はセッショントークンの発行インターフェース。
// token.Codecの部分集合として定義する。
type TokenIssuer interface {
	Issue(subject, provider, email, name string) (string, error)
}

// LoginResult はログインフロー完了時の結果を表す。
// UserIDはアップサート失敗時に空文字列になり得る（フェイルオープン）。
type LoginResult struct {
	Token  string
	UserID string
	Email  string
	Name   string
}

// Metrics は認証サービスが記録するメトリクスのインターフェース。
type Metrics interface {
	RecordLogin(success bool)
	RecordPersistenceDegraded(store string)
}

// Service は認証に関するビジネスロジックを提供する。
// ログインフローは CodeReceived → ProfileFetched → IdentityUpserted →
// EventRecorded → TokenIssued の順に進行し、OAuth交換の失敗のみが致命的。
// 永続化の失敗はログに記録してフローを継続する。
type Service struct {
	oauth     OAuthProvider
	userRepo  repository.UserRepository
	eventRepo repository.LoginEventRepository
	issuer    TokenIssuer
	metrics   Metrics
}

// NewService はServiceを生成する。
func NewService(
	oauth OAuthProvider,
	userRepo repository.UserRepository,
	eventRepo repository.LoginEventRepository,
	issuer TokenIssuer,
	metrics Metrics,
) *Service {
	return &Service{
		oauth:     oauth,
		userRepo:  userRepo,
		eventRepo: eventRepo,
		issuer:    issuer,
		metrics:   metrics,
	}
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// HandleCallback はOAuthコールバックを処理し、署名付きセッショントークンを発行する。
//
// OAuth交換の失敗のみがエラーとして返る。ユーザーのアップサートと
// ログインイベントの記録は失敗してもフローを止めない（フェイルオープン）。
// アップサートが失敗した場合、トークンはsubjectを空にして発行される。
func (s *Service) HandleCallback(ctx context.Context, code, ipAddress, userAgent string) (*LoginResult, error) {
	// 1. 認可コードをトークンに交換し、ユーザー情報を取得（失敗は致命的）
	userInfo, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		s.metrics.RecordLogin(false)
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	// 2. (provider, provider_id)キーでユーザーを冪等にアップサート。
	// 失敗してもログインを止めず、subjectなしでトークンを発行する。
	var userID string
	user, err := s.userRepo.Upsert(ctx,
		userInfo.Provider, userInfo.ProviderUserID,
		userInfo.Email, userInfo.Name, userInfo.Picture,
	)
	if err != nil {
		s.metrics.RecordPersistenceDegraded("users")
		slog.Error("failed to upsert user, continuing without identity",
			slog.String("provider", userInfo.Provider),
			slog.String("error", err.Error()),
		)
	} else {
		userID = user.ID
	}

	// 3. ログインイベントを追記（イベントは解決済みの識別子に対してのみ存在する）。
	// 失敗は致命的ではない。
	if userID != "" {
		event := &model.LoginEvent{
			UserID:    userID,
			Provider:  userInfo.Provider,
			Success:   true,
			IPAddress: ipAddress,
			UserAgent: userAgent,
		}
		if err := s.eventRepo.Create(ctx, event); err != nil {
			s.metrics.RecordPersistenceDegraded("login_events")
			slog.Error("failed to record login event",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}

	// 4. トークンを発行する。署名設定が存在する限りここは必ず成功し、
	// 上流の永続化の結果には依存しない。
	tokenStr, err := s.issuer.Issue(userID, userInfo.Provider, userInfo.Email, userInfo.Name)
	if err != nil {
		s.metrics.RecordLogin(false)
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	s.metrics.RecordLogin(true)
	slog.Info("login completed",
		slog.String("provider", userInfo.Provider),
		slog.String("user_id", userID),
		slog.Bool("identity_persisted", userID != ""),
	)

	return &LoginResult{
		Token:  tokenStr,
		UserID: userID,
		Email:  userInfo.Email,
		Name:   userInfo.Name,
	}, nil
}

// CurrentUser は内部ユーザーIDからユーザー情報を取得する。
func (s *Service) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	return user, nil
}

// DeleteAccount はユーザーを削除する。
// 依存レコード（login_events、roasts）の参照はDB側でNULL化され、
// ロースト自体は匿名相当として残る。
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user ID is required")
	}

	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("user account deleted", slog.String("user_id", userID))
	return nil
}
