package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Mahi11313/RoastMyStartup-main/internal/metrics"
	"github.com/Mahi11313/RoastMyStartup-main/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	IdentityResolver  middleware.IdentityResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// サービス
	AuthService  AuthServiceInterface
	AuthConfig   AuthHandlerConfig
	RoastService RoastServiceInterface

	// ヘルスチェックとメトリクス
	DB       Pinger
	Gatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → Logging → Identity → RateLimit(General)
//
// Identityミドルウェアはリクエストを拒否しない。認証が必須のエンドポイント
// （/auth/me）はハンドラー側で401を返す。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewIdentityMiddleware(deps.IdentityResolver))
	r.Use(deps.RateLimiter.GeneralMiddleware())

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	roastHandler := NewRoastHandler(deps.RoastService)
	healthHandler := NewHealthHandler(deps.DB)

	// 認証フロー
	r.Route("/auth", func(r chi.Router) {
		r.Get("/me", authHandler.Me)
		r.Delete("/me", authHandler.Withdraw)
		r.Get("/{provider}", authHandler.Login)
		r.Get("/{provider}/callback", authHandler.Callback)
	})

	// ロースト
	r.Route("/roast", func(r chi.Router) {
		// POST /roast - 生成AI呼び出しのため専用レート制限を追加
		r.With(deps.RateLimiter.RoastMiddleware()).Post("/", roastHandler.Roast)
		r.Get("/stats", roastHandler.Stats)
	})

	// 運用系
	r.Get("/health", healthHandler.Health)
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))

	return r
}
