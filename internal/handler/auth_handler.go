// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Mahi11313/RoastMyStartup-main/internal/auth"
	"github.com/Mahi11313/RoastMyStartup-main/internal/middleware"
	"github.com/Mahi11313/RoastMyStartup-main/internal/model"
)

const oauthStateCookie = "oauth_state"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GetLoginURL(state string) string
	HandleCallback(ctx context.Context, code, ipAddress, userAgent string) (*auth.LoginResult, error)
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
	DeleteAccount(ctx context.Context, userID string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	FrontendURL  string // ログイン完了後のリダイレクト先
	CookieSecure bool
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
// セッションはステートレスなベアラートークンで、サーバー側には保存しない。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// Login はOAuthフローを開始する。
// GET /auth/{provider}
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if provider := chi.URLParam(r, "provider"); provider != "google" {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewUnknownProviderError(provider))
		return
	}

	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	// stateをCookieに保存（CSRF対策）
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10分
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.service.GetLoginURL(state), http.StatusTemporaryRedirect)
}

// Callback はOAuthコールバックを処理する。
// GET /auth/{provider}/callback?code=xxx&state=yyy
//
// 成功時はフロントエンドに ?token=... を付けてリダイレクトする。
// OAuth交換の失敗時は ?error=auth_failed を付けてリダイレクトする。
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if provider := chi.URLParam(r, "provider"); provider != "google" {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewUnknownProviderError(provider))
		return
	}

	// 1. stateの検証（CSRF対策）
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || stateCookie.Value != state {
		slog.Warn("oauth state mismatch",
			slog.String("query_state", state),
		)
		http.Error(w, "invalid state parameter", http.StatusBadRequest)
		return
	}

	// stateクッキーを削除
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	// 2. 認可コードの取得
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	// 3. 認証処理。失敗はOAuth交換の失敗のみ（永続化の失敗はフローを止めない）
	result, err := h.service.HandleCallback(r.Context(), code, clientIP(r), r.UserAgent())
	if err != nil {
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		http.Redirect(w, r, h.config.FrontendURL+"?error=auth_failed", http.StatusTemporaryRedirect)
		return
	}

	// 4. トークンをクエリパラメータでフロントエンドに渡す
	redirectURL := h.config.FrontendURL + "?token=" + url.QueryEscape(result.Token)
	http.Redirect(w, r, redirectURL, http.StatusTemporaryRedirect)
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromContext(r.Context())
	if !id.Authenticated {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	user, err := h.service.CurrentUser(r.Context(), id.UserID)
	if err != nil {
		slog.Error("failed to get current user",
			slog.String("user_id", id.UserID),
			slog.String("error", err.Error()),
		)
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":       user.ID,
		"email":    user.Email,
		"name":     user.Name,
		"picture":  user.Picture,
		"provider": user.Provider,
	})
}

// Withdraw はアカウントを削除する。
// DELETE /auth/me
//
// 過去のローストは匿名相当として残り、参照はDB側でNULL化される。
func (h *AuthHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromContext(r.Context())
	if !id.Authenticated {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if err := h.service.DeleteAccount(r.Context(), id.UserID); err != nil {
		slog.Error("failed to delete account",
			slog.String("user_id", id.UserID),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// generateState はCSRF対策用のランダムなstate値を生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// clientIP はリクエストの接続元IPを返す。
// リバースプロキシ経由の場合はX-Forwarded-Forの先頭を使用する。
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
