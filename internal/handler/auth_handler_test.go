package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Mahi11313/RoastMyStartup-main/internal/auth"
	"github.com/Mahi11313/RoastMyStartup-main/internal/identity"
	"github.com/Mahi11313/RoastMyStartup-main/internal/middleware"
	"github.com/Mahi11313/RoastMyStartup-main/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	getLoginURLFn    func(state string) string
	handleCallbackFn func(ctx context.Context, code, ipAddress, userAgent string) (*auth.LoginResult, error)
	currentUserFn    func(ctx context.Context, userID string) (*model.User, error)
	deleteAccountFn  func(ctx context.Context, userID string) error
}

func (m *mockAuthService) GetLoginURL(state string) string {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn(state)
	}
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (m *mockAuthService) HandleCallback(ctx context.Context, code, ipAddress, userAgent string) (*auth.LoginResult, error) {
	if m.handleCallbackFn != nil {
		return m.handleCallbackFn(ctx, code, ipAddress, userAgent)
	}
	return &auth.LoginResult{Token: "signed-token", UserID: "user-1"}, nil
}

func (m *mockAuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, userID)
	}
	return &model.User{ID: userID, Email: "test@example.com", Name: "Test User", Provider: "google"}, nil
}

func (m *mockAuthService) DeleteAccount(ctx context.Context, userID string) error {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(ctx, userID)
	}
	return nil
}

var _ AuthServiceInterface = (*mockAuthService)(nil)

func testAuthConfig() AuthHandlerConfig {
	return AuthHandlerConfig{
		FrontendURL:  "https://app.example.com",
		CookieSecure: true,
	}
}

// authRouter は認証ルートだけを持つchi.Routerを構築する。
// URLパラメータの解決にchiのルーティングが必要。
func authRouter(h *AuthHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/auth/me", h.Me)
	r.Delete("/auth/me", h.Withdraw)
	r.Get("/auth/{provider}", h.Login)
	r.Get("/auth/{provider}/callback", h.Callback)
	return r
}

func decodeErrorBody(t *testing.T, resp *http.Response) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

// --- Login ---

func TestLogin_RedirectsToProvider(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())
	router := authRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/auth/google", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTemporaryRedirect)
	}

	location := resp.Header.Get("Location")
	if !strings.HasPrefix(location, "https://accounts.google.com/") {
		t.Errorf("Location = %q, want provider URL", location)
	}

	// stateクッキーが設定され、リダイレクト先のstateと一致すること
	var stateCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "oauth_state" {
			stateCookie = c
		}
	}
	if stateCookie == nil {
		t.Fatal("expected oauth_state cookie")
	}
	if !stateCookie.HttpOnly || !stateCookie.Secure {
		t.Error("oauth_state cookie must be HttpOnly and Secure")
	}
	if !strings.Contains(location, "state="+stateCookie.Value) {
		t.Errorf("redirect state does not match cookie: %q", location)
	}
}

func TestLogin_UnknownProvider_Returns404(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())
	router := authRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/auth/github", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	if body := decodeErrorBody(t, resp); body.Code != model.ErrCodeUnknownProvider {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUnknownProvider)
	}
}

// --- Callback ---

func callbackRequest(state, cookieState, code string) *http.Request {
	target := "/auth/google/callback?state=" + url.QueryEscape(state)
	if code != "" {
		target += "&code=" + url.QueryEscape(code)
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if cookieState != "" {
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: cookieState})
	}
	return req
}

func TestCallback_Success_RedirectsWithToken(t *testing.T) {
	var gotCode, gotIP, gotUA string
	service := &mockAuthService{
		handleCallbackFn: func(ctx context.Context, code, ipAddress, userAgent string) (*auth.LoginResult, error) {
			gotCode, gotIP, gotUA = code, ipAddress, userAgent
			return &auth.LoginResult{Token: "signed-token", UserID: "user-1"}, nil
		},
	}
	h := NewAuthHandler(service, testAuthConfig())
	router := authRouter(h)

	req := callbackRequest("state-123", "state-123", "auth-code")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	req.Header.Set("User-Agent", "test-agent")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTemporaryRedirect)
	}
	if location := resp.Header.Get("Location"); location != "https://app.example.com?token=signed-token" {
		t.Errorf("Location = %q", location)
	}
	if gotCode != "auth-code" {
		t.Errorf("code = %q, want %q", gotCode, "auth-code")
	}
	if gotIP != "203.0.113.7" {
		t.Errorf("ip = %q, want %q", gotIP, "203.0.113.7")
	}
	if gotUA != "test-agent" {
		t.Errorf("user agent = %q, want %q", gotUA, "test-agent")
	}

	// stateクッキーが削除されること
	for _, c := range resp.Cookies() {
		if c.Name == "oauth_state" && c.MaxAge >= 0 {
			t.Error("oauth_state cookie should be expired")
		}
	}
}

func TestCallback_StateMismatch_Returns400(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())
	router := authRouter(h)

	tests := []struct {
		name        string
		state       string
		cookieState string
	}{
		{"mismatched state", "state-aaa", "state-bbb"},
		{"missing cookie", "state-aaa", ""},
		{"empty state", "", "state-aaa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, callbackRequest(tt.state, tt.cookieState, "auth-code"))

			if w.Result().StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
			}
		})
	}
}

func TestCallback_MissingCode_Returns400(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())
	router := authRouter(h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, callbackRequest("state-123", "state-123", ""))

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestCallback_OAuthFailure_RedirectsWithError(t *testing.T) {
	service := &mockAuthService{
		handleCallbackFn: func(ctx context.Context, code, ipAddress, userAgent string) (*auth.LoginResult, error) {
			return nil, errors.New("provider unavailable")
		},
	}
	h := NewAuthHandler(service, testAuthConfig())
	router := authRouter(h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, callbackRequest("state-123", "state-123", "expired-code"))

	resp := w.Result()
	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTemporaryRedirect)
	}
	if location := resp.Header.Get("Location"); location != "https://app.example.com?error=auth_failed" {
		t.Errorf("Location = %q", location)
	}
}

// --- Me / Withdraw ---

func TestMe_Authenticated_ReturnsUser(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())
	router := authRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	id := identity.ResolvedIdentity{Authenticated: true, UserID: "user-42"}
	req = req.WithContext(middleware.ContextWithIdentity(req.Context(), id))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["id"] != "user-42" {
		t.Errorf("id = %v, want user-42", body["id"])
	}
	if body["email"] != "test@example.com" {
		t.Errorf("email = %v", body["email"])
	}
}

func TestMe_Anonymous_Returns401(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())
	router := authRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(middleware.ContextWithIdentity(req.Context(), identity.Anonymous()))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	if body := decodeErrorBody(t, resp); body.Code != model.ErrCodeUnauthorized {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUnauthorized)
	}
}

func TestWithdraw_Authenticated_DeletesAccount(t *testing.T) {
	var deletedID string
	service := &mockAuthService{
		deleteAccountFn: func(ctx context.Context, userID string) error {
			deletedID = userID
			return nil
		},
	}
	h := NewAuthHandler(service, testAuthConfig())
	router := authRouter(h)

	req := httptest.NewRequest(http.MethodDelete, "/auth/me", nil)
	id := identity.ResolvedIdentity{Authenticated: true, UserID: "user-42"}
	req = req.WithContext(middleware.ContextWithIdentity(req.Context(), id))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
	if deletedID != "user-42" {
		t.Errorf("deleted ID = %q, want %q", deletedID, "user-42")
	}
}

func TestWithdraw_Anonymous_Returns401(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())
	router := authRouter(h)

	req := httptest.NewRequest(http.MethodDelete, "/auth/me", nil)
	req = req.WithContext(middleware.ContextWithIdentity(req.Context(), identity.Anonymous()))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

// --- clientIP ---

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{"forwarded single", "203.0.113.7", "10.0.0.1:1234", "203.0.113.7"},
		{"forwarded chain takes first", "203.0.113.7, 10.0.0.2", "10.0.0.1:1234", "203.0.113.7"},
		{"no forwarded header", "", "198.51.100.9:5678", "198.51.100.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
