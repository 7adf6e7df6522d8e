package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/Mahi11313/RoastMyStartup-main/internal/model"
	"github.com/Mahi11313/RoastMyStartup-main/internal/repository"
)

// --- モック定義 ---

type mockOAuthProvider struct {
	getLoginURLFn  func(state string) string
	exchangeCodeFn func(ctx context.Context, code string) (*OAuthUserInfo, error)
}

func (m *mockOAuthProvider) GetLoginURL(state string) string {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn(state)
	}
	return ""
}

func (m *mockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error) {
	if m.exchangeCodeFn != nil {
		return m.exchangeCodeFn(ctx, code)
	}
	return nil, nil
}

type mockUserRepo struct {
	upsertFn     func(ctx context.Context, provider, providerID, email, name, picture string) (*model.User, error)
	findByIDFn   func(ctx context.Context, id string) (*model.User, error)
	deleteByIDFn func(ctx context.Context, id string) error
}

func (m *mockUserRepo) Upsert(ctx context.Context, provider, providerID, email, name, picture string) (*model.User, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, provider, providerID, email, name, picture)
	}
	return &model.User{ID: "user-1"}, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockEventRepo struct {
	createFn func(ctx context.Context, event *model.LoginEvent) error
}

func (m *mockEventRepo) Create(ctx context.Context, event *model.LoginEvent) error {
	if m.createFn != nil {
		return m.createFn(ctx, event)
	}
	return nil
}

type mockIssuer struct {
	issueFn func(subject, provider, email, name string) (string, error)
}

func (m *mockIssuer) Issue(subject, provider, email, name string) (string, error) {
	if m.issueFn != nil {
		return m.issueFn(subject, provider, email, name)
	}
	return "signed-token", nil
}

type mockMetrics struct {
	logins   []bool
	degraded []string
}

func (m *mockMetrics) RecordLogin(success bool) {
	m.logins = append(m.logins, success)
}

func (m *mockMetrics) RecordPersistenceDegraded(store string) {
	m.degraded = append(m.degraded, store)
}

// --- compile-time interface checks ---
var _ OAuthProvider = (*mockOAuthProvider)(nil)
var _ repository.UserRepository = (*mockUserRepo)(nil)
var _ repository.LoginEventRepository = (*mockEventRepo)(nil)
var _ TokenIssuer = (*mockIssuer)(nil)
var _ Metrics = (*mockMetrics)(nil)

func googleUserInfoFixture() *OAuthUserInfo {
	return &OAuthUserInfo{
		ProviderUserID: "google-user-123",
		Email:          "test@example.com",
		Name:           "Test User",
		Picture:        "https://example.com/pic.png",
		Provider:       "google",
	}
}

// --- テスト ---

func TestHandleCallback_Success_UpsertsAndRecordsAndIssues(t *testing.T) {
	ctx := context.Background()

	var upsertedProvider, upsertedProviderID string
	var recordedEvent *model.LoginEvent
	var issuedSubject, issuedProvider string

	provider := &mockOAuthProvider{
		exchangeCodeFn: func(ctx context.Context, code string) (*OAuthUserInfo, error) {
			if code != "auth-code" {
				t.Errorf("code = %q, want %q", code, "auth-code")
			}
			return googleUserInfoFixture(), nil
		},
	}
	userRepo := &mockUserRepo{
		upsertFn: func(ctx context.Context, provider, providerID, email, name, picture string) (*model.User, error) {
			upsertedProvider = provider
			upsertedProviderID = providerID
			return &model.User{ID: "user-42", Provider: provider, ProviderID: providerID}, nil
		},
	}
	eventRepo := &mockEventRepo{
		createFn: func(ctx context.Context, event *model.LoginEvent) error {
			recordedEvent = event
			return nil
		},
	}
	issuer := &mockIssuer{
		issueFn: func(subject, provider, email, name string) (string, error) {
			issuedSubject = subject
			issuedProvider = provider
			return "signed-token", nil
		},
	}
	metrics := &mockMetrics{}

	svc := NewService(provider, userRepo, eventRepo, issuer, metrics)
	result, err := svc.HandleCallback(ctx, "auth-code", "203.0.113.7", "test-agent")
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}

	if upsertedProvider != "google" || upsertedProviderID != "google-user-123" {
		t.Errorf("upsert key = (%q, %q), want (google, google-user-123)", upsertedProvider, upsertedProviderID)
	}
	if recordedEvent == nil {
		t.Fatal("expected a login event to be recorded")
	}
	if recordedEvent.UserID != "user-42" || !recordedEvent.Success {
		t.Errorf("event = %+v, want success event for user-42", recordedEvent)
	}
	if recordedEvent.IPAddress != "203.0.113.7" || recordedEvent.UserAgent != "test-agent" {
		t.Errorf("event origin = (%q, %q), want (203.0.113.7, test-agent)", recordedEvent.IPAddress, recordedEvent.UserAgent)
	}
	if issuedSubject != "user-42" || issuedProvider != "google" {
		t.Errorf("issued claims = (%q, %q), want (user-42, google)", issuedSubject, issuedProvider)
	}
	if result.Token != "signed-token" {
		t.Errorf("Token = %q, want %q", result.Token, "signed-token")
	}
	if result.UserID != "user-42" {
		t.Errorf("UserID = %q, want %q", result.UserID, "user-42")
	}
	if len(metrics.logins) != 1 || !metrics.logins[0] {
		t.Errorf("metrics.logins = %v, want [true]", metrics.logins)
	}
}

func TestHandleCallback_OAuthExchangeFails_ReturnsError(t *testing.T) {
	provider := &mockOAuthProvider{
		exchangeCodeFn: func(ctx context.Context, code string) (*OAuthUserInfo, error) {
			return nil, errors.New("provider unavailable")
		},
	}
	upsertCalled := false
	userRepo := &mockUserRepo{
		upsertFn: func(ctx context.Context, provider, providerID, email, name, picture string) (*model.User, error) {
			upsertCalled = true
			return nil, nil
		},
	}
	metrics := &mockMetrics{}

	svc := NewService(provider, userRepo, &mockEventRepo{}, &mockIssuer{}, metrics)
	_, err := svc.HandleCallback(context.Background(), "bad-code", "", "")
	if err == nil {
		t.Fatal("expected error when oauth exchange fails")
	}
	if upsertCalled {
		t.Error("upsert should not be called when oauth exchange fails")
	}
	if len(metrics.logins) != 1 || metrics.logins[0] {
		t.Errorf("metrics.logins = %v, want [false]", metrics.logins)
	}
}

func TestHandleCallback_UpsertFails_StillIssuesTokenWithoutSubject(t *testing.T) {
	provider := &mockOAuthProvider{
		exchangeCodeFn: func(ctx context.Context, code string) (*OAuthUserInfo, error) {
			return googleUserInfoFixture(), nil
		},
	}
	userRepo := &mockUserRepo{
		upsertFn: func(ctx context.Context, provider, providerID, email, name, picture string) (*model.User, error) {
			return nil, errors.New("database is down")
		},
	}
	eventRecorded := false
	eventRepo := &mockEventRepo{
		createFn: func(ctx context.Context, event *model.LoginEvent) error {
			eventRecorded = true
			return nil
		},
	}
	var issuedSubject string
	issuer := &mockIssuer{
		issueFn: func(subject, provider, email, name string) (string, error) {
			issuedSubject = subject
			return "signed-token", nil
		},
	}
	metrics := &mockMetrics{}

	svc := NewService(provider, userRepo, eventRepo, issuer, metrics)
	result, err := svc.HandleCallback(context.Background(), "auth-code", "", "")
	if err != nil {
		t.Fatalf("HandleCallback() error = %v, want fail-open success", err)
	}

	if issuedSubject != "" {
		t.Errorf("issued subject = %q, want empty when upsert fails", issuedSubject)
	}
	if result.Token != "signed-token" {
		t.Errorf("Token = %q, want %q", result.Token, "signed-token")
	}
	if result.UserID != "" {
		t.Errorf("UserID = %q, want empty", result.UserID)
	}
	// イベントは解決済みの識別子に対してのみ記録される
	if eventRecorded {
		t.Error("login event should not be recorded when upsert fails")
	}
	if len(metrics.degraded) != 1 || metrics.degraded[0] != "users" {
		t.Errorf("metrics.degraded = %v, want [users]", metrics.degraded)
	}
}

func TestHandleCallback_EventRecordFails_StillSucceeds(t *testing.T) {
	provider := &mockOAuthProvider{
		exchangeCodeFn: func(ctx context.Context, code string) (*OAuthUserInfo, error) {
			return googleUserInfoFixture(), nil
		},
	}
	eventRepo := &mockEventRepo{
		createFn: func(ctx context.Context, event *model.LoginEvent) error {
			return errors.New("insert failed")
		},
	}
	metrics := &mockMetrics{}

	svc := NewService(provider, &mockUserRepo{}, eventRepo, &mockIssuer{}, metrics)
	result, err := svc.HandleCallback(context.Background(), "auth-code", "", "")
	if err != nil {
		t.Fatalf("HandleCallback() error = %v, want success despite event failure", err)
	}
	if result.Token != "signed-token" {
		t.Errorf("Token = %q, want %q", result.Token, "signed-token")
	}
	if len(metrics.degraded) != 1 || metrics.degraded[0] != "login_events" {
		t.Errorf("metrics.degraded = %v, want [login_events]", metrics.degraded)
	}
}

func TestHandleCallback_IssueFails_ReturnsError(t *testing.T) {
	provider := &mockOAuthProvider{
		exchangeCodeFn: func(ctx context.Context, code string) (*OAuthUserInfo, error) {
			return googleUserInfoFixture(), nil
		},
	}
	issuer := &mockIssuer{
		issueFn: func(subject, provider, email, name string) (string, error) {
			return "", errors.New("signing failed")
		},
	}

	svc := NewService(provider, &mockUserRepo{}, &mockEventRepo{}, issuer, &mockMetrics{})
	_, err := svc.HandleCallback(context.Background(), "auth-code", "", "")
	if err == nil {
		t.Fatal("expected error when token issuance fails")
	}
}

func TestCurrentUser_EmptyID_ReturnsError(t *testing.T) {
	svc := NewService(&mockOAuthProvider{}, &mockUserRepo{}, &mockEventRepo{}, &mockIssuer{}, &mockMetrics{})

	_, err := svc.CurrentUser(context.Background(), "")
	if err == nil {
		t.Fatal("expected error for empty user ID")
	}
}

func TestCurrentUser_NotFound_ReturnsError(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, nil
		},
	}
	svc := NewService(&mockOAuthProvider{}, userRepo, &mockEventRepo{}, &mockIssuer{}, &mockMetrics{})

	_, err := svc.CurrentUser(context.Background(), "missing-user")
	if err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestDeleteAccount_DelegatesToRepo(t *testing.T) {
	var deletedID string
	userRepo := &mockUserRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}
	svc := NewService(&mockOAuthProvider{}, userRepo, &mockEventRepo{}, &mockIssuer{}, &mockMetrics{})

	if err := svc.DeleteAccount(context.Background(), "user-9"); err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}
	if deletedID != "user-9" {
		t.Errorf("deleted ID = %q, want %q", deletedID, "user-9")
	}
}
