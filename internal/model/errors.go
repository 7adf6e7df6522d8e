// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, roast, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeInvalidRoastLevel = "INVALID_ROAST_LEVEL"
	ErrCodeMissingField      = "MISSING_FIELD"
	ErrCodeGenerationFailed  = "GENERATION_FAILED"
	ErrCodeOAuthFailed       = "OAUTH_FAILED"
	ErrCodeUnknownProvider   = "UNKNOWN_PROVIDER"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
)

// NewInvalidRoastLevelError は無効なロースト強度エラーを生成する。
func NewInvalidRoastLevelError(level string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRoastLevel,
		Message:  fmt.Sprintf("無効なロースト強度です: %s", level),
		Category: "validation",
		Action:   "roast_levelには Soft、Medium、Nuclear のいずれかを指定してください。",
	}
}

// NewMissingFieldError は必須フィールド未入力エラーを生成する。
func NewMissingFieldError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeMissingField,
		Message:  fmt.Sprintf("必須フィールドが入力されていません: %s", field),
		Category: "validation",
		Action:   "スタートアップ名とアイデアの説明を入力してください。",
	}
}

// NewGenerationFailedError はロースト生成失敗エラーを生成する。
func NewGenerationFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeGenerationFailed,
		Message:  "ローストの生成に失敗しました。",
		Category: "roast",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUnknownProviderError は未対応のIdPエラーを生成する。
func NewUnknownProviderError(provider string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownProvider,
		Message:  fmt.Sprintf("未対応の認証プロバイダーです: %s", provider),
		Category: "auth",
		Action:   "Googleアカウントでのログインをご利用ください。",
	}
}

// NewUnauthorizedError は認証必須エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}
