// Package model はドメインモデルを定義する。
package model

import "time"

// User は外部IdPで認証されたサービス利用ユーザーを表す。
// (Provider, ProviderID)の組はグローバルに一意であり、
// 1つの外部アカウントに対して最大1レコードしか存在しない。
type User struct {
	ID         string
	Provider   string
	ProviderID string
	Email      string
	Name       string
	Picture    string
	LastLogin  time.Time
	CreatedAt  time.Time
}

// LoginEvent はログイン試行の監査レコードを表す。
// ログイン完了ごとに1件追記され、作成後は変更されない。
// UserIDはユーザー削除後にNULL化されるため空文字列になり得る。
type LoginEvent struct {
	ID        string
	UserID    string
	Provider  string
	Success   bool
	Timestamp time.Time
	IPAddress string
	UserAgent string
}
