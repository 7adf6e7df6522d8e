// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/Mahi11313/RoastMyStartup-main/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Upsert は(provider, provider_id)をキーにユーザーを冪等に作成または更新する。
	// 既存レコードがあればname/email/picture/last_loginを更新し、
	// なければ新規作成する。同一キーへの同時呼び出しでも行は1つしか作られない
	// （一意制約のON CONFLICTで解決し、read-then-writeは行わない）。
	Upsert(ctx context.Context, provider, providerID, email, name, picture string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// login_eventsとroastsの参照はON DELETE SET NULLでNULL化される。
	DeleteByID(ctx context.Context, id string) error
}

// LoginEventRepository はログイン監査レコードの永続化インターフェース。
// レコードは追記専用で、作成後に変更されることはない。
type LoginEventRepository interface {
	// Create はログインイベントを1件追記する。
	Create(ctx context.Context, event *model.LoginEvent) error
}

// RoastRepository はローストレコードの永続化インターフェース。
type RoastRepository interface {
	// Create はローストを保存する。roast.UserIDが空の場合は匿名として
	// user_idをNULLで保存する。
	Create(ctx context.Context, roast *model.Roast) error

	// Stats はロースト全体の統計（総数とロースト強度別の件数）を返す。
	Stats(ctx context.Context) (*model.RoastStats, error)
}
