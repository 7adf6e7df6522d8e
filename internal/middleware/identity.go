// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Mahi11313/RoastMyStartup-main/internal/identity"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに解決済み識別を格納するためのキー。
var identityContextKey = contextKey("identity")

// IdentityResolver はベアラートークンから書き込み主体を解決するインターフェース。
// identity.Resolverの部分集合として定義する。
type IdentityResolver interface {
	Resolve(tokenString string) identity.ResolvedIdentity
}

// NewIdentityMiddleware はAuthorizationヘッダーのベアラートークンから
// 書き込み主体を解決し、リクエストコンテキストに注入するミドルウェアを返す。
//
// このミドルウェアはリクエストを拒否しない。トークンの不在・検証失敗は
// すべて匿名として扱われる。認証を必須にするかどうかは各ハンドラーが判断する。
func NewIdentityMiddleware(resolver IdentityResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := resolver.Resolve(bearerToken(r))
			ctx := context.WithValue(r.Context(), identityContextKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken はAuthorizationヘッダーからベアラートークンを取り出す。
// ヘッダーがない、または形式が異なる場合は空文字列を返す。
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// IdentityFromContext はリクエストコンテキストから解決済み識別を取得する。
// ミドルウェアを通過していないコンテキストでは匿名を返す。
func IdentityFromContext(ctx context.Context) identity.ResolvedIdentity {
	id, ok := ctx.Value(identityContextKey).(identity.ResolvedIdentity)
	if !ok {
		return identity.Anonymous()
	}
	return id
}

// ContextWithIdentity はコンテキストに解決済み識別を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, id identity.ResolvedIdentity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}
