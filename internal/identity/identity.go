// Package identity はリクエストに付随するトークンから書き込み主体を解決する。
//
// 解決は常に成功する：検証可能なトークンがあれば認証済み識別、
// なければ匿名として扱う。トークンの不在や検証失敗でリクエストを
// 拒否することはない。
package identity

import (
	"errors"
	"log/slog"

	"github.com/Mahi11313/RoastMyStartup-main/internal/token"
)

// ResolvedIdentity は書き込み主体の解決結果を表す。
// Authenticatedがfalseの場合、他のフィールドはすべて空。
type ResolvedIdentity struct {
	Authenticated bool
	UserID        string
	Provider      string
	Email         string
	Name          string
}

// Anonymous は匿名の識別を返す。
func Anonymous() ResolvedIdentity {
	return ResolvedIdentity{}
}

// TokenVerifier はセッショントークンの検証インターフェース。
// token.Codecの部分集合として定義する。
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// Metrics はトークン検証結果のメトリクスを記録するインターフェース。
type Metrics interface {
	RecordTokenVerification(result string)
}

// Resolver はベアラートークンからResolvedIdentityを導出する。
type Resolver struct {
	verifier TokenVerifier
	metrics  Metrics
}

// NewResolver はResolverを生成する。
func NewResolver(verifier TokenVerifier, metrics Metrics) *Resolver {
	return &Resolver{verifier: verifier, metrics: metrics}
}

// Resolve はトークン文字列から識別を解決する。
//
// トークンが空、検証失敗、またはsubjectが空の場合はすべて匿名になる。
// エラーは返さない。失敗の詳細はログとメトリクスにのみ残る。
func (r *Resolver) Resolve(tokenString string) ResolvedIdentity {
	if tokenString == "" {
		r.metrics.RecordTokenVerification("absent")
		return Anonymous()
	}

	claims, err := r.verifier.Verify(tokenString)
	if err != nil {
		r.metrics.RecordTokenVerification(verifyResultLabel(err))
		slog.Debug("token verification failed, treating as anonymous",
			slog.String("error", err.Error()),
		)
		return Anonymous()
	}

	// アップサート失敗時に発行されたsubjectなしトークン。
	// 検証自体は通るが、紐付け先のユーザーが存在しないため匿名扱い。
	if claims.Subject == "" {
		r.metrics.RecordTokenVerification("empty_subject")
		return Anonymous()
	}

	r.metrics.RecordTokenVerification("valid")
	return ResolvedIdentity{
		Authenticated: true,
		UserID:        claims.Subject,
		Provider:      claims.Provider,
		Email:         claims.Email,
		Name:          claims.Name,
	}
}

// verifyResultLabel は検証エラーをメトリクスのラベル値に変換する。
func verifyResultLabel(err error) string {
	switch {
	case errors.Is(err, token.ErrExpired):
		return "expired"
	case errors.Is(err, token.ErrBadSignature):
		return "bad_signature"
	default:
		return "malformed"
	}
}
