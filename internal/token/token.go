// Package token は署名付きセッショントークンの発行と検証を提供する。
//
// トークンはHS256署名のJWTで、サーバー側には保存しない（ステートレス）。
// 失効手段は有効期限のみで、サーバー側での無効化は行わない設計。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 検証失敗の種別。呼び出し元はerrors.Isで分類できる。
var (
	// ErrMalformed はトークンがパースできないことを示す。
	ErrMalformed = errors.New("token is malformed")
	// ErrBadSignature は署名が一致しないことを示す。
	ErrBadSignature = errors.New("token signature is invalid")
	// ErrExpired はトークンの有効期限が切れていることを示す。
	ErrExpired = errors.New("token is expired")
)

// Claims はセッショントークンに埋め込むクレームを表す。
// Subjectは内部ユーザーID。アップサート失敗時は空文字列になり得る。
type Claims struct {
	Provider string `json:"provider"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Codec はセッショントークンのエンコード/デコードを行う。
// 署名シークレットと有効期間は生成時に注入し、以降は変更しない。
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time // テスト用に差し替え可能
}

// NewCodec はCodecを生成する。
func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue は署名付きトークンを発行する。
// 有効期限は発行時刻 + 生成時に設定したTTL。
func (c *Codec) Issue(subject, provider, email, name string) (string, error) {
	issuedAt := c.now()

	claims := Claims{
		Provider: provider,
		Email:    email,
		Name:     name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(c.ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify はトークンを検証し、埋め込まれたクレームを返す。
// 失敗時はErrMalformed、ErrBadSignature、ErrExpiredのいずれかを返す。
// 署名比較はjwtライブラリ内部でHMAC検証として行われる（定数時間比較）。
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrBadSignature
		default:
			return nil, ErrMalformed
		}
	}

	return claims, nil
}
