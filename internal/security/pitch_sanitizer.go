// Package security はアプリケーションのセキュリティ機能を提供する。
//
// PitchSanitizerService は利用者が投稿したピッチ入力をサニタイズし、
// 保存・表示時のXSSリスクからユーザーを保護する。
// bluemondayライブラリのStrictPolicyを使用し、タグを一切許可しない。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// PitchSanitizerService はピッチ入力のサニタイズ機能のインターフェースを定義する。
// ロースト依頼の保存前および生成プロンプトの組み立て前に使用される。
type PitchSanitizerService interface {
	// Sanitize は入力文字列からHTMLタグをすべて除去し、プレーンテキストを返す。
	// ピッチの各フィールドは自由記述のテキストであり、マークアップを持たない。
	// 前後の空白は取り除かれる。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// pitchSanitizer はPitchSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type pitchSanitizer struct {
	policy *bluemonday.Policy
}

// NewPitchSanitizer はPitchSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyはすべてのタグと属性を除去する。
func NewPitchSanitizer() *pitchSanitizer {
	return &pitchSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力文字列からHTMLタグを除去してプレーンテキストを返す。
// bluemondayはタグ除去後にエンティティをエスケープするため、
// テキストとして保存できるよう元の文字に戻す。
func (s *pitchSanitizer) Sanitize(raw string) string {
	cleaned := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
