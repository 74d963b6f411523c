package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はユーザー入力からHTMLを取り除きプレーンテキストにする。
// レシピ名と説明文の保存前に使用される。
type TextSanitizer interface {
	SanitizeText(s string) string
}

type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer は全てのタグを除去するstrictポリシーのサニタイザを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// SanitizeText はタグを除去し、エスケープされた実体参照を元に戻して前後の空白を削る。
// 改行はそのまま残る。
func (s *textSanitizer) SanitizeText(in string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(in)))
}
