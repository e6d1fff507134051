// Package security はアプリケーションのセキュリティ機能を提供する。
//
// PreviewSanitizer は候補者メッセージ本文からダッシュボード表示用の
// プレーンテキストのプレビューを生成する。
package security

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// DefaultPreviewLength はメッセージプレビューの既定の最大文字数。
const DefaultPreviewLength = 80

// previewEllipsis は切り詰めたプレビューの末尾に付与する記号。
const previewEllipsis = "…"

// PreviewSanitizer はメッセージ本文をプレビュー用に整形するインターフェース。
type PreviewSanitizer interface {
	// Preview はHTMLタグを全て除去し、空白を1つに畳んだうえで
	// maxRunes文字を超える場合は切り詰めて末尾に「…」を付ける。
	// maxRunesが0以下の場合は切り詰めない。
	Preview(content string, maxRunes int) string
}

// previewSanitizer はbluemondayのStrictPolicyを保持する実装。
// Policyはゴルーチンセーフなので共有してよい。
type previewSanitizer struct {
	policy *bluemonday.Policy
}

// NewPreviewSanitizer はPreviewSanitizerを生成する。
func NewPreviewSanitizer() *previewSanitizer {
	return &previewSanitizer{policy: bluemonday.StrictPolicy()}
}

// Preview はメッセージ本文のプレビュー文字列を返す。
func (s *previewSanitizer) Preview(content string, maxRunes int) string {
	if content == "" {
		return ""
	}

	// StrictPolicyは&や<をエスケープして返すため、表示用に戻す
	text := html.UnescapeString(s.policy.Sanitize(content))
	text = strings.Join(strings.Fields(text), " ")

	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}

	runes := []rune(text)
	return strings.TrimRight(string(runes[:maxRunes]), " ") + previewEllipsis
}
