// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は外部由来のテキストをサニタイズし、
// XSS攻撃などのセキュリティリスクからユーザーを保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 生成APIの応答とRSSフィードのスニペットを安全化する。
package security

import (
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はコンテンツサニタイズ機能のインターフェースを定義する。
// AI生成結果の保存前、およびインスピレーション（RSS記事）のAPI応答時に使用される。
type ContentSanitizerService interface {
	// SanitizePlainText はテキストから全てのHTMLタグを除去してプレーンテキストを返す。
	// LinkedInの投稿本文はHTMLを受け付けないため、生成APIの応答と
	// 投稿本文はこのメソッドで安全化する。
	// タグ除去後にHTMLエンティティをデコードする（&amp; → & など）。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizePlainText(raw string) string

	// SanitizeSnippet はRSS記事の抜粋HTMLをサニタイズして安全なHTMLを返す。
	// 許可タグ（p, br, a, ul, ol, li, blockquote, strong, em）のみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// aタグにはtarget="_blank"とrel="noopener noreferrer"が自動付与される。
	SanitizeSnippet(rawHTML string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	strict  *bluemonday.Policy
	snippet *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// 初期化時にbluemondayの2つのポリシーを構築する:
//   - strict: 全タグ除去（投稿本文・AI生成結果用）
//   - snippet: p, br, a, ul, ol, li, blockquote, strong, em のみ許可
//     （インスピレーション記事の抜粋用）
func NewContentSanitizer() *contentSanitizer {
	snippet := bluemonday.NewPolicy()

	// 抜粋表示用の最小限の許可タグ。
	// script, iframe, style等は許可リストに含めないことで自動的に除去される。
	// on*イベント属性はbluemondayのデフォルトで許可されないため除去される。
	snippet.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "strong", "em",
	)

	// aタグの設定:
	// - href属性を許可、スキームはhttpsのみ、相対URLは不許可
	// - target="_blank" と rel="noreferrer noopener" を強制付与
	snippet.AllowAttrs("href").OnElements("a")
	snippet.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return true
	})
	snippet.AllowRelativeURLs(false)
	snippet.AddTargetBlankToFullyQualifiedLinks(true)
	snippet.RequireNoReferrerOnLinks(true)

	return &contentSanitizer{
		strict:  bluemonday.StrictPolicy(),
		snippet: snippet,
	}
}

// SanitizePlainText はテキストから全てのHTMLタグを除去してプレーンテキストを返す。
func (s *contentSanitizer) SanitizePlainText(raw string) string {
	stripped := s.strict.Sanitize(raw)
	// StrictPolicyは残ったテキストをエスケープして返すため、
	// プレーンテキストとして扱えるようデコードし直す。
	return strings.TrimSpace(html.UnescapeString(stripped))
}

// SanitizeSnippet はRSS記事の抜粋HTMLをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) SanitizeSnippet(rawHTML string) string {
	return s.snippet.Sanitize(rawHTML)
}
