package inspire

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/postdeck/internal/model"
)

const (
	// defaultSuggestionLimit は1回の取得で返す題材候補の既定数。
	defaultSuggestionLimit = 10
	// maxSuggestionLimit は題材候補数の上限。
	maxSuggestionLimit = 50
	// snippetMaxLength は抜粋の最大文字数。
	snippetMaxLength = 200
)

// Suggestion は投稿の題材候補を表す。
// Snippetはプレーンテキストの抜粋、SnippetHTMLは許可タグのみを残した
// 表示用HTMLで、どちらもサニタイズ済み。
type Suggestion struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Snippet     string     `json:"snippet,omitempty"`
	SnippetHTML string     `json:"snippet_html,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// SnippetSanitizer は抜粋テキストのサニタイズインターフェース。
type SnippetSanitizer interface {
	SanitizePlainText(raw string) string
	SanitizeSnippet(rawHTML string) string
}

// Service はインスピレーション取得のサービス層。
// 情報源URLのフィード検出、記事取得、題材候補への変換を行う。
type Service struct {
	detector    *SourceDetector
	ssrfGuard   SSRFValidator
	sanitizer   SnippetSanitizer
	logger      *slog.Logger
	timeout     time.Duration
	maxBodySize int64
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	detector *SourceDetector,
	ssrfGuard SSRFValidator,
	sanitizer SnippetSanitizer,
	logger *slog.Logger,
	timeout time.Duration,
	maxBodySize int64,
) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxBodySize <= 0 {
		maxBodySize = 5 * 1024 * 1024
	}
	return &Service{
		detector:    detector,
		ssrfGuard:   ssrfGuard,
		sanitizer:   sanitizer,
		logger:      logger,
		timeout:     timeout,
		maxBodySize: maxBodySize,
	}
}

// Suggest は情報源URLから最近の記事を取得し、題材候補として返す。
// 候補は公開日時の降順で並べられる。
func (s *Service) Suggest(ctx context.Context, sourceURL string, limit int) ([]Suggestion, error) {
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}
	if limit > maxSuggestionLimit {
		limit = maxSuggestionLimit
	}

	// 情報源URLからフィードURLを解決
	feedURL, err := s.detector.DetectSourceURL(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	feed, err := s.fetchFeed(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil || item.Link == "" {
			continue
		}

		title := strings.TrimSpace(s.sanitizer.SanitizePlainText(item.Title))
		if title == "" {
			continue
		}

		rawSnippet := item.Description
		if rawSnippet == "" {
			rawSnippet = item.Content
		}

		suggestion := Suggestion{
			Title:       title,
			URL:         item.Link,
			Snippet:     truncateRunes(s.sanitizer.SanitizePlainText(rawSnippet), snippetMaxLength),
			SnippetHTML: strings.TrimSpace(s.sanitizer.SanitizeSnippet(rawSnippet)),
		}
		if item.PublishedParsed != nil {
			t := *item.PublishedParsed
			suggestion.PublishedAt = &t
		}

		suggestions = append(suggestions, suggestion)
	}

	// 公開日時の降順。日時がない記事はフィード順のまま末尾に寄せる。
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i].PublishedAt, suggestions[j].PublishedAt
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}

	s.logger.Info("inspiration suggestions fetched",
		slog.String("source_url", sourceURL),
		slog.String("feed_url", feedURL),
		slog.Int("count", len(suggestions)),
	)

	return suggestions, nil
}

// fetchFeed はフィードをSSRF防止付きクライアントで取得しパースする。
func (s *Service) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	var client *http.Client
	if s.ssrfGuard != nil {
		client = s.ssrfGuard.NewSafeClient(s.timeout, s.maxBodySize)
	} else {
		client = &http.Client{Timeout: s.timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, model.NewInvalidURLError(err.Error())
	}
	req.Header.Set("User-Agent", "Postdeck/1.0")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, model.NewFetchFailedError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, model.NewFetchFailedError(fmt.Sprintf("HTTPステータス %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		return nil, model.NewFetchFailedError(fmt.Sprintf("レスポンスの読み取りに失敗: %v", err))
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, model.NewFetchFailedError(fmt.Sprintf("フィードのパースに失敗: %v", err))
	}

	return feed, nil
}

// truncateRunes は文字数ベースで文字列を切り詰める。
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
