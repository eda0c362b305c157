package inspire

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/postdeck/internal/security"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nilWriter{}, nil))
}

type nilWriter struct{}

func (nilWriter) Write(p []byte) (int, error) { return len(p), nil }

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>Tech Blog</title>
	<item>
		<title>エンジニア採用の&lt;strong&gt;コツ&lt;/strong&gt;</title>
		<link>https://blog.example.com/hiring</link>
		<description>&lt;p&gt;採用プロセスの改善について&lt;/p&gt;&lt;script&gt;alert(1)&lt;/script&gt;</description>
		<pubDate>Mon, 10 Mar 2025 09:00:00 GMT</pubDate>
	</item>
	<item>
		<title>チームビルディング</title>
		<link>https://blog.example.com/team</link>
		<description>振り返り会の進め方</description>
		<pubDate>Tue, 11 Mar 2025 09:00:00 GMT</pubDate>
	</item>
	<item>
		<title></title>
		<link>https://blog.example.com/untitled</link>
	</item>
</channel>
</rss>`

func newTestSuggestService(t *testing.T, handler http.HandlerFunc) (*Service, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	guard := &mockSSRFValidator{client: server.Client()}
	detector := NewSourceDetector(guard, 0, 0)
	svc := NewService(detector, guard, security.NewContentSanitizer(), testLogger(), 0, 0)
	return svc, server
}

// フィードから題材候補が取得されることを検証
func TestSuggest_ReturnsSuggestions(t *testing.T) {
	svc, server := newTestSuggestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, testRSS)
	})

	suggestions, err := svc.Suggest(context.Background(), server.URL, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// タイトルが空の記事は除外される
	if len(suggestions) != 2 {
		t.Fatalf("suggestions = %d, want 2", len(suggestions))
	}

	// 公開日時の降順
	if suggestions[0].URL != "https://blog.example.com/team" {
		t.Errorf("first suggestion = %q, want newest", suggestions[0].URL)
	}

	// タイトルと抜粋はサニタイズ済み
	second := suggestions[1]
	if second.Title != "エンジニア採用のコツ" {
		t.Errorf("title = %q", second.Title)
	}
	if strings.Contains(second.Snippet, "<") || strings.Contains(second.Snippet, "alert") {
		t.Errorf("snippet should be sanitized: %q", second.Snippet)
	}
	if !strings.Contains(second.Snippet, "採用プロセスの改善について") {
		t.Errorf("snippet = %q", second.Snippet)
	}
	// 表示用HTMLは許可タグを残しつつ危険な要素を除去する
	if !strings.Contains(second.SnippetHTML, "<p>採用プロセスの改善について</p>") {
		t.Errorf("snippet_html = %q, expected allowed tags to survive", second.SnippetHTML)
	}
	if strings.Contains(second.SnippetHTML, "script") || strings.Contains(second.SnippetHTML, "alert") {
		t.Errorf("snippet_html should not contain script: %q", second.SnippetHTML)
	}
	if second.PublishedAt == nil {
		t.Error("expected published_at")
	}
}

// limitで件数が制限されることを検証
func TestSuggest_RespectsLimit(t *testing.T) {
	svc, server := newTestSuggestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, testRSS)
	})

	suggestions, err := svc.Suggest(context.Background(), server.URL, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(suggestions) != 1 {
		t.Errorf("suggestions = %d, want 1", len(suggestions))
	}
}

// HTMLページ経由でもフィードが解決されることを検証
func TestSuggest_ResolvesFeedFromHTML(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><link rel="alternate" type="application/rss+xml" href="/feed.xml"></head><body></body></html>`)
	})
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, testRSS)
	})

	svc, server := newTestSuggestService(t, mux.ServeHTTP)

	suggestions, err := svc.Suggest(context.Background(), server.URL, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(suggestions) == 0 {
		t.Error("expected suggestions via HTML feed link")
	}
}

// フィード取得失敗時にFETCH_FAILEDが返ることを検証
func TestSuggest_FetchFailure(t *testing.T) {
	svc, server := newTestSuggestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, "not a feed at all")
	})

	_, err := svc.Suggest(context.Background(), server.URL, 10)
	assertAPIErrorCode(t, err, "FETCH_FAILED")
}
