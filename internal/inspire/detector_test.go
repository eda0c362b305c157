package inspire

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/postdeck/internal/model"
)

// --- IsDirectFeed のテスト ---

// TestIsDirectFeed_RSSContentType はContent-Typeがapplication/rss+xmlの場合にtrueを返すことをテストする。
func TestIsDirectFeed_RSSContentType(t *testing.T) {
	d := NewSourceDetector(nil, 0, 0)
	if !d.IsDirectFeed("application/rss+xml", nil) {
		t.Error("application/rss+xml はフィードと判定されるべき")
	}
}

// TestIsDirectFeed_AtomContentType はContent-Typeがapplication/atom+xmlの場合にtrueを返すことをテストする。
func TestIsDirectFeed_AtomContentType(t *testing.T) {
	d := NewSourceDetector(nil, 0, 0)
	if !d.IsDirectFeed("application/atom+xml", nil) {
		t.Error("application/atom+xml はフィードと判定されるべき")
	}
}

// TestIsDirectFeed_XMLContentTypeWithRSSBody はContent-Typeがtext/xmlでボディがRSSの場合にtrueを返すことをテストする。
func TestIsDirectFeed_XMLContentTypeWithRSSBody(t *testing.T) {
	d := NewSourceDetector(nil, 0, 0)
	body := []byte(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>Test</title></channel></rss>`)
	if !d.IsDirectFeed("text/xml", body) {
		t.Error("text/xml + RSSボディ はフィードと判定されるべき")
	}
}

// TestIsDirectFeed_XMLContentTypeWithAtomBody はContent-Typeがtext/xmlでボディがAtomの場合にtrueを返すことをテストする。
func TestIsDirectFeed_XMLContentTypeWithAtomBody(t *testing.T) {
	d := NewSourceDetector(nil, 0, 0)
	body := []byte(`<?xml version="1.0" encoding="UTF-8"?><feed xmlns="http://www.w3.org/2005/Atom"><title>Test</title></feed>`)
	if !d.IsDirectFeed("text/xml", body) {
		t.Error("text/xml + Atomボディ はフィードと判定されるべき")
	}
}

// TestIsDirectFeed_HTMLContentType はContent-Typeがtext/htmlの場合にfalseを返すことをテストする。
func TestIsDirectFeed_HTMLContentType(t *testing.T) {
	d := NewSourceDetector(nil, 0, 0)
	if d.IsDirectFeed("text/html", nil) {
		t.Error("text/html はフィードと判定されるべきではない")
	}
}

// TestIsDirectFeed_ContentTypeWithCharset はcharsetパラメータが含まれる場合も正しく判定することをテストする。
func TestIsDirectFeed_ContentTypeWithCharset(t *testing.T) {
	d := NewSourceDetector(nil, 0, 0)
	if !d.IsDirectFeed("application/rss+xml; charset=utf-8", nil) {
		t.Error("application/rss+xml; charset=utf-8 はフィードと判定されるべき")
	}
}

// TestIsDirectFeed_XMLContentTypeWithHTMLBody はContent-Typeがtext/xmlだがHTMLボディの場合にfalseを返すことをテストする。
func TestIsDirectFeed_XMLContentTypeWithHTMLBody(t *testing.T) {
	d := NewSourceDetector(nil, 0, 0)
	body := []byte(`<?xml version="1.0"?><html><head><title>Test</title></head></html>`)
	if d.IsDirectFeed("text/xml", body) {
		t.Error("text/xml + HTMLボディ はフィードと判定されるべきではない")
	}
}

// --- ParseFeedLinksFromHTML のテスト ---

// TestParseFeedLinksFromHTML_SingleRSSLink はHTMLから単一のRSSリンクを検出することをテストする。
func TestParseFeedLinksFromHTML_SingleRSSLink(t *testing.T) {
	d := NewSourceDetector(nil, 0, 0)
	html := `<html><head>
		<link rel="alternate" type="application/rss+xml" title="RSS Feed" href="https://example.com/feed.xml">
	</head><body></body></html>`

	links := d.ParseFeedLinksFromHTML([]byte(html), "https://example.com")

	if len(links) != 1 {
		t.Fatalf("期待: 1リンク, 結果: %d リンク", len(links))
	}
	if links[0].URL != "https://example.com/feed.xml" {
		t.Errorf("期待URL: https://example.com/feed.xml, 結果: %s", links[0].URL)
	}
	if links[0].SourceType != SourceTypeRSS {
		t.Errorf("期待タイプ: RSS, 結果: %s", links[0].SourceType)
	}
}

// TestParseFeedLinksFromHTML_RelativeURL は相対URLが正しく絶対URLに解決されることをテストする。
func TestParseFeedLinksFromHTML_RelativeURL(t *testing.T) {
	d := NewSourceDetector(nil, 0, 0)
	html := `<html><head>
		<link rel="alternate" type="application/rss+xml" href="/rss.xml">
	</head><body></body></html>`

	links := d.ParseFeedLinksFromHTML([]byte(html), "https://blog.example.com/articles/")

	if len(links) != 1 {
		t.Fatalf("期待: 1リンク, 結果: %d リンク", len(links))
	}
	if links[0].URL != "https://blog.example.com/rss.xml" {
		t.Errorf("相対URLの解決結果: %s", links[0].URL)
	}
}

// TestParseFeedLinksFromHTML_IgnoresBodyLinks はbody内のlinkタグを無視することをテストする。
func TestParseFeedLinksFromHTML_IgnoresBodyLinks(t *testing.T) {
	d := NewSourceDetector(nil, 0, 0)
	html := `<html><head></head><body>
		<link rel="alternate" type="application/rss+xml" href="/rss.xml">
	</body></html>`

	links := d.ParseFeedLinksFromHTML([]byte(html), "https://example.com")

	if len(links) != 0 {
		t.Errorf("body内のリンクは無視されるべき: %d リンク", len(links))
	}
}

// TestParseFeedLinksFromHTML_IgnoresStylesheets はrel=stylesheetのlinkタグを無視することをテストする。
func TestParseFeedLinksFromHTML_IgnoresStylesheets(t *testing.T) {
	d := NewSourceDetector(nil, 0, 0)
	html := `<html><head>
		<link rel="stylesheet" type="text/css" href="/style.css">
		<link rel="alternate" type="application/rss+xml" href="/rss.xml">
	</head><body></body></html>`

	links := d.ParseFeedLinksFromHTML([]byte(html), "https://example.com")

	if len(links) != 1 {
		t.Errorf("stylesheetは無視されるべき: %d リンク", len(links))
	}
}

// --- SelectBestSource のテスト ---

// TestSelectBestSource_PrefersSameHost は同一ホストのフィードを優先することをテストする。
func TestSelectBestSource_PrefersSameHost(t *testing.T) {
	d := NewSourceDetector(nil, 0, 0)
	candidates := []SourceCandidate{
		{URL: "https://other.example.org/feed.xml", SourceType: SourceTypeAtom},
		{URL: "https://blog.example.com/rss.xml", SourceType: SourceTypeRSS},
	}

	best := d.SelectBestSource(candidates, "https://blog.example.com")
	if best == nil {
		t.Fatal("候補が選択されるべき")
	}
	if best.URL != "https://blog.example.com/rss.xml" {
		t.Errorf("同一ホストが優先されるべき: %s", best.URL)
	}
}

// TestSelectBestSource_PrefersAtom は同一ホスト内でAtomを優先することをテストする。
func TestSelectBestSource_PrefersAtom(t *testing.T) {
	d := NewSourceDetector(nil, 0, 0)
	candidates := []SourceCandidate{
		{URL: "https://example.com/rss.xml", SourceType: SourceTypeRSS},
		{URL: "https://example.com/atom.xml", SourceType: SourceTypeAtom},
	}

	best := d.SelectBestSource(candidates, "https://example.com")
	if best.SourceType != SourceTypeAtom {
		t.Errorf("Atomが優先されるべき: %s", best.SourceType)
	}
}

// TestSelectBestSource_EmptyCandidates は候補が空の場合にnilを返すことをテストする。
func TestSelectBestSource_EmptyCandidates(t *testing.T) {
	d := NewSourceDetector(nil, 0, 0)
	if best := d.SelectBestSource(nil, "https://example.com"); best != nil {
		t.Errorf("空の候補ではnilを返すべき: %+v", best)
	}
}

// --- DetectSourceURL のテスト ---

// mockSSRFValidator はテスト用のSSRF検証モック。
type mockSSRFValidator struct {
	validateFn func(rawURL string) error
	client     *http.Client
}

func (m *mockSSRFValidator) ValidateURL(rawURL string) error {
	if m.validateFn != nil {
		return m.validateFn(rawURL)
	}
	return nil
}

func (m *mockSSRFValidator) NewSafeClient(_ time.Duration, _ int64) *http.Client {
	if m.client != nil {
		return m.client
	}
	return http.DefaultClient
}

// TestDetectSourceURL_DirectFeed は直接フィードURLの場合にそのまま返すことをテストする。
func TestDetectSourceURL_DirectFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>Blog</title></channel></rss>`))
	}))
	defer server.Close()

	d := NewSourceDetector(&mockSSRFValidator{client: server.Client()}, 0, 0)
	got, err := d.DetectSourceURL(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != server.URL {
		t.Errorf("got %q, want %q", got, server.URL)
	}
}

// TestDetectSourceURL_HTMLWithFeedLink はHTMLページからフィードリンクを検出することをテストする。
func TestDetectSourceURL_HTMLWithFeedLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head>
			<link rel="alternate" type="application/rss+xml" href="/feed.xml">
		</head><body></body></html>`))
	}))
	defer server.Close()

	d := NewSourceDetector(&mockSSRFValidator{client: server.Client()}, 0, 0)
	got, err := d.DetectSourceURL(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != server.URL+"/feed.xml" {
		t.Errorf("got %q, want %q", got, server.URL+"/feed.xml")
	}
}

// TestDetectSourceURL_NoFeedDetected はフィードのないHTMLでFEED_NOT_DETECTEDを返すことをテストする。
func TestDetectSourceURL_NoFeedDetected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>No feeds here</title></head><body></body></html>`))
	}))
	defer server.Close()

	d := NewSourceDetector(&mockSSRFValidator{client: server.Client()}, 0, 0)
	_, err := d.DetectSourceURL(context.Background(), server.URL)
	assertAPIErrorCode(t, err, "FEED_NOT_DETECTED")
}

// TestDetectSourceURL_SSRFBlocked はSSRF検証に失敗した場合にSSRF_BLOCKEDを返すことをテストする。
func TestDetectSourceURL_SSRFBlocked(t *testing.T) {
	guard := &mockSSRFValidator{
		validateFn: func(_ string) error {
			return errors.New("blocked host: localhost")
		},
	}

	d := NewSourceDetector(guard, 0, 0)
	_, err := d.DetectSourceURL(context.Background(), "http://localhost/blog")
	assertAPIErrorCode(t, err, "SSRF_BLOCKED")
}

// TestDetectSourceURL_EmptyURL は空URLでINVALID_URLを返すことをテストする。
func TestDetectSourceURL_EmptyURL(t *testing.T) {
	d := NewSourceDetector(nil, 0, 0)
	_, err := d.DetectSourceURL(context.Background(), "")
	assertAPIErrorCode(t, err, "INVALID_URL")
}

func assertAPIErrorCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s", wantCode)
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T: %v", err, err)
	}
	if apiErr.Code != wantCode {
		t.Errorf("code = %q, want %q", apiErr.Code, wantCode)
	}
}
