package generation

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nilWriter{}, nil))
}

type nilWriter struct{}

func (nilWriter) Write(p []byte) (int, error) { return len(p), nil }

// 正常なレスポンスがデコードされることを検証
func TestGenerate_Success(t *testing.T) {
	var gotReq GenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(GenerateResponse{
			Content: "今日の学びを3つ共有します。",
		})
	}))
	defer server.Close()

	client := NewClient(server.Client(), testLogger(), server.URL, "")
	resp, err := client.Generate(context.Background(), GenerateRequest{
		Prompt:   "今週の振り返り",
		PostType: "text",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "今日の学びを3つ共有します。" {
		t.Errorf("content = %q", resp.Content)
	}
	if gotReq.Prompt != "今週の振り返り" {
		t.Errorf("request prompt = %q", gotReq.Prompt)
	}
}

// カルーセル生成でslidesが返ることを検証
func TestGenerate_CarouselSlides(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(GenerateResponse{
			Content: "スライド概要",
			Slides:  []string{"スライド1", "スライド2", "スライド3"},
		})
	}))
	defer server.Close()

	client := NewClient(server.Client(), testLogger(), server.URL, "")
	resp, err := client.Generate(context.Background(), GenerateRequest{
		Prompt:   "採用について",
		PostType: "carousel",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Slides) != 3 {
		t.Errorf("slides = %d, want 3", len(resp.Slides))
	}
}

// エラーステータスでエラーが返ることを検証
func TestGenerate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.Client(), testLogger(), server.URL, "")
	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "test", PostType: "text"})
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
}

// 不正なJSONレスポンスでエラーが返ることを検証
func TestGenerate_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.Client(), testLogger(), server.URL, "")
	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "test", PostType: "text"})
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

// コンテキストキャンセルでエラーが返ることを検証
func TestGenerate_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		json.NewEncoder(w).Encode(GenerateResponse{Content: "late"})
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	client := NewClient(server.Client(), testLogger(), server.URL, "")
	_, err := client.Generate(ctx, GenerateRequest{Prompt: "test", PostType: "text"})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

// APIキー設定時にAuthorizationヘッダーが付くことを検証
func TestGenerate_APIKeyHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(GenerateResponse{Content: "ok"})
	}))
	defer server.Close()

	client := NewClient(server.Client(), testLogger(), server.URL, "secret-key")
	if _, err := client.Generate(context.Background(), GenerateRequest{Prompt: "x"}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("Authorization = %q, want Bearer secret-key", gotAuth)
	}
}
