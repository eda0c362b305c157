// Package generation はAI生成バックエンドとの連携機能を提供する。
// 外部の生成APIを呼び出して投稿の下書き（テキスト/カルーセル）を生成する。
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// GenerateRequest は生成APIへのリクエスト。
type GenerateRequest struct {
	Prompt   string `json:"prompt"`
	PostType string `json:"post_type"`
	// TemplateBody はテンプレート選択時の雛形。省略可。
	TemplateBody string `json:"template_body,omitempty"`
	// Context はインスピレーション記事のタイトル等の補助情報。省略可。
	Context string `json:"context,omitempty"`
}

// GenerateResponse は生成APIからのレスポンス。
type GenerateResponse struct {
	Content string `json:"content"`
	// Slides はカルーセル生成時のスライド別テキスト。テキスト生成時は空。
	Slides []string `json:"slides,omitempty"`
}

// Client はAI生成APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string
	apiKey     string
}

// NewClient はClientの新しいインスタンスを生成する。
// apiKeyが空の場合はAuthorizationヘッダーを付けずに呼び出す。
func NewClient(httpClient *http.Client, logger *slog.Logger, endpoint, apiKey string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   endpoint,
		apiKey:     apiKey,
	}
}

// Generate は生成APIを呼び出して投稿の下書きを生成する。
// タイムアウトはhttpClient側の設定に従う。
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("リクエストJSONの生成に失敗しました: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", "Postdeck/1.0")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("generation API call failed",
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("generation API returned error status",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("生成APIがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var result GenerateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Error("failed to parse generation API response",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	return &result, nil
}
