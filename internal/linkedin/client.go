// Package linkedin はLinkedIn APIとの連携機能を提供する。
// UGC Posts APIを使用した投稿の公開を含む。
package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/postdeck/internal/model"
)

const (
	// defaultBaseURL はLinkedIn APIのベースURL。
	defaultBaseURL = "https://api.linkedin.com"
	// apiVersion はLinkedIn REST APIのバージョンヘッダー値。
	apiVersion = "202401"
)

// ShareRequest は投稿公開のリクエスト。
type ShareRequest struct {
	// AuthorURN は投稿者のURN（urn:li:person:xxx）。
	AuthorURN string
	// AccessToken はユーザーのアクセストークン。
	AccessToken string
	// Content は投稿本文。
	Content string
	// PostType は投稿の種類（text / carousel）。
	PostType model.PostType
	// MediaURL はカルーセル投稿のドキュメントURL。テキスト投稿では空。
	MediaURL string
}

// ShareResult は投稿公開の結果。
type ShareResult struct {
	// ShareID はLinkedIn側で発行された投稿ID。
	ShareID string
}

// Publisher は投稿公開のインターフェース。テスト時にモックに差し替え可能。
type Publisher interface {
	Share(ctx context.Context, req ShareRequest) (*ShareResult, error)
}

// Client はLinkedIn UGC Posts APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLが空の場合は本番APIのURLを使用する。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// ugcPost はUGC Posts APIのリクエストボディ。
type ugcPost struct {
	Author          string                    `json:"author"`
	LifecycleState  string                    `json:"lifecycleState"`
	SpecificContent map[string]shareContent   `json:"specificContent"`
	Visibility      map[string]string         `json:"visibility"`
}

type shareContent struct {
	ShareCommentary    shareText    `json:"shareCommentary"`
	ShareMediaCategory string       `json:"shareMediaCategory"`
	Media              []shareMedia `json:"media,omitempty"`
}

type shareText struct {
	Text string `json:"text"`
}

type shareMedia struct {
	Status      string    `json:"status"`
	OriginalURL string    `json:"originalUrl"`
	Title       shareText `json:"title"`
}

// ugcPostResponse はUGC Posts APIのレスポンス。
type ugcPostResponse struct {
	ID string `json:"id"`
}

// Share は投稿をLinkedInに公開する。
// カルーセル投稿の場合はMediaURLをドキュメントとして添付する。
func (c *Client) Share(ctx context.Context, req ShareRequest) (*ShareResult, error) {
	if req.AuthorURN == "" {
		return nil, fmt.Errorf("author URN is required")
	}
	if req.AccessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}

	post := ugcPost{
		Author:         req.AuthorURN,
		LifecycleState: "PUBLISHED",
		SpecificContent: map[string]shareContent{
			"com.linkedin.ugc.ShareContent": buildShareContent(req),
		},
		Visibility: map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	payload, err := json.Marshal(post)
	if err != nil {
		return nil, fmt.Errorf("リクエストJSONの生成に失敗しました: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v2/ugcPosts", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.AccessToken)
	httpReq.Header.Set("X-Restli-Protocol-Version", "2.0.0")
	httpReq.Header.Set("LinkedIn-Version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("linkedin API call failed",
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		c.logger.Error("linkedin API returned error status",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("LinkedIn APIがステータス %d を返しました", resp.StatusCode)
	}

	var result ugcPostResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	return &ShareResult{ShareID: result.ID}, nil
}

// buildShareContent は投稿種類に応じたShareContentを構築する。
func buildShareContent(req ShareRequest) shareContent {
	content := shareContent{
		ShareCommentary:    shareText{Text: req.Content},
		ShareMediaCategory: "NONE",
	}

	if req.PostType == model.PostTypeCarousel && req.MediaURL != "" {
		content.ShareMediaCategory = "ARTICLE"
		content.Media = []shareMedia{
			{
				Status:      "READY",
				OriginalURL: req.MediaURL,
				Title:       shareText{Text: "Carousel"},
			},
		}
	}

	return content
}

// compile-time interface check
var _ Publisher = (*Client)(nil)
