package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/postdeck/internal/middleware"
	"github.com/hitoshi/postdeck/internal/model"
	"github.com/hitoshi/postdeck/internal/post"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	// List はユーザーの全投稿を予約日時の昇順で返す。
	List(ctx context.Context, userID string) ([]model.Post, error)
	// Get は投稿を取得する。他ユーザーの投稿はPOST_NOT_FOUNDになる。
	Get(ctx context.Context, userID, postID string) (*model.Post, error)
	// Create は投稿を検証して予約登録する。
	Create(ctx context.Context, userID string, input post.CreateInput) (*model.Post, error)
	// Update はpending状態の投稿を更新する。
	Update(ctx context.Context, userID, postID string, input post.UpdateInput) (*model.Post, error)
	// Delete はpending状態の投稿を削除する。
	Delete(ctx context.Context, userID, postID string) error
	// Retry はfailed状態の投稿をpendingに戻す。
	Retry(ctx context.Context, userID, postID string) (*model.Post, error)
}

// PostHandler は予約投稿管理のHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface) *PostHandler {
	return &PostHandler{
		service: service,
	}
}

// postRequest は投稿の作成・更新リクエストのボディ。
type postRequest struct {
	Content       string    `json:"content"`
	PostType      string    `json:"post_type"`
	MediaURL      string    `json:"media_url"`
	ScheduledTime time.Time `json:"scheduled_time"`
}

// postResponse は投稿のAPIレスポンス。
type postResponse struct {
	ID            string     `json:"id"`
	Content       string     `json:"content"`
	PostType      string     `json:"post_type"`
	MediaURL      string     `json:"media_url,omitempty"`
	ScheduledTime time.Time  `json:"scheduled_time"`
	Status        string     `json:"status"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	PostedAt      *time.Time `json:"posted_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// postListResponse は投稿一覧のAPIレスポンス。
type postListResponse struct {
	Posts []postResponse `json:"posts"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// ListPosts はユーザーの全投稿を返す。
// GET /api/posts
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	posts, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := postListResponse{Posts: make([]postResponse, len(posts))}
	for i := range posts {
		resp.Posts[i] = toPostResponse(&posts[i])
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// CreatePost は投稿の予約登録を処理する。
// POST /api/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	req, ok := decodePostRequest(w, r)
	if !ok {
		return
	}

	created, err := h.service.Create(r.Context(), userID, post.CreateInput{
		Content:       req.Content,
		PostType:      req.PostType,
		MediaURL:      req.MediaURL,
		ScheduledTime: req.ScheduledTime,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toPostResponse(created))
}

// GetPost は投稿詳細を取得する。
// GET /api/posts/:id
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	postID := chi.URLParam(r, "id")

	found, err := h.service.Get(r.Context(), userID, postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPostResponse(found))
}

// UpdatePost はpending状態の投稿を更新する。
// PATCH /api/posts/:id
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	postID := chi.URLParam(r, "id")

	req, ok := decodePostRequest(w, r)
	if !ok {
		return
	}

	updated, err := h.service.Update(r.Context(), userID, postID, post.UpdateInput{
		Content:       req.Content,
		PostType:      req.PostType,
		MediaURL:      req.MediaURL,
		ScheduledTime: req.ScheduledTime,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if updated == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewPostNotFoundError(postID))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPostResponse(updated))
}

// DeletePost はpending状態の投稿を削除する。
// DELETE /api/posts/:id
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	postID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), userID, postID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RetryPost はfailed状態の投稿を再予約する。
// POST /api/posts/:id/retry
func (h *PostHandler) RetryPost(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	postID := chi.URLParam(r, "id")

	retried, err := h.service.Retry(r.Context(), userID, postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPostResponse(retried))
}

// SetupPostRoutes は投稿管理関連のルーティングを設定したchi.Routerを返す。
func SetupPostRoutes(service PostServiceInterface) http.Handler {
	r := chi.NewRouter()
	h := NewPostHandler(service)

	r.Route("/api/posts", func(r chi.Router) {
		r.Get("/", h.ListPosts)
		r.Post("/", h.CreatePost)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetPost)
			r.Patch("/", h.UpdatePost)
			r.Delete("/", h.DeletePost)
			r.Post("/retry", h.RetryPost)
		})
	})

	return r
}

// --- ヘルパー関数 ---

// decodePostRequest はリクエストボディを解析する。失敗時はエラーレスポンスを書き込みfalseを返す。
func decodePostRequest(w http.ResponseWriter, r *http.Request) (postRequest, bool) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return postRequest{}, false
	}
	return req, true
}

// toPostResponse はmodel.PostからAPIレスポンスに変換する。
func toPostResponse(p *model.Post) postResponse {
	return postResponse{
		ID:            p.ID,
		Content:       p.Content,
		PostType:      string(p.PostType),
		MediaURL:      p.MediaURL,
		ScheduledTime: p.ScheduledTime,
		Status:        string(p.Status),
		ErrorMessage:  p.ErrorMessage,
		PostedAt:      p.PostedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// writeUnauthorized は認証エラーレスポンスを書き込む。
func writeUnauthorized(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	})
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodePostNotFound, model.ErrCodeTemplateNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodePostNotEditable, model.ErrCodePostNotFailed, model.ErrCodePostLimit, model.ErrCodeAccountNotConnected:
		return http.StatusConflict
	case model.ErrCodeInvalidContent, model.ErrCodeInvalidScheduleTime, model.ErrCodeInvalidViewMode, model.ErrCodeInvalidURL:
		return http.StatusBadRequest
	case model.ErrCodeSSRFBlocked:
		return http.StatusForbidden
	case model.ErrCodeFeedNotDetected:
		return http.StatusUnprocessableEntity
	case model.ErrCodeFetchFailed, model.ErrCodeGenerationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
