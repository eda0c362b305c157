package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/postdeck/internal/middleware"
	"github.com/hitoshi/postdeck/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Withdraw はユーザーの退会処理を実行する。
	// セッションを先に消してからユーザーを削除し、
	// 投稿・identity・ソーシャルアカウントはDBのCASCADEで消える。
	Withdraw(ctx context.Context, userID string) error
	// ConnectLinkedIn はLinkedInの投稿資格情報を保存する。
	ConnectLinkedIn(ctx context.Context, userID, authorURN, accessToken string, expiresAt *time.Time) (*model.SocialAccount, error)
	// DisconnectLinkedIn はLinkedIn連携を解除する。
	DisconnectLinkedIn(ctx context.Context, userID string) error
	// GetLinkedInConnection はLinkedIn連携状態を返す。未連携ならnil。
	GetLinkedInConnection(ctx context.Context, userID string) (*model.SocialAccount, error)
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// connectLinkedInRequest はLinkedIn連携リクエストのボディ。
type connectLinkedInRequest struct {
	AuthorURN   string     `json:"author_urn"`
	AccessToken string     `json:"access_token"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// linkedInConnectionResponse はLinkedIn連携状態のAPIレスポンス。
// アクセストークンはレスポンスに含めない。
type linkedInConnectionResponse struct {
	Connected bool       `json:"connected"`
	AuthorURN string     `json:"author_urn,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Withdraw はユーザーの退会処理を実行する。
// DELETE /api/users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.service.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ConnectLinkedIn はLinkedInの投稿資格情報を保存する。
// PUT /api/users/me/linkedin
func (h *UserHandler) ConnectLinkedIn(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req connectLinkedInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	account, err := h.service.ConnectLinkedIn(r.Context(), userID, req.AuthorURN, req.AccessToken, req.ExpiresAt)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(linkedInConnectionResponse{
		Connected: true,
		AuthorURN: account.AuthorURN,
		ExpiresAt: account.ExpiresAt,
	})
}

// DisconnectLinkedIn はLinkedIn連携を解除する。
// DELETE /api/users/me/linkedin
func (h *UserHandler) DisconnectLinkedIn(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.service.DisconnectLinkedIn(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetLinkedInConnection はLinkedIn連携状態を返す。
// GET /api/users/me/linkedin
func (h *UserHandler) GetLinkedInConnection(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	account, err := h.service.GetLinkedInConnection(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := linkedInConnectionResponse{}
	if account != nil {
		resp.Connected = true
		resp.AuthorURN = account.AuthorURN
		resp.ExpiresAt = account.ExpiresAt
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
