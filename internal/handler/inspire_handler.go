package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/postdeck/internal/inspire"
	"github.com/hitoshi/postdeck/internal/middleware"
	"github.com/hitoshi/postdeck/internal/model"
)

// InspireServiceInterface はインスピレーションハンドラーが必要とするサービスインターフェース。
type InspireServiceInterface interface {
	// Suggest はURLからRSS/Atomフィードを検出し、最新記事をネタ候補として返す。
	Suggest(ctx context.Context, sourceURL string, limit int) ([]inspire.Suggestion, error)
}

// InspireHandler は投稿ネタ提案のHTTPハンドラー。
type InspireHandler struct {
	service InspireServiceInterface
}

// NewInspireHandler はInspireHandlerを生成する。
func NewInspireHandler(service InspireServiceInterface) *InspireHandler {
	return &InspireHandler{
		service: service,
	}
}

// inspireRequest はネタ提案リクエストのボディ。
type inspireRequest struct {
	URL   string `json:"url"`
	Limit int    `json:"limit"`
}

// inspireResponse はネタ提案のAPIレスポンス。
type inspireResponse struct {
	Suggestions []inspire.Suggestion `json:"suggestions"`
}

// Suggest は記事URLからの投稿ネタ提案を処理する。
// POST /api/inspiration
func (h *InspireHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	var req inspireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	if req.URL == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidURLError("URLが空です"))
		return
	}

	suggestions, err := h.service.Suggest(r.Context(), req.URL, req.Limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(inspireResponse{Suggestions: suggestions})
}
