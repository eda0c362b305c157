package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/postdeck/internal/generation"
	"github.com/hitoshi/postdeck/internal/middleware"
	"github.com/hitoshi/postdeck/internal/model"
)

// GenerationServiceInterface は生成ハンドラーが必要とするサービスインターフェース。
type GenerationServiceInterface interface {
	// Generate はプロンプトから投稿文面を生成しサニタイズして返す。
	Generate(ctx context.Context, input generation.Input) (*generation.Result, error)
}

// GenerateHandler はAI投稿生成のHTTPハンドラー。
// テンプレートIDが指定された場合はテンプレート本文を雛形として生成に渡す。
type GenerateHandler struct {
	service   GenerationServiceInterface
	templates TemplateServiceInterface
}

// NewGenerateHandler はGenerateHandlerを生成する。
func NewGenerateHandler(service GenerationServiceInterface, templates TemplateServiceInterface) *GenerateHandler {
	return &GenerateHandler{
		service:   service,
		templates: templates,
	}
}

// generateRequest は投稿生成リクエストのボディ。
type generateRequest struct {
	Prompt     string `json:"prompt"`
	PostType   string `json:"post_type"`
	TemplateID string `json:"template_id"`
	Context    string `json:"context"`
}

// generateResponse は投稿生成のAPIレスポンス。
type generateResponse struct {
	Content string   `json:"content"`
	Slides  []string `json:"slides,omitempty"`
}

// Generate は投稿文面の生成を処理する。
// POST /api/generate
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	input := generation.Input{
		Prompt:   req.Prompt,
		PostType: req.PostType,
		Context:  req.Context,
	}

	if req.TemplateID != "" {
		tmpl, err := h.templates.Get(r.Context(), req.TemplateID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		if tmpl == nil {
			writeAPIErrorResponse(w, http.StatusNotFound, model.NewTemplateNotFoundError(req.TemplateID))
			return
		}
		input.TemplateBody = tmpl.Body
	}

	result, err := h.service.Generate(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(generateResponse{
		Content: result.Content,
		Slides:  result.Slides,
	})
}
