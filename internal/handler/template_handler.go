package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/postdeck/internal/model"
)

// TemplateServiceInterface はテンプレートハンドラーが必要とするサービスインターフェース。
type TemplateServiceInterface interface {
	// List は全テンプレートをカテゴリ・名前順で返す。
	List(ctx context.Context) ([]model.Template, error)
	// Get は指定IDのテンプレートを取得する。
	Get(ctx context.Context, templateID string) (*model.Template, error)
}

// TemplateHandler は投稿テンプレートのHTTPハンドラー。
type TemplateHandler struct {
	service TemplateServiceInterface
}

// NewTemplateHandler はTemplateHandlerを生成する。
func NewTemplateHandler(service TemplateServiceInterface) *TemplateHandler {
	return &TemplateHandler{
		service: service,
	}
}

// templateResponse はテンプレートのAPIレスポンス。
type templateResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Body     string `json:"body"`
}

// templateListResponse はテンプレート一覧のAPIレスポンス。
type templateListResponse struct {
	Templates []templateResponse `json:"templates"`
}

// ListTemplates は全テンプレートを返す。
// GET /api/templates
func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := templateListResponse{Templates: make([]templateResponse, len(templates))}
	for i, t := range templates {
		resp.Templates[i] = toTemplateResponse(&t)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetTemplate はテンプレート詳細を取得する。
// GET /api/templates/:id
func (h *TemplateHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "id")

	tmpl, err := h.service.Get(r.Context(), templateID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if tmpl == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewTemplateNotFoundError(templateID))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTemplateResponse(tmpl))
}

// toTemplateResponse はmodel.TemplateからAPIレスポンスに変換する。
func toTemplateResponse(t *model.Template) templateResponse {
	return templateResponse{
		ID:       t.ID,
		Name:     t.Name,
		Category: t.Category,
		Body:     t.Body,
	}
}
