// Package template は投稿テンプレートのドメインロジックを提供する。
package template

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/postdeck/internal/model"
	"github.com/hitoshi/postdeck/internal/repository"
)

// defaultTemplates は初回起動時に投入される投稿テンプレート。
// カテゴリは経験談・ノウハウ・採用の3種類。
var defaultTemplates = []model.Template{
	{
		Name:     "失敗からの学び",
		Category: "experience",
		Body:     "{{出来事}}で失敗しました。\n\nそこから学んだのは次の3つです。\n\n1. {{学び1}}\n2. {{学び2}}\n3. {{学び3}}\n\n同じ状況の方の参考になれば嬉しいです。",
	},
	{
		Name:     "今週の振り返り",
		Category: "experience",
		Body:     "今週は{{テーマ}}に取り組みました。\n\nうまくいったこと:\n{{成果}}\n\n来週に持ち越すこと:\n{{課題}}",
	},
	{
		Name:     "ノウハウ共有",
		Category: "howto",
		Body:     "{{課題}}に悩んでいる方へ。\n\n私たちのチームでは{{解決策}}で解決しました。\n\nポイントは{{ポイント}}です。",
	},
	{
		Name:     "ツール紹介",
		Category: "howto",
		Body:     "最近{{ツール名}}を導入しました。\n\n導入前: {{導入前の状態}}\n導入後: {{導入後の状態}}\n\n特に{{おすすめポイント}}が気に入っています。",
	},
	{
		Name:     "採用募集",
		Category: "recruiting",
		Body:     "{{会社名}}では{{職種}}を募集しています。\n\nこんな方と働きたいです:\n・{{求める人物像1}}\n・{{求める人物像2}}\n\n少しでも興味があればDMください。",
	},
	{
		Name:     "チーム紹介",
		Category: "recruiting",
		Body:     "私たちのチームを紹介します。\n\nミッション: {{ミッション}}\n構成: {{チーム構成}}\n働き方: {{働き方}}\n\nカジュアル面談も歓迎です。",
	},
}

// Service は投稿テンプレートのサービス層。
type Service struct {
	templateRepo repository.TemplateRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(templateRepo repository.TemplateRepository) *Service {
	return &Service{templateRepo: templateRepo}
}

// List は全テンプレートをカテゴリ・名前順で返す。
func (s *Service) List(ctx context.Context) ([]model.Template, error) {
	templates, err := s.templateRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("テンプレート一覧の取得に失敗しました: %w", err)
	}
	return templates, nil
}

// Get は指定IDのテンプレートを取得する。
func (s *Service) Get(ctx context.Context, templateID string) (*model.Template, error) {
	template, err := s.templateRepo.FindByID(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("テンプレートの取得に失敗しました: %w", err)
	}
	if template == nil {
		return nil, model.NewTemplateNotFoundError(templateID)
	}
	return template, nil
}

// SeedDefaults はテンプレートが未登録の場合にデフォルトテンプレートを投入する。
// 既にテンプレートが存在する場合は何もしない（冪等）。
func (s *Service) SeedDefaults(ctx context.Context) error {
	count, err := s.templateRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("テンプレート数の取得に失敗しました: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	for _, tmpl := range defaultTemplates {
		tmpl.ID = uuid.New().String()
		tmpl.CreatedAt = now
		if err := s.templateRepo.Create(ctx, &tmpl); err != nil {
			return fmt.Errorf("テンプレートの投入に失敗しました: %w", err)
		}
	}

	slog.Info("default templates seeded",
		slog.Int("count", len(defaultTemplates)),
	)

	return nil
}
