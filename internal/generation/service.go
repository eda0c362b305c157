package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/postdeck/internal/model"
)

// maxPromptLength はプロンプトの最大文字数。
const maxPromptLength = 1000

// Generator は生成APIクライアントのインターフェース。テスト時にモックに差し替え可能。
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Sanitizer は生成結果のサニタイズインターフェース。
type Sanitizer interface {
	SanitizePlainText(raw string) string
}

// MetricsRecorder は生成メトリクスの記録インターフェース。
type MetricsRecorder interface {
	RecordGenerationSuccess()
	RecordGenerationFailure(reason string)
}

// Input は投稿生成の入力。
type Input struct {
	Prompt   string
	PostType string
	// TemplateBody はテンプレート選択時の雛形。省略可。
	TemplateBody string
	// Context はインスピレーション記事のタイトル等の補助情報。省略可。
	Context string
}

// Result は投稿生成の結果。
type Result struct {
	Content string
	Slides  []string
}

// Service は投稿生成のサービス層。
// 生成APIの呼び出し、結果のサニタイズ、長さの正規化を行う。
type Service struct {
	generator Generator
	sanitizer Sanitizer
	metrics   MetricsRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(generator Generator, sanitizer Sanitizer, metrics MetricsRecorder) *Service {
	return &Service{
		generator: generator,
		sanitizer: sanitizer,
		metrics:   metrics,
	}
}

// Generate はプロンプトから投稿の下書きを生成する。
// 生成結果はプレーンテキストにサニタイズされ、本文上限を超える場合は切り詰められる。
func (s *Service) Generate(ctx context.Context, input Input) (*Result, error) {
	if strings.TrimSpace(input.Prompt) == "" {
		return nil, model.NewInvalidContentError("プロンプトが空です")
	}
	if utf8.RuneCountInString(input.Prompt) > maxPromptLength {
		return nil, model.NewInvalidContentError(
			fmt.Sprintf("プロンプトが%d文字を超えています", maxPromptLength))
	}

	postType := input.PostType
	if postType == "" {
		postType = string(model.PostTypeText)
	}
	if postType != string(model.PostTypeText) && postType != string(model.PostTypeCarousel) {
		return nil, model.NewInvalidContentError("投稿種類が不正です: " + postType)
	}

	resp, err := s.generator.Generate(ctx, GenerateRequest{
		Prompt:       input.Prompt,
		PostType:     postType,
		TemplateBody: input.TemplateBody,
		Context:      input.Context,
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordGenerationFailure(err.Error())
		}
		slog.Error("post generation failed",
			slog.String("error", err.Error()),
		)
		return nil, model.NewGenerationFailedError()
	}

	content := s.sanitizer.SanitizePlainText(resp.Content)
	if content == "" {
		if s.metrics != nil {
			s.metrics.RecordGenerationFailure("empty content")
		}
		return nil, model.NewGenerationFailedError()
	}
	content = truncateRunes(content, model.PostContentMaxLength)

	slides := make([]string, 0, len(resp.Slides))
	for _, slide := range resp.Slides {
		clean := s.sanitizer.SanitizePlainText(slide)
		if clean != "" {
			slides = append(slides, clean)
		}
	}

	if s.metrics != nil {
		s.metrics.RecordGenerationSuccess()
	}

	return &Result{Content: content, Slides: slides}, nil
}

// truncateRunes は文字数ベースで文字列を切り詰める。
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
