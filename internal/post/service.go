// Package post は予約投稿のドメインロジックを提供する。
// 本文・予約日時・メディアURLの検証と、投稿のライフサイクル
// （pending → posted / failed、failedからの再試行）を管理する。
package post

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/postdeck/internal/model"
	"github.com/hitoshi/postdeck/internal/repository"
)

// MaxPendingPosts はユーザーあたりの公開待ち投稿数の上限。
const MaxPendingPosts = 200

// URLValidator はメディアURLの安全性を事前検証するインターフェース。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// CreateInput は投稿作成の入力。
type CreateInput struct {
	Content       string
	PostType      string
	MediaURL      string
	ScheduledTime time.Time
}

// UpdateInput は投稿更新の入力。
type UpdateInput struct {
	Content       string
	PostType      string
	MediaURL      string
	ScheduledTime time.Time
}

// Service は予約投稿のサービス層。
type Service struct {
	postRepo     repository.PostRepository
	urlValidator URLValidator
	// now はテストで時刻を固定するためのフック。
	now func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(postRepo repository.PostRepository, urlValidator URLValidator) *Service {
	return &Service{
		postRepo:     postRepo,
		urlValidator: urlValidator,
		now:          time.Now,
	}
}

// List はユーザーの全予約投稿をscheduled_time昇順で返す。
// カレンダー投影の入力として使用される。
func (s *Service) List(ctx context.Context, userID string) ([]model.Post, error) {
	posts, err := s.postRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}
	return posts, nil
}

// Get は指定IDの投稿を取得する。
// 他ユーザーの投稿は存在しないものとして扱う。
func (s *Service) Get(ctx context.Context, userID, postID string) (*model.Post, error) {
	p, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if p == nil || p.UserID != userID {
		return nil, model.NewPostNotFoundError(postID)
	}
	return p, nil
}

// Create は予約投稿を作成する。
// 本文・投稿種類・予約日時・メディアURLを検証し、公開待ち上限を超える場合は拒否する。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.Post, error) {
	postType, err := s.validateInput(input.Content, input.PostType, input.MediaURL, input.ScheduledTime)
	if err != nil {
		return nil, err
	}

	count, err := s.postRepo.CountPendingByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("投稿数の取得に失敗しました: %w", err)
	}
	if count >= MaxPendingPosts {
		return nil, model.NewPostLimitError()
	}

	now := s.now()
	p := &model.Post{
		ID:            uuid.New().String(),
		UserID:        userID,
		Content:       input.Content,
		PostType:      postType,
		MediaURL:      input.MediaURL,
		ScheduledTime: input.ScheduledTime,
		Status:        model.PostStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.postRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}

	slog.Info("post scheduled",
		slog.String("post_id", p.ID),
		slog.String("user_id", userID),
		slog.Time("scheduled_time", p.ScheduledTime),
	)

	return p, nil
}

// Update は公開待ちの投稿を更新する。
// posted / failed の投稿は編集できない（failedはRetryで再試行する）。
func (s *Service) Update(ctx context.Context, userID, postID string, input UpdateInput) (*model.Post, error) {
	p, err := s.Get(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if p.Status != model.PostStatusPending {
		return nil, model.NewPostNotEditableError(p.Status)
	}

	postType, err := s.validateInput(input.Content, input.PostType, input.MediaURL, input.ScheduledTime)
	if err != nil {
		return nil, err
	}

	p.Content = input.Content
	p.PostType = postType
	p.MediaURL = input.MediaURL
	p.ScheduledTime = input.ScheduledTime
	p.UpdatedAt = s.now()

	if err := s.postRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("投稿の更新に失敗しました: %w", err)
	}

	return p, nil
}

// Delete は公開待ちの投稿を削除する。
func (s *Service) Delete(ctx context.Context, userID, postID string) error {
	p, err := s.Get(ctx, userID, postID)
	if err != nil {
		return err
	}
	if p.Status != model.PostStatusPending {
		return model.NewPostNotEditableError(p.Status)
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}

	slog.Info("post deleted",
		slog.String("post_id", postID),
		slog.String("user_id", userID),
	)

	return nil
}

// Retry は公開に失敗した投稿を公開待ちに戻す。
// scheduled_timeは変更しないため、期限を過ぎていれば次の公開サイクルで再試行される。
func (s *Service) Retry(ctx context.Context, userID, postID string) (*model.Post, error) {
	p, err := s.Get(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if p.Status != model.PostStatusFailed {
		return nil, model.NewPostNotFailedError()
	}

	p.Status = model.PostStatusPending
	p.ErrorMessage = ""
	p.UpdatedAt = s.now()

	if err := s.postRepo.UpdateStatus(ctx, p); err != nil {
		return nil, fmt.Errorf("投稿の再試行に失敗しました: %w", err)
	}

	slog.Info("post retry requested",
		slog.String("post_id", postID),
		slog.String("user_id", userID),
	)

	return p, nil
}

// validateInput は本文・投稿種類・メディアURL・予約日時を検証する。
func (s *Service) validateInput(content, postType, mediaURL string, scheduledTime time.Time) (model.PostType, error) {
	if strings.TrimSpace(content) == "" {
		return "", model.NewInvalidContentError("本文が空です")
	}
	if utf8.RuneCountInString(content) > model.PostContentMaxLength {
		return "", model.NewInvalidContentError(
			fmt.Sprintf("本文が%d文字を超えています", model.PostContentMaxLength))
	}

	var pt model.PostType
	switch postType {
	case "", string(model.PostTypeText):
		pt = model.PostTypeText
	case string(model.PostTypeCarousel):
		pt = model.PostTypeCarousel
	default:
		return "", model.NewInvalidContentError("投稿種類が不正です: " + postType)
	}

	if scheduledTime.IsZero() {
		return "", model.NewInvalidScheduleTimeError("予約日時が指定されていません")
	}
	if !scheduledTime.After(s.now()) {
		return "", model.NewInvalidScheduleTimeError("予約日時は未来の日時を指定してください")
	}

	if mediaURL != "" && s.urlValidator != nil {
		if err := s.urlValidator.ValidateURL(mediaURL); err != nil {
			return "", model.NewInvalidURLError(err.Error())
		}
	}

	return pt, nil
}
