// Package publish は予約投稿のバックグラウンド公開処理を提供する。
// スケジューラとパブリッシャーを含む。
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/postdeck/internal/linkedin"
	"github.com/hitoshi/postdeck/internal/model"
	"github.com/hitoshi/postdeck/internal/repository"
)

// MetricsRecorder は公開メトリクスの記録インターフェース。
type MetricsRecorder interface {
	RecordPublishSuccess(postID string)
	RecordPublishFailure(postID string, reason string)
	RecordPublishLatency(duration time.Duration)
}

// Publisher は個別投稿のLinkedInへの公開を行う。
// 接続情報の解決、API呼び出し、結果に応じた投稿状態の更新を実行する。
type Publisher struct {
	postRepo    repository.PostRepository
	accountRepo repository.SocialAccountRepository
	client      linkedin.Publisher
	metrics     MetricsRecorder
	logger      *slog.Logger
}

// NewPublisher はPublisherの新しいインスタンスを生成する。
func NewPublisher(
	postRepo repository.PostRepository,
	accountRepo repository.SocialAccountRepository,
	client linkedin.Publisher,
	metrics MetricsRecorder,
	logger *slog.Logger,
) *Publisher {
	return &Publisher{
		postRepo:    postRepo,
		accountRepo: accountRepo,
		client:      client,
		metrics:     metrics,
		logger:      logger,
	}
}

// Publish は投稿をLinkedInに公開し、結果に応じて投稿状態を更新する。
// 公開成功時はposted、失敗時はfailed + エラーメッセージに遷移する。
// failedになった投稿はユーザーの再試行操作でpendingに戻る。
func (p *Publisher) Publish(ctx context.Context, post *model.Post) error {
	start := time.Now()

	// 接続情報を解決
	account, err := p.accountRepo.FindByUserAndProvider(ctx, post.UserID, "linkedin")
	if err != nil {
		return fmt.Errorf("接続情報の取得に失敗: %w", err)
	}
	if account == nil {
		p.logger.Warn("linkedin account not connected",
			slog.String("post_id", post.ID),
			slog.String("user_id", post.UserID),
		)
		return p.markFailed(ctx, post, "LinkedInアカウントが接続されていません")
	}

	// トークン期限切れの場合はAPI呼び出し前に失敗させる
	if account.ExpiresAt != nil && account.ExpiresAt.Before(time.Now()) {
		return p.markFailed(ctx, post, "LinkedInのアクセストークンが期限切れです")
	}

	result, err := p.client.Share(ctx, linkedin.ShareRequest{
		AuthorURN:   account.AuthorURN,
		AccessToken: account.AccessToken,
		Content:     post.Content,
		PostType:    post.PostType,
		MediaURL:    post.MediaURL,
	})
	if err != nil {
		p.logger.Error("post publication failed",
			slog.String("post_id", post.ID),
			slog.String("error", err.Error()),
		)
		return p.markFailed(ctx, post, err.Error())
	}

	now := time.Now()
	post.Status = model.PostStatusPosted
	post.ErrorMessage = ""
	post.PostedAt = &now
	post.UpdatedAt = now

	if err := p.postRepo.UpdateStatus(ctx, post); err != nil {
		return fmt.Errorf("投稿状態の更新に失敗: %w", err)
	}

	if p.metrics != nil {
		p.metrics.RecordPublishSuccess(post.ID)
		p.metrics.RecordPublishLatency(time.Since(start))
	}

	p.logger.Info("post published",
		slog.String("post_id", post.ID),
		slog.String("user_id", post.UserID),
		slog.String("share_id", result.ShareID),
	)

	return nil
}

// markFailed は投稿をfailedに遷移させる。
func (p *Publisher) markFailed(ctx context.Context, post *model.Post, reason string) error {
	post.Status = model.PostStatusFailed
	post.ErrorMessage = reason
	post.UpdatedAt = time.Now()

	if err := p.postRepo.UpdateStatus(ctx, post); err != nil {
		return fmt.Errorf("投稿状態の更新に失敗: %w", err)
	}

	if p.metrics != nil {
		p.metrics.RecordPublishFailure(post.ID, reason)
	}

	return nil
}
