package publish

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/postdeck/internal/model"
	"github.com/hitoshi/postdeck/internal/repository"
)

// PostPublisherService は投稿公開の実行インターフェース。
type PostPublisherService interface {
	// Publish は指定投稿を公開し、結果に応じて投稿状態を更新する。
	Publish(ctx context.Context, post *model.Post) error
}

// batchLimit は1サイクルで取得する公開対象投稿の上限。
const batchLimit = 100

// Scheduler は予約投稿の公開スケジューリングと並列制御を行う。
// ティッカーで公開期限を迎えた投稿を取得し、
// semaphoreパターンで最大並列数を制御しながら公開を実行する。
type Scheduler struct {
	postRepo       repository.PostRepository
	publisher      PostPublisherService
	logger         *slog.Logger
	maxConcurrency int
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値5を使用する。
func NewScheduler(
	postRepo repository.PostRepository,
	publisher PostPublisherService,
	logger *slog.Logger,
	maxConcurrency int,
) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}
	return &Scheduler{
		postRepo:       postRepo,
		publisher:      publisher,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("publish scheduler started",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	// 起動直後に1回実行
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("publish cycle failed",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("publish scheduler stopped")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("publish cycle failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は公開期限を迎えた投稿を1回取得し、並列で公開を実行する。
// semaphoreパターンで最大並列数を制御する。
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()

	// 公開対象投稿をアトミックに掴む（pending → publishing）
	posts, err := s.postRepo.ListDueForPublish(ctx, batchLimit)
	if err != nil {
		return err
	}

	if len(posts) == 0 {
		return nil
	}

	s.logger.Info("publish cycle started",
		slog.Int("post_count", len(posts)),
	)

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup

	for i := range posts {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(p *model.Post) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			if err := s.publisher.Publish(ctx, p); err != nil {
				s.logger.Error("post publish failed",
					slog.String("post_id", p.ID),
					slog.String("error", err.Error()),
				)
			}
		}(&posts[i])
	}

	wg.Wait()

	duration := time.Since(start)
	s.logger.Info("publish cycle completed",
		slog.Int("post_count", len(posts)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
