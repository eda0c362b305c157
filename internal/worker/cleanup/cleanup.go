// Package cleanup は投稿・セッションの自動削除ジョブを提供する。
// 保持期間（デフォルト180日）を超過した公開済み/失敗投稿と
// 期限切れセッションを日次バッチで削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// defaultSchedule は日次実行のcronスケジュール（毎日04:00）。
const defaultSchedule = "0 4 * * *"

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// MetricsRecorder はクリーンアップメトリクスの記録インターフェース。
type MetricsRecorder interface {
	RecordPostsCleaned(count int)
}

// CleanupJob は保持期間を超過した投稿と期限切れセッションの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	db            Executor
	logger        *slog.Logger
	metrics       MetricsRecorder
	RetentionDays int // 公開済み/失敗投稿の保持日数（デフォルト: 180）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は180日。
func NewCleanupJob(db Executor, logger *slog.Logger, metrics MetricsRecorder) *CleanupJob {
	return &CleanupJob{
		db:            db,
		logger:        logger,
		metrics:       metrics,
		RetentionDays: 180,
	}
}

// Run は保持期間を超過した投稿と期限切れセッションを削除する。
// 対象はstatusがposted/failedかつupdated_atがRetentionDays日前より古い投稿。
// pendingの投稿は予約が生きているため保持期間に関わらず削除しない。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	interval := fmt.Sprintf("%d days", j.RetentionDays)

	result, err := j.db.ExecContext(ctx,
		`DELETE FROM posts
		 WHERE status IN ('posted', 'failed')
		   AND updated_at < now() - $1::interval`,
		interval,
	)
	if err != nil {
		j.logger.Error("post cleanup failed",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("投稿クリーンアップの実行に失敗: %w", err)
	}

	deletedPosts, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	if j.metrics != nil {
		j.metrics.RecordPostsCleaned(int(deletedPosts))
	}

	// 期限切れセッションを削除
	result, err = j.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < now()`,
	)
	if err != nil {
		j.logger.Error("session cleanup failed",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	deletedSessions, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("cleanup job completed",
		slog.Int64("deleted_posts", deletedPosts),
		slog.Int64("deleted_sessions", deletedSessions),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// StartDaily はcronスケジュールでクリーンアップジョブを定期実行する。
// scheduleが空の場合は毎日04:00に実行する。
// 返されたcronインスタンスは呼び出し側がStopで停止する。
func (j *CleanupJob) StartDaily(ctx context.Context, schedule string) (*cron.Cron, error) {
	if schedule == "" {
		schedule = defaultSchedule
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := j.Run(ctx); err != nil {
			j.logger.Error("scheduled cleanup run failed",
				slog.String("error", err.Error()),
			)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("クリーンアップスケジュールの登録に失敗: %w", err)
	}

	c.Start()
	j.logger.Info("cleanup job scheduled",
		slog.String("schedule", schedule),
		slog.Int("retention_days", j.RetentionDays),
	)

	return c, nil
}
