package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/postdeck/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した予約投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

const postColumns = `id, user_id, content, post_type, media_url, scheduled_time,
	 status, error_message, posted_at, created_at, updated_at`

// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1`,
		id,
	)
	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post by ID: %w", err)
	}
	return post, nil
}

// ListByUserID はユーザーの全予約投稿をscheduled_time昇順で返す。
// 同時刻の投稿はcreated_at、次いでidで並び順を安定させる。
func (r *PostgresPostRepo) ListByUserID(ctx context.Context, userID string) ([]model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+`
		 FROM posts
		 WHERE user_id = $1
		 ORDER BY scheduled_time ASC, created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}
	return posts, nil
}

// CountPendingByUserID はユーザーの公開待ち投稿数を返す。
func (r *PostgresPostRepo) CountPendingByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE user_id = $1 AND status = 'pending'`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending posts: %w", err)
	}
	return count, nil
}

// Create は投稿を作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, user_id, content, post_type, media_url, scheduled_time,
		                    status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		post.ID, post.UserID, post.Content, string(post.PostType),
		nullString(post.MediaURL), post.ScheduledTime, string(post.Status),
		post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// Update は投稿の本文・種類・メディアURL・予約日時を更新する。
func (r *PostgresPostRepo) Update(ctx context.Context, post *model.Post) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts
		 SET content = $1, post_type = $2, media_url = $3, scheduled_time = $4, updated_at = $5
		 WHERE id = $6`,
		post.Content, string(post.PostType), nullString(post.MediaURL),
		post.ScheduledTime, post.UpdatedAt, post.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("post not found: %s", post.ID)
	}
	return nil
}

// UpdateStatus は投稿の状態（status, error_message, posted_at）を更新する。
func (r *PostgresPostRepo) UpdateStatus(ctx context.Context, post *model.Post) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts
		 SET status = $1, error_message = $2, posted_at = $3, updated_at = $4
		 WHERE id = $5`,
		string(post.Status), nullString(post.ErrorMessage), post.PostedAt,
		post.UpdatedAt, post.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update post status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("post not found: %s", post.ID)
	}
	return nil
}

// Delete は指定IDの投稿を削除する。
func (r *PostgresPostRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM posts WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("post not found: %s", id)
	}
	return nil
}

// ListDueForPublish は公開期限を迎えた公開待ち投稿をpublishing状態に遷移させて返す。
// UPDATE ... RETURNING 1文で選択と状態遷移をアトミックに行うため、
// 複数ワーカーが同時に動いても同じ投稿を二重に掴むことはない。
// 内側のSELECTのFOR UPDATE SKIP LOCKEDは、同時実行時に互いの候補行を
// 待たずに読み飛ばすためのもの。
// 掴んだままワーカーが落ちた投稿（publishingのまま更新が止まったもの）は
// 一定時間後に再び候補に含めて救済する。
func (r *PostgresPostRepo) ListDueForPublish(ctx context.Context, limit int) ([]model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`UPDATE posts
		 SET status = 'publishing', updated_at = now()
		 WHERE id IN (
		     SELECT id FROM posts
		     WHERE scheduled_time <= now()
		       AND (status = 'pending'
		            OR (status = 'publishing' AND updated_at < now() - interval '10 minutes'))
		     ORDER BY scheduled_time ASC
		     LIMIT $1
		     FOR UPDATE SKIP LOCKED
		 )
		 RETURNING `+postColumns,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list due posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate due posts: %w", err)
	}
	return posts, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの両方を受けるためのインターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*model.Post, error) {
	post := &model.Post{}
	var (
		postType     string
		status       string
		mediaURL     sql.NullString
		errorMessage sql.NullString
		postedAt     sql.NullTime
	)
	err := row.Scan(
		&post.ID, &post.UserID, &post.Content, &postType, &mediaURL,
		&post.ScheduledTime, &status, &errorMessage, &postedAt,
		&post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	post.PostType = model.PostType(postType)
	post.Status = model.PostStatus(status)
	if mediaURL.Valid {
		post.MediaURL = mediaURL.String
	}
	if errorMessage.Valid {
		post.ErrorMessage = errorMessage.String
	}
	if postedAt.Valid {
		post.PostedAt = &postedAt.Time
	}
	return post, nil
}

// nullString は空文字をNULLとして書き込むための変換。
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
