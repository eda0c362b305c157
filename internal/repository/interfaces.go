// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/postdeck/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するidentities、sessions、posts、social_accountsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// PostRepository は予約投稿データの永続化インターフェース。
type PostRepository interface {
	// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Post, error)

	// ListByUserID はユーザーの全予約投稿をscheduled_time昇順で返す。
	// カレンダー投影の入力となるため、ここでの並び順が正となる
	// （投影側は日付範囲のフィルタのみ行い、並べ替えは行わない）。
	ListByUserID(ctx context.Context, userID string) ([]model.Post, error)

	// CountPendingByUserID はユーザーの公開待ち投稿数を返す。
	CountPendingByUserID(ctx context.Context, userID string) (int, error)

	// Create は投稿を作成する。
	Create(ctx context.Context, post *model.Post) error

	// Update は投稿の本文・種類・メディアURL・予約日時を更新する。
	Update(ctx context.Context, post *model.Post) error

	// UpdateStatus は投稿の状態（status, error_message, posted_at）を更新する。
	UpdateStatus(ctx context.Context, post *model.Post) error

	// Delete は指定IDの投稿を削除する。
	Delete(ctx context.Context, id string) error

	// ListDueForPublish は公開期限を迎えた公開待ち投稿を取得する。
	// 返した投稿はアトミックにpublishing状態へ遷移させるため、
	// 複数ワーカーが同じ投稿を二重に処理することはない。
	// 呼び出し側は公開結果に応じてposted / failedへ更新する責任を持つ。
	ListDueForPublish(ctx context.Context, limit int) ([]model.Post, error)
}

// TemplateRepository は投稿テンプレートの永続化インターフェース。
type TemplateRepository interface {
	// FindByID は指定IDのテンプレートを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Template, error)

	// List は全テンプレートをカテゴリ・名前順で返す。
	List(ctx context.Context) ([]model.Template, error)

	// Count は登録済みテンプレート数を返す。
	Count(ctx context.Context) (int, error)

	// Create はテンプレートを作成する。名前の重複は冪等に無視する。
	Create(ctx context.Context, template *model.Template) error
}

// SocialAccountRepository は外部SNSアカウント接続情報の永続化インターフェース。
type SocialAccountRepository interface {
	// FindByUserAndProvider はユーザーIDとプロバイダー名で接続情報を検索する。
	// 見つからない場合はnilを返す。
	FindByUserAndProvider(ctx context.Context, userID, provider string) (*model.SocialAccount, error)

	// Upsert は接続情報を冪等にUPSERTする（(user_id, provider)単位）。
	Upsert(ctx context.Context, account *model.SocialAccount) error

	// DeleteByUserAndProvider は接続情報を削除する。
	DeleteByUserAndProvider(ctx context.Context, userID, provider string) error
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
