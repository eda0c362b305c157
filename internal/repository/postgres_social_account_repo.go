package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/postdeck/internal/model"
)

// PostgresSocialAccountRepo はPostgreSQLを使用したSNS接続情報リポジトリ。
type PostgresSocialAccountRepo struct {
	db *sql.DB
}

// NewPostgresSocialAccountRepo はPostgresSocialAccountRepoを生成する。
func NewPostgresSocialAccountRepo(db *sql.DB) *PostgresSocialAccountRepo {
	return &PostgresSocialAccountRepo{db: db}
}

// FindByUserAndProvider はユーザーIDとプロバイダー名で接続情報を検索する。
// 見つからない場合はnilを返す。
func (r *PostgresSocialAccountRepo) FindByUserAndProvider(ctx context.Context, userID, provider string) (*model.SocialAccount, error) {
	account := &model.SocialAccount{}
	var expiresAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, provider, author_urn, access_token, expires_at, created_at, updated_at
		 FROM social_accounts
		 WHERE user_id = $1 AND provider = $2`,
		userID, provider,
	).Scan(&account.ID, &account.UserID, &account.Provider, &account.AuthorURN,
		&account.AccessToken, &expiresAt, &account.CreatedAt, &account.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find social account: %w", err)
	}
	if expiresAt.Valid {
		account.ExpiresAt = &expiresAt.Time
	}

	return account, nil
}

// Upsert は接続情報を冪等にUPSERTする（(user_id, provider)単位）。
// 再接続時はauthor_urnとaccess_tokenを更新する。
func (r *PostgresSocialAccountRepo) Upsert(ctx context.Context, account *model.SocialAccount) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO social_accounts (id, user_id, provider, author_urn, access_token, expires_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, provider) DO UPDATE
		 SET author_urn = EXCLUDED.author_urn,
		     access_token = EXCLUDED.access_token,
		     expires_at = EXCLUDED.expires_at,
		     updated_at = EXCLUDED.updated_at`,
		account.ID, account.UserID, account.Provider, account.AuthorURN,
		account.AccessToken, account.ExpiresAt, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert social account: %w", err)
	}
	return nil
}

// DeleteByUserAndProvider は接続情報を削除する。
func (r *PostgresSocialAccountRepo) DeleteByUserAndProvider(ctx context.Context, userID, provider string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM social_accounts WHERE user_id = $1 AND provider = $2`,
		userID, provider,
	)
	if err != nil {
		return fmt.Errorf("failed to delete social account: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SocialAccountRepository = (*PostgresSocialAccountRepo)(nil)
