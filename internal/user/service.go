// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/postdeck/internal/model"
	"github.com/hitoshi/postdeck/internal/repository"
)

// ProviderLinkedIn はLinkedIn接続のプロバイダー識別子。
const ProviderLinkedIn = "linkedin"

// Service はユーザー管理のサービス層。
// 退会処理とSNSアカウント接続のビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	accountRepo repository.SocialAccountRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	accountRepo repository.SocialAccountRepository,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		accountRepo: accountRepo,
	}
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: sessions → user（+ CASCADE: identities, posts, social_accounts）
// セッションを先に削除することで、退会処理中の新規リクエストを遮断する。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	// ユーザー存在確認
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("user withdrawal started",
		slog.String("user_id", userID),
	)

	// 1. セッションを削除
	if s.sessionRepo != nil {
		if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("セッションの削除に失敗しました: %w", err)
		}
	}

	// 2. ユーザーを削除（identities, posts, social_accountsはCASCADE削除）
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("user withdrawal completed",
		slog.String("user_id", userID),
	)

	return nil
}

// ConnectLinkedIn はLinkedInアカウントの接続情報を保存する。
// 既に接続済みの場合はトークンとURNを更新する（冪等）。
func (s *Service) ConnectLinkedIn(ctx context.Context, userID, authorURN, accessToken string, expiresAt *time.Time) (*model.SocialAccount, error) {
	if authorURN == "" {
		return nil, fmt.Errorf("author URN is required")
	}
	if accessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}

	now := time.Now()
	account := &model.SocialAccount{
		ID:          uuid.New().String(),
		UserID:      userID,
		Provider:    ProviderLinkedIn,
		AuthorURN:   authorURN,
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.accountRepo.Upsert(ctx, account); err != nil {
		return nil, fmt.Errorf("SNSアカウントの保存に失敗しました: %w", err)
	}

	slog.Info("linkedin account connected",
		slog.String("user_id", userID),
	)

	return account, nil
}

// DisconnectLinkedIn はLinkedInアカウントの接続を解除する。
func (s *Service) DisconnectLinkedIn(ctx context.Context, userID string) error {
	if err := s.accountRepo.DeleteByUserAndProvider(ctx, userID, ProviderLinkedIn); err != nil {
		return fmt.Errorf("SNSアカウントの削除に失敗しました: %w", err)
	}

	slog.Info("linkedin account disconnected",
		slog.String("user_id", userID),
	)

	return nil
}

// GetLinkedInConnection はLinkedInの接続状態を返す。未接続の場合はnilを返す。
func (s *Service) GetLinkedInConnection(ctx context.Context, userID string) (*model.SocialAccount, error) {
	account, err := s.accountRepo.FindByUserAndProvider(ctx, userID, ProviderLinkedIn)
	if err != nil {
		return nil, fmt.Errorf("SNSアカウントの取得に失敗しました: %w", err)
	}
	return account, nil
}
