package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/postdeck/internal/model"
	"github.com/hitoshi/postdeck/internal/repository"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn   func(ctx context.Context, id string) (*model.User, error)
	deleteByIDFn func(ctx context.Context, id string) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) CreateWithIdentity(_ context.Context, _ *model.User, _ *model.Identity) error {
	return nil
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockSessionRepo struct {
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockSessionRepo) Create(_ context.Context, _ *model.Session) error { return nil }
func (m *mockSessionRepo) FindByID(_ context.Context, _ string) (*model.Session, error) {
	return nil, nil
}
func (m *mockSessionRepo) DeleteByID(_ context.Context, _ string) error { return nil }

func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

type mockSocialAccountRepo struct {
	findFn   func(ctx context.Context, userID, provider string) (*model.SocialAccount, error)
	upsertFn func(ctx context.Context, account *model.SocialAccount) error
	deleteFn func(ctx context.Context, userID, provider string) error
}

func (m *mockSocialAccountRepo) FindByUserAndProvider(ctx context.Context, userID, provider string) (*model.SocialAccount, error) {
	if m.findFn != nil {
		return m.findFn(ctx, userID, provider)
	}
	return nil, nil
}

func (m *mockSocialAccountRepo) Upsert(ctx context.Context, account *model.SocialAccount) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, account)
	}
	return nil
}

func (m *mockSocialAccountRepo) DeleteByUserAndProvider(ctx context.Context, userID, provider string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, provider)
	}
	return nil
}

// --- compile-time interface checks ---
var _ repository.UserRepository = (*mockUserRepo)(nil)
var _ repository.SessionRepository = (*mockSessionRepo)(nil)
var _ repository.SocialAccountRepository = (*mockSocialAccountRepo)(nil)

// --- テスト ---

// 退会処理がセッション削除→ユーザー削除の順で実行されることを検証
func TestWithdraw_DeletesSessionsThenUser(t *testing.T) {
	var order []string

	userRepo := &mockUserRepo{
		findByIDFn: func(_ context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Email: "taro@example.com"}, nil
		},
		deleteByIDFn: func(_ context.Context, id string) error {
			order = append(order, "user")
			return nil
		},
	}
	sessionRepo := &mockSessionRepo{
		deleteByUserIDFn: func(_ context.Context, userID string) error {
			order = append(order, "sessions")
			return nil
		},
	}

	svc := NewService(userRepo, sessionRepo, &mockSocialAccountRepo{})
	if err := svc.Withdraw(context.Background(), "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(order) != 2 || order[0] != "sessions" || order[1] != "user" {
		t.Errorf("deletion order = %v, want [sessions user]", order)
	}
}

// 存在しないユーザーの退会はUSER_NOT_FOUNDエラーになることを検証
func TestWithdraw_UserNotFound(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFn: func(_ context.Context, _ string) (*model.User, error) {
			return nil, nil
		},
	}

	svc := NewService(userRepo, &mockSessionRepo{}, &mockSocialAccountRepo{})
	err := svc.Withdraw(context.Background(), "missing-user")
	if err == nil {
		t.Fatal("expected error for missing user")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T", err)
	}
	if apiErr.Code != "USER_NOT_FOUND" {
		t.Errorf("code = %q, want USER_NOT_FOUND", apiErr.Code)
	}
}

// セッション削除失敗時はユーザー削除まで進まないことを検証
func TestWithdraw_SessionDeleteFailure_StopsWithdrawal(t *testing.T) {
	userDeleted := false

	userRepo := &mockUserRepo{
		findByIDFn: func(_ context.Context, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
		deleteByIDFn: func(_ context.Context, _ string) error {
			userDeleted = true
			return nil
		},
	}
	sessionRepo := &mockSessionRepo{
		deleteByUserIDFn: func(_ context.Context, _ string) error {
			return errors.New("db down")
		},
	}

	svc := NewService(userRepo, sessionRepo, &mockSocialAccountRepo{})
	if err := svc.Withdraw(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error")
	}
	if userDeleted {
		t.Error("user should not be deleted when session deletion fails")
	}
}

// LinkedIn接続がUpsertに正しい値を渡すことを検証
func TestConnectLinkedIn_UpsertsAccount(t *testing.T) {
	var saved *model.SocialAccount
	accountRepo := &mockSocialAccountRepo{
		upsertFn: func(_ context.Context, account *model.SocialAccount) error {
			saved = account
			return nil
		},
	}

	svc := NewService(&mockUserRepo{}, &mockSessionRepo{}, accountRepo)
	expires := time.Now().Add(60 * 24 * time.Hour)
	account, err := svc.ConnectLinkedIn(context.Background(), "user-1", "urn:li:person:abc", "token-xyz", &expires)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if saved == nil {
		t.Fatal("expected Upsert to be called")
	}
	if saved.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", saved.UserID)
	}
	if saved.Provider != ProviderLinkedIn {
		t.Errorf("Provider = %q, want linkedin", saved.Provider)
	}
	if saved.AuthorURN != "urn:li:person:abc" {
		t.Errorf("AuthorURN = %q", saved.AuthorURN)
	}
	if account.ID == "" {
		t.Error("expected generated account ID")
	}
}

// URNまたはトークンが空の場合は接続を拒否することを検証
func TestConnectLinkedIn_RejectsEmptyCredentials(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockSessionRepo{}, &mockSocialAccountRepo{})

	if _, err := svc.ConnectLinkedIn(context.Background(), "user-1", "", "token", nil); err == nil {
		t.Error("expected error for empty URN")
	}
	if _, err := svc.ConnectLinkedIn(context.Background(), "user-1", "urn:li:person:abc", "", nil); err == nil {
		t.Error("expected error for empty token")
	}
}

// 接続解除がDeleteByUserAndProviderを呼ぶことを検証
func TestDisconnectLinkedIn_DeletesAccount(t *testing.T) {
	var gotUserID, gotProvider string
	accountRepo := &mockSocialAccountRepo{
		deleteFn: func(_ context.Context, userID, provider string) error {
			gotUserID = userID
			gotProvider = provider
			return nil
		},
	}

	svc := NewService(&mockUserRepo{}, &mockSessionRepo{}, accountRepo)
	if err := svc.DisconnectLinkedIn(context.Background(), "user-9"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUserID != "user-9" || gotProvider != ProviderLinkedIn {
		t.Errorf("delete called with (%q, %q)", gotUserID, gotProvider)
	}
}

// 未接続の場合GetLinkedInConnectionはnilを返すことを検証
func TestGetLinkedInConnection_NotConnected(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockSessionRepo{}, &mockSocialAccountRepo{})

	account, err := svc.GetLinkedInConnection(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account != nil {
		t.Errorf("expected nil account, got %+v", account)
	}
}
