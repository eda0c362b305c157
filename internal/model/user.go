// Package model はドメインモデルを定義する。
package model

import "time"

// User はPostdeckの利用ユーザーを表す。
// サインアップはGoogle OAuthのみで、ユーザー自身のパスワードは保持しない。
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity は外部IdPとの紐付け情報を表す。
// 現状はGoogleのみだが、複数IdPに対応できる構造にしておく。
type Identity struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
