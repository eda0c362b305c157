// Package model はドメインモデルを定義する。
package model

import "time"

// PostContentMaxLength は投稿本文の最大文字数。
// LinkedInの投稿本文上限（3000文字）に合わせる。
const PostContentMaxLength = 3000

// Post は予約投稿を表す。
type Post struct {
	ID            string
	UserID        string
	Content       string
	PostType      PostType
	MediaURL      string
	ScheduledTime time.Time
	Status        PostStatus
	ErrorMessage  string
	PostedAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PostType は投稿の種類（テキスト/カルーセル）を表す。
type PostType string

const (
	// PostTypeText は通常のテキスト投稿。
	PostTypeText PostType = "text"
	// PostTypeCarousel はカルーセル（複数スライド）投稿。
	PostTypeCarousel PostType = "carousel"
)

// PostStatus は予約投稿の状態を表す。
// pending / publishing / posted / failed の閉じた列挙だが、
// 表示側は未知の値をエラーとせずデフォルト表示として扱う。
type PostStatus string

const (
	// PostStatusPending は公開待ちの状態。
	PostStatusPending PostStatus = "pending"
	// PostStatusPublishing はワーカーが公開処理のために掴んでいる状態。
	// 公開が完了するとposted、失敗するとfailedへ遷移する。
	PostStatusPublishing PostStatus = "publishing"
	// PostStatusPosted は公開済みの状態。
	PostStatusPosted PostStatus = "posted"
	// PostStatusFailed は公開失敗の状態。
	PostStatusFailed PostStatus = "failed"
)

// SocialAccount はユーザーと外部SNSアカウントの接続情報を表す。
// 現状はLinkedInのみをサポートする。
type SocialAccount struct {
	ID          string
	UserID      string
	Provider    string
	AuthorURN   string
	AccessToken string
	ExpiresAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
