// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, post, generation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodePostNotFound        = "POST_NOT_FOUND"
	ErrCodePostNotEditable     = "POST_NOT_EDITABLE"
	ErrCodePostNotFailed       = "POST_NOT_FAILED"
	ErrCodePostLimit           = "POST_LIMIT"
	ErrCodeInvalidContent      = "INVALID_CONTENT"
	ErrCodeInvalidScheduleTime = "INVALID_SCHEDULE_TIME"
	ErrCodeInvalidViewMode     = "INVALID_VIEW_MODE"
	ErrCodeInvalidURL          = "INVALID_URL"
	ErrCodeSSRFBlocked         = "SSRF_BLOCKED"
	ErrCodeFeedNotDetected     = "FEED_NOT_DETECTED"
	ErrCodeFetchFailed         = "FETCH_FAILED"
	ErrCodeGenerationFailed    = "GENERATION_FAILED"
	ErrCodeTemplateNotFound    = "TEMPLATE_NOT_FOUND"
	ErrCodeAccountNotConnected = "ACCOUNT_NOT_CONNECTED"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
)

// NewPostNotFoundError は投稿未検出エラーを生成する。
func NewPostNotFoundError(postID string) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("指定された投稿が見つかりません: %s", postID),
		Category: "post",
		Action:   "投稿IDを確認してください。",
	}
}

// NewPostNotEditableError は公開待ち以外の投稿を編集しようとした場合のエラーを生成する。
func NewPostNotEditableError(status PostStatus) *APIError {
	return &APIError{
		Code:     ErrCodePostNotEditable,
		Message:  fmt.Sprintf("この投稿は編集できません（状態: %s）。", status),
		Category: "post",
		Action:   "編集・削除は公開待ちの投稿に対してのみ実行できます。",
	}
}

// NewPostNotFailedError は失敗状態でない投稿を再試行しようとした場合のエラーを生成する。
func NewPostNotFailedError() *APIError {
	return &APIError{
		Code:     ErrCodePostNotFailed,
		Message:  "投稿は失敗状態ではありません。",
		Category: "post",
		Action:   "再試行は公開に失敗した投稿に対してのみ実行できます。",
	}
}

// NewPostLimitError は予約投稿の上限エラーを生成する。
func NewPostLimitError() *APIError {
	return &APIError{
		Code:     ErrCodePostLimit,
		Message:  "公開待ちの投稿数が上限（200件）に達しています。",
		Category: "post",
		Action:   "不要な予約投稿を削除してから、新しい投稿を登録してください。",
	}
}

// NewInvalidContentError は無効な投稿本文エラーを生成する。
func NewInvalidContentError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidContent,
		Message:  fmt.Sprintf("無効な投稿本文です: %s", reason),
		Category: "validation",
		Action:   fmt.Sprintf("本文は1文字以上%d文字以内で入力してください。", PostContentMaxLength),
	}
}

// NewInvalidScheduleTimeError は無効な予約日時エラーを生成する。
func NewInvalidScheduleTimeError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidScheduleTime,
		Message:  fmt.Sprintf("無効な予約日時です: %s", reason),
		Category: "validation",
		Action:   "予約日時はISO-8601形式の未来の日時を指定してください。",
	}
}

// NewInvalidViewModeError は無効なカレンダー表示モードエラーを生成する。
func NewInvalidViewModeError(view string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidViewMode,
		Message:  fmt.Sprintf("無効な表示モードです: %s", view),
		Category: "validation",
		Action:   "表示モードには week または month を指定してください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（http:// または https:// で始まるURL）を入力してください。",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "セキュリティポリシーにより、指定されたURLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されているWebサイトのURLを入力してください。ローカルネットワークやプライベートIPへのアクセスは許可されていません。",
	}
}

// NewFeedNotDetectedError はインスピレーション用フィードの未検出エラーを生成する。
func NewFeedNotDetectedError(url string) *APIError {
	return &APIError{
		Code:     ErrCodeFeedNotDetected,
		Message:  fmt.Sprintf("指定されたURLからRSS/Atomフィードを検出できませんでした: %s", url),
		Category: "validation",
		Action:   "RSS/AtomフィードのURLを直接入力するか、フィードが公開されているページのURLを確認してください。",
	}
}

// NewFetchFailedError はフェッチ失敗エラーを生成する。
func NewFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeFetchFailed,
		Message:  fmt.Sprintf("URLの取得に失敗しました: %s", reason),
		Category: "system",
		Action:   "URLが正しいか確認し、しばらく待ってから再度お試しください。",
	}
}

// NewGenerationFailedError はAI下書き生成の失敗エラーを生成する。
func NewGenerationFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeGenerationFailed,
		Message:  "下書きの生成に失敗しました。",
		Category: "generation",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewTemplateNotFoundError はテンプレート未検出エラーを生成する。
func NewTemplateNotFoundError(templateID string) *APIError {
	return &APIError{
		Code:     ErrCodeTemplateNotFound,
		Message:  fmt.Sprintf("指定されたテンプレートが見つかりません: %s", templateID),
		Category: "post",
		Action:   "テンプレートIDを確認してください。",
	}
}

// NewAccountNotConnectedError はLinkedInアカウント未接続エラーを生成する。
func NewAccountNotConnectedError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountNotConnected,
		Message:  "LinkedInアカウントが接続されていません。",
		Category: "auth",
		Action:   "設定画面からLinkedInアカウントを接続してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
