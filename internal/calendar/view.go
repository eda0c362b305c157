// Package calendar は予約投稿のカレンダー投影を提供する。
// 投稿リストと基準日から週/月のタイムグリッドを純粋関数として導出する。
// パッケージ内に共有可変状態は持たず、すべての関数は同一入力に対して
// 同一出力を返す。
package calendar

import "github.com/hitoshi/postdeck/internal/model"

// ViewMode はカレンダーの表示粒度（週/月）を表す。
type ViewMode string

const (
	// ViewModeWeek は週表示（日×時間のグリッド）。
	ViewModeWeek ViewMode = "week"
	// ViewModeMonth は月表示（日単位のグリッド）。
	ViewModeMonth ViewMode = "month"
)

// ParseViewMode は文字列からViewModeを解析する。
// week/month 以外の値はエラーを返す。
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(s) {
	case ViewModeWeek:
		return ViewModeWeek, nil
	case ViewModeMonth:
		return ViewModeMonth, nil
	default:
		return "", model.NewInvalidViewModeError(s)
	}
}

// Direction はカレンダーの移動方向（前へ/次へ）を表す。
type Direction string

const (
	// DirectionPrev は前の週/月への移動。
	DirectionPrev Direction = "prev"
	// DirectionNext は次の週/月への移動。
	DirectionNext Direction = "next"
)
