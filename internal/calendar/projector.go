package calendar

import (
	"time"

	"github.com/hitoshi/postdeck/internal/model"
)

// NoHour は月表示セルのHourフィールドに設定される値。
// 月表示では時間単位のバケッティングを行わず、1日が1セルになる。
const NoHour = -1

// Cell はタイムグリッドの1セル（日、週表示では日×時間）を表す。
// 投影のたびに全セルが再計算される導出値であり、永続化されない。
type Cell struct {
	Date          time.Time
	Hour          int // 0-23（週表示）、NoHour（月表示）
	Posts         []model.Post
	IsToday       bool
	IsCurrentHour bool
}

// ExclusionReason は投稿がグリッドから除外された理由を表す。
type ExclusionReason string

const (
	// ReasonInvalidTimestamp は予約日時が解析できなかったことを示す。
	ReasonInvalidTimestamp ExclusionReason = "invalid_timestamp"
	// ReasonOutOfRange は予約日時が表示範囲外であることを示す。
	ReasonOutOfRange ExclusionReason = "out_of_range"
)

// Exclusion はグリッドに含まれなかった投稿とその理由を表す。
// いずれの理由も致命的エラーではなく、観測可能性のための情報として返す。
type Exclusion struct {
	PostID string
	Reason ExclusionReason
}

// Project は投稿リストをタイムグリッドへ投影する。
// 各投稿は高々1つのセルに割り当てられる:
// 週表示では表示タイムゾーンでの暦日と時間帯が一致するセル、
// 月表示では暦日が一致するセルに入る。
// セル内の投稿順は入力順をそのまま維持する（フェッチ層の順序が正）。
// 表示範囲外の投稿はReasonOutOfRangeとして除外リストに報告される。
// nowが表示範囲に含まれる場合、ちょうど1日がIsToday=trueになり、
// 週表示ではその日の現在時間帯のセルがIsCurrentHour=trueになる。
// 入力が空でもエラーにはならず、全セルの投稿リストが空のグリッドを返す。
func Project(posts []model.Post, ref time.Time, mode ViewMode, now time.Time, loc *time.Location) ([]Cell, []Exclusion) {
	days := DayRange(ref, mode, loc)
	now = now.In(loc)

	cellsPerDay := 1
	if mode == ViewModeWeek {
		cellsPerDay = 24
	}

	cells := make([]Cell, 0, len(days)*cellsPerDay)
	dayIndex := make(map[string]int, len(days))
	for i, d := range days {
		dayIndex[dayKey(d)] = i
		isToday := sameDay(d, now)
		if mode == ViewModeWeek {
			for h := 0; h < 24; h++ {
				cells = append(cells, Cell{
					Date:          d,
					Hour:          h,
					IsToday:       isToday,
					IsCurrentHour: isToday && h == now.Hour(),
				})
			}
		} else {
			cells = append(cells, Cell{
				Date:    d,
				Hour:    NoHour,
				IsToday: isToday,
			})
		}
	}

	var excluded []Exclusion
	for _, p := range posts {
		t := p.ScheduledTime.In(loc)
		i, ok := dayIndex[dayKey(t)]
		if !ok {
			excluded = append(excluded, Exclusion{PostID: p.ID, Reason: ReasonOutOfRange})
			continue
		}
		idx := i * cellsPerDay
		if mode == ViewModeWeek {
			idx += t.Hour()
		}
		cells[idx].Posts = append(cells[idx].Posts, p)
	}

	return cells, excluded
}

// dayKey は暦日をバケッティング用のキー文字列に変換する。
func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
