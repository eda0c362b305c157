package calendar

import "time"

// DayRange は基準日と表示モードから表示対象の日付列を計算する。
// 週表示: 基準日以前で直近の日曜日から始まる連続7日間。
// 月表示: 基準日を含む月の全日を、前後とも完全な週になるよう
// 隣接月の日付で拡張した列（常に7の倍数の日数になる）。
// 返される日付列は表示タイムゾーンの深夜0時に正規化され、
// 隙間も重複もない狭義単調増加の列となる。
func DayRange(ref time.Time, mode ViewMode, loc *time.Location) []time.Time {
	ref = ref.In(loc)

	var start, end time.Time
	switch mode {
	case ViewModeMonth:
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, loc)
		last := first.AddDate(0, 1, -1)
		start = startOfWeek(first)
		end = time.Date(last.Year(), last.Month(), last.Day()+(6-int(last.Weekday())), 0, 0, 0, 0, loc)
	default:
		start = startOfWeek(ref)
		end = time.Date(start.Year(), start.Month(), start.Day()+6, 0, 0, 0, 0, loc)
	}

	var days []time.Time
	for i := 0; ; i++ {
		d := time.Date(start.Year(), start.Month(), start.Day()+i, 0, 0, 0, 0, loc)
		if d.After(end) {
			break
		}
		days = append(days, d)
	}
	return days
}

// ShiftReference は基準日を1表示単位分だけ前後に移動する。
// 週表示はちょうど7日、月表示は同日付のまま前後の月に移動する。
// 月表示で移動先の月に同じ日が存在しない場合（例: 1月31日→2月）は
// 移動先の月の1日に丸める。
func ShiftReference(ref time.Time, mode ViewMode, dir Direction) time.Time {
	delta := 1
	if dir == DirectionPrev {
		delta = -1
	}

	if mode == ViewModeMonth {
		// AddDateの日付正規化による月のスキップを避けるため、
		// 月初を基準に移動してから日を戻す
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		shifted := first.AddDate(0, delta, 0)
		day := ref.Day()
		if last := shifted.AddDate(0, 1, -1).Day(); day > last {
			day = 1
		}
		return time.Date(shifted.Year(), shifted.Month(), day, 0, 0, 0, 0, ref.Location())
	}

	return ref.AddDate(0, 0, 7*delta)
}

// startOfWeek は指定日以前で直近の日曜日（深夜0時）を返す。
func startOfWeek(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()-int(t.Weekday()), 0, 0, 0, 0, t.Location())
}

// sameDay は2つの時刻が同一タイムゾーン上で同じ暦日かを判定する。
func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
