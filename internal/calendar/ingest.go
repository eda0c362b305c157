package calendar

import (
	"time"

	"github.com/hitoshi/postdeck/internal/model"
)

// RawPost はフェッチ層から届く未解析の予約投稿レコードを表す。
// 予約日時は境界をISO-8601文字列として越えてくるため、
// 投影前にIngestで1回だけ解析する。
type RawPost struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	Content       string `json:"content"`
	PostType      string `json:"post_type"`
	ScheduledTime string `json:"scheduled_time"`
	Status        string `json:"status"`
}

// Ingest は未解析レコードをドメインモデルに変換する。
// 予約日時が解析できないレコードはReasonInvalidTimestampとして
// 除外リストに報告され、どのセルにも割り当てられない
// （不正な日時を任意のセルに黙って割り当てることはしない）。
// statusは未知の値でもそのまま保持する（表示側がデフォルト表示として扱う）。
func Ingest(records []RawPost) ([]model.Post, []Exclusion) {
	posts := make([]model.Post, 0, len(records))
	var excluded []Exclusion

	for _, r := range records {
		t, err := time.Parse(time.RFC3339, r.ScheduledTime)
		if err != nil {
			excluded = append(excluded, Exclusion{PostID: r.ID, Reason: ReasonInvalidTimestamp})
			continue
		}
		posts = append(posts, model.Post{
			ID:            r.ID,
			UserID:        r.UserID,
			Content:       r.Content,
			PostType:      model.PostType(r.PostType),
			ScheduledTime: t,
			Status:        model.PostStatus(r.Status),
		})
	}

	return posts, excluded
}
