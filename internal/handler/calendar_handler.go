package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/postdeck/internal/calendar"
	"github.com/hitoshi/postdeck/internal/middleware"
	"github.com/hitoshi/postdeck/internal/model"
)

// CalendarHandler はカレンダー投影のHTTPハンドラー。
// ユーザーの全投稿を取得し、週/月のタイムグリッドへ投影して返す。
type CalendarHandler struct {
	service PostServiceInterface
	// location はグリッドの日付・時間境界の計算に使う固定表示タイムゾーン。
	location *time.Location
	// now はテストで現在時刻を固定するためのフック。
	now func() time.Time
}

// NewCalendarHandler はCalendarHandlerを生成する。
func NewCalendarHandler(service PostServiceInterface, location *time.Location) *CalendarHandler {
	if location == nil {
		location = time.UTC
	}
	return &CalendarHandler{
		service:  service,
		location: location,
		now:      time.Now,
	}
}

// calendarCellResponse はタイムグリッド1セルのAPIレスポンス。
// Hourは週表示では0-23、月表示では省略される。
type calendarCellResponse struct {
	Date          string         `json:"date"`
	Hour          *int           `json:"hour,omitempty"`
	Posts         []postResponse `json:"posts"`
	IsToday       bool           `json:"is_today"`
	IsCurrentHour bool           `json:"is_current_hour,omitempty"`
}

// calendarExclusionResponse はグリッドに含まれなかった投稿のAPIレスポンス。
type calendarExclusionResponse struct {
	PostID string `json:"post_id"`
	Reason string `json:"reason"`
}

// calendarNavigationResponse は前後の週/月への移動用基準日。
type calendarNavigationResponse struct {
	Prev  string `json:"prev"`
	Next  string `json:"next"`
	Today string `json:"today"`
}

// calendarResponse はカレンダー投影のAPIレスポンス。
type calendarResponse struct {
	View       string                      `json:"view"`
	Date       string                      `json:"date"`
	Cells      []calendarCellResponse      `json:"cells"`
	Excluded   []calendarExclusionResponse `json:"excluded"`
	Navigation calendarNavigationResponse  `json:"navigation"`
}

// GetCalendar はユーザーの予約投稿をタイムグリッドへ投影して返す。
// GET /api/calendar?date=YYYY-MM-DD&view=week|month
// dateを省略した場合は表示タイムゾーンでの今日、viewを省略した場合は週表示になる。
func (h *CalendarHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	now := h.now().In(h.location)

	viewParam := r.URL.Query().Get("view")
	if viewParam == "" {
		viewParam = string(calendar.ViewModeWeek)
	}
	mode, err := calendar.ParseViewMode(viewParam)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	ref := now
	if dateParam := r.URL.Query().Get("date"); dateParam != "" {
		parsed, err := time.ParseInLocation("2006-01-02", dateParam, h.location)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
				Code:     "INVALID_DATE",
				Message:  "日付の形式が正しくありません。",
				Category: "validation",
				Action:   "YYYY-MM-DD形式で指定してください。",
			})
			return
		}
		ref = parsed
	}

	posts, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	cells, excluded := calendar.Project(posts, ref, mode, now, h.location)

	resp := calendarResponse{
		View:     string(mode),
		Date:     ref.Format("2006-01-02"),
		Cells:    make([]calendarCellResponse, len(cells)),
		Excluded: make([]calendarExclusionResponse, len(excluded)),
		Navigation: calendarNavigationResponse{
			Prev:  calendar.ShiftReference(ref, mode, calendar.DirectionPrev).Format("2006-01-02"),
			Next:  calendar.ShiftReference(ref, mode, calendar.DirectionNext).Format("2006-01-02"),
			Today: now.Format("2006-01-02"),
		},
	}

	for i, cell := range cells {
		cr := calendarCellResponse{
			Date:          cell.Date.Format("2006-01-02"),
			Posts:         make([]postResponse, len(cell.Posts)),
			IsToday:       cell.IsToday,
			IsCurrentHour: cell.IsCurrentHour,
		}
		if cell.Hour != calendar.NoHour {
			hour := cell.Hour
			cr.Hour = &hour
		}
		for j := range cell.Posts {
			cr.Posts[j] = toPostResponse(&cell.Posts[j])
		}
		resp.Cells[i] = cr
	}

	for i, ex := range excluded {
		resp.Excluded[i] = calendarExclusionResponse{
			PostID: ex.PostID,
			Reason: string(ex.Reason),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
