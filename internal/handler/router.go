package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/postdeck/internal/middleware"
)

// HealthChecker はDB疎通確認のためのインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// SetupAuthRoutes は認証関連のルーティングを設定したchi.Routerを返す。
func SetupAuthRoutes(service AuthServiceInterface, config AuthHandlerConfig) http.Handler {
	r := chi.NewRouter()
	h := NewAuthHandler(service, config)

	r.Route("/auth", func(r chi.Router) {
		// OAuthフロー
		r.Get("/google/login", h.Login)
		r.Get("/google/callback", h.Callback)

		// セッション管理
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
	})

	return r
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig

	// MetricsHandler はPrometheusスクレイプ用ハンドラー。nilの場合は/metricsを公開しない。
	MetricsHandler http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 投稿・カレンダー
	PostService     PostServiceInterface
	DisplayTimezone *time.Location

	// 生成・テンプレート
	GenerationService GenerationServiceInterface
	TemplateService   TemplateServiceInterface

	// ネタ提案
	InspireService InspireServiceInterface

	// ユーザー
	UserService UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → Session → CSRF → RateLimit(General)
//
// 認証ルート（/auth/*）とヘルスチェックはセッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通のミドルウェア
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	postHandler := NewPostHandler(deps.PostService)
	calendarHandler := NewCalendarHandler(deps.PostService, deps.DisplayTimezone)
	generateHandler := NewGenerateHandler(deps.GenerationService, deps.TemplateService)
	templateHandler := NewTemplateHandler(deps.TemplateService)
	inspireHandler := NewInspireHandler(deps.InspireService)
	userHandler := NewUserHandler(deps.UserService)

	// --- 認証不要のルート ---

	// ヘルスチェック（Dockerヘルスチェック・死活監視用）
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(r.Context()); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	// メトリクス（Prometheusスクレイプ用）
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// CSRFトークン取得（フロントエンドが状態変更リクエスト前に取得する）
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// 認証ルート（OAuthフロー）
	r.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.Login)
		r.Get("/google/callback", authHandler.Callback)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 投稿管理
		r.Route("/api/posts", func(r chi.Router) {
			r.Get("/", postHandler.ListPosts)
			r.Post("/", postHandler.CreatePost)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", postHandler.GetPost)
				r.Patch("/", postHandler.UpdatePost)
				r.Delete("/", postHandler.DeletePost)

				// POST /api/posts/{id}/retry - 失敗投稿の再予約
				r.Post("/retry", postHandler.RetryPost)
			})
		})

		// カレンダー投影
		r.Get("/api/calendar", calendarHandler.GetCalendar)

		// 投稿生成（生成専用レート制限を追加）
		r.With(deps.RateLimiter.GenerationMiddleware()).Post("/api/generate", generateHandler.Generate)

		// テンプレート
		r.Route("/api/templates", func(r chi.Router) {
			r.Get("/", templateHandler.ListTemplates)
			r.Get("/{id}", templateHandler.GetTemplate)
		})

		// ネタ提案
		r.Post("/api/inspiration", inspireHandler.Suggest)

		// ユーザー管理
		r.Route("/api/users/me", func(r chi.Router) {
			r.Delete("/", userHandler.Withdraw)

			// LinkedIn連携
			r.Route("/linkedin", func(r chi.Router) {
				r.Get("/", userHandler.GetLinkedInConnection)
				r.Put("/", userHandler.ConnectLinkedIn)
				r.Delete("/", userHandler.DisconnectLinkedIn)
			})
		})
	})

	return r
}
