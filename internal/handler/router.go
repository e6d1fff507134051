package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/recruitboard/internal/metrics"
	"github.com/hitoshi/recruitboard/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector

	// 運用
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// ドメイン
	TaskService     TaskServiceInterface
	ActionService   ActionServiceInterface
	SettingsService SettingsServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Logging → Recovery → SecurityHeaders → CORS → Session → RateLimit → CSRF
//
// /health, /metrics, /api/csrf-token はセッション不要。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	taskHandler := NewTaskHandler(deps.TaskService, deps.Metrics, logger)
	actionHandler := NewActionHandler(deps.ActionService)
	settingsHandler := NewSettingsHandler(deps.ActionService, deps.SettingsService)

	// --- 認証不要のルート ---
	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker))
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.Middleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		r.Get("/api/company/tasks", taskHandler.GetTasks)

		r.Route("/api/company/settings/{key}", func(r chi.Router) {
			r.Get("/", settingsHandler.GetSetting)
			r.Put("/", settingsHandler.PutSetting)
		})

		r.Post("/api/messages/{id}/read", actionHandler.MarkMessageRead)

		r.Route("/api/applications/{id}", func(r chi.Router) {
			r.Post("/responded", actionHandler.MarkApplicationResponded)
			r.Put("/interview-result", actionHandler.RecordInterviewResult)
		})
	})

	return r
}
