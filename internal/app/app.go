package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/recruitboard/internal/action"
	"github.com/hitoshi/recruitboard/internal/cache"
	"github.com/hitoshi/recruitboard/internal/clock"
	"github.com/hitoshi/recruitboard/internal/config"
	"github.com/hitoshi/recruitboard/internal/database"
	"github.com/hitoshi/recruitboard/internal/handler"
	"github.com/hitoshi/recruitboard/internal/logger"
	"github.com/hitoshi/recruitboard/internal/metrics"
	"github.com/hitoshi/recruitboard/internal/middleware"
	"github.com/hitoshi/recruitboard/internal/notify"
	"github.com/hitoshi/recruitboard/internal/permission"
	"github.com/hitoshi/recruitboard/internal/repository"
	"github.com/hitoshi/recruitboard/internal/security"
	"github.com/hitoshi/recruitboard/internal/settings"
	"github.com/hitoshi/recruitboard/internal/task"
	"github.com/hitoshi/recruitboard/internal/worker/cleanup"
	"github.com/hitoshi/recruitboard/internal/worker/digest"
)

const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// .envと環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, "info")

	// 2. .envを読み込んでから環境変数を解釈する
	if err := config.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再セットアップ
	logger.SetupDefault(w, cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandWorker:
		return runWorker(ctx, cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	db, err := database.Open(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// newRegistry はアプリケーション用のPrometheusレジストリとコレクターを生成する。
func newRegistry() (*prometheus.Registry, *metrics.Collector) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, metrics.NewCollector(reg)
}

// services はserve/workerの両モードで共有するドメインサービス群。
type services struct {
	sessions *repository.PostgresSessionRepo
	resolver *permission.Resolver
	tasks    *task.Service
	actions  *action.Service
	settings *settings.Service
	guard    *security.SSRFGuard
}

// buildServices はリポジトリからドメインサービスまでを組み立てる。
func buildServices(db *sqlx.DB, cfg *config.Config, mc metrics.MetricsCollector, log *slog.Logger) (*services, error) {
	clk := clock.Real{}

	// 1. リポジトリの初期化
	sessionRepo := repository.NewPostgresSessionRepo(db)
	companyUserRepo := repository.NewPostgresCompanyUserRepo(db)
	permissionRepo := repository.NewPostgresPermissionRepo(db)
	taskRepo := repository.NewPostgresTaskRepo(db)
	applicationRepo := repository.NewPostgresApplicationRepo(db)
	messageRepo := repository.NewPostgresMessageRepo(db)
	settingsRepo := repository.NewPostgresSettingsRepo(db)

	// 2. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewPreviewSanitizer()

	// 3. 設定キャッシュの初期化
	settingsCache, err := cache.NewTTLCache[settings.Entry](cfg.SettingsCacheSize, clk)
	if err != nil {
		return nil, fmt.Errorf("failed to create settings cache: %w", err)
	}

	// 4. ドメインサービスの初期化
	resolver := permission.NewResolver(permissionRepo, log)
	fetcher := task.NewFetcher(taskRepo, mc, log)

	return &services{
		sessions: sessionRepo,
		resolver: resolver,
		tasks:    task.NewService(companyUserRepo, resolver, fetcher, clk, sanitizer, mc, log),
		actions:  action.NewService(companyUserRepo, resolver, applicationRepo, messageRepo, clk, log),
		settings: settings.NewService(settingsRepo, settingsCache, cfg.SettingsCacheTTL, clk, ssrfGuard, log),
		guard:    ssrfGuard,
	}, nil
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	db, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	log := slog.Default()
	reg, mc := newRegistry()

	svc, err := buildServices(db, cfg, mc, log)
	if err != nil {
		return err
	}

	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral))
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		SessionFinder:     svc.sessions,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		CSRFConfig:        middleware.CSRFConfig{CookieSecure: cfg.CookieSecure},
		Logger:            log,
		Metrics:           mc,

		HealthChecker:  db,
		MetricsHandler: metrics.SetupMetricsRoute(reg),

		TaskService:     svc.tasks,
		ActionService:   svc.actions,
		SettingsService: svc.settings,
	})

	server := newHTTPServer(cfg.ServerPort, router)
	return serveUntilDone(ctx, server, "API server")
}

// runWorker はワーカーモードで起動する。
// ダイジェスト通知スケジューラとセッションクリーンアップジョブを起動し、
// /health と /metrics のみを公開する。
func runWorker(ctx context.Context, cfg *config.Config) error {
	db, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	log := slog.Default()
	reg, mc := newRegistry()

	svc, err := buildServices(db, cfg, mc, log)
	if err != nil {
		return err
	}

	// 1. ダイジェスト通知スケジューラの初期化
	webhookClient := notify.NewClient(svc.guard.NewSafeClient(cfg.DigestTimeout), log)
	scheduler := digest.NewScheduler(
		svc.settings, svc.resolver, svc.tasks, webhookClient,
		clock.Real{}, mc, log, cfg.DigestMaxConcurrent, cfg.DigestTimeout,
	)

	// 2. クリーンアップジョブの初期化
	cleanupJob := cleanup.NewCleanupJob(svc.sessions, mc, log)

	slog.Info("worker starting",
		slog.Duration("digest_interval", cfg.DigestInterval),
		slog.Int("max_concurrent", cfg.DigestMaxConcurrent),
		slog.Duration("session_cleanup_interval", cfg.SessionCleanupInterval),
	)

	// 3. 運用エンドポイント
	mux := http.NewServeMux()
	mux.Handle("GET /health", handler.NewHealthHandler(db))
	mux.Handle("GET /metrics", metrics.SetupMetricsRoute(reg))
	server := newHTTPServer(cfg.ServerPort, mux)

	jobCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		cleanupJob.Start(jobCtx, cfg.SessionCleanupInterval)
	}()
	go func() {
		defer wg.Done()
		scheduler.Start(jobCtx, cfg.DigestInterval)
	}()

	err = serveUntilDone(ctx, server, "worker")
	cancel()
	wg.Wait()

	slog.Info("worker stopped gracefully")
	return err
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
	return nil
}

func newHTTPServer(port string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// serveUntilDone はHTTPサーバーを起動し、ctxのキャンセルでシャットダウンする。
func serveUntilDone(ctx context.Context, server *http.Server, name string) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info(name+" listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("%s listen error: %w", name, err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down " + name + "...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s shutdown failed: %w", name, err)
	}

	slog.Info(name + " stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
