package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/foodgram/internal/catalog"
	"github.com/hitoshi/foodgram/internal/config"
	"github.com/hitoshi/foodgram/internal/database"
	"github.com/hitoshi/foodgram/internal/handler"
	"github.com/hitoshi/foodgram/internal/logger"
	"github.com/hitoshi/foodgram/internal/membership"
	"github.com/hitoshi/foodgram/internal/metrics"
	"github.com/hitoshi/foodgram/internal/middleware"
	"github.com/hitoshi/foodgram/internal/recipe"
	"github.com/hitoshi/foodgram/internal/repository"
	"github.com/hitoshi/foodgram/internal/security"
	"github.com/hitoshi/foodgram/internal/shoppinglist"
	"github.com/hitoshi/foodgram/internal/subscription"
	"github.com/hitoshi/foodgram/internal/user"
	"github.com/hitoshi/foodgram/internal/worker/cleanup"
)

// ErrMissingImportSource はimport-ingredientsコマンドにインポート元が指定されていない場合のエラー。
var ErrMissingImportSource = errors.New("import-ingredients requires a source path or URL")

// Init はアプリケーションの初期化を行う。
// 環境変数（と.envファイル）からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再初期化する
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

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

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandImportIngredients:
		source := CommandArg(args)
		if source == "" {
			return ErrMissingImportSource
		}
		return runImportIngredients(cfg, source)
	default:
		return runServe(cfg)
	}
}

// openDB はDB接続を開き、疎通を確認する。
func openDB(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL, database.DefaultPoolConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// buildRouter は全依存関係をワイヤリングし、APIのhttp.Handlerを構築する。
// 戻り値の関数はレートリミッターのバックグラウンド処理を停止する。
func buildRouter(cfg *config.Config, db *sql.DB, reg prometheus.Registerer, gatherer prometheus.Gatherer) (http.Handler, func(), error) {
	// 1. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	ingredientRepo := repository.NewPostgresIngredientRepo(db)
	tagRepo := repository.NewPostgresTagRepo(db)
	recipeRepo := repository.NewPostgresRecipeRepo(db)
	membershipRepo := repository.NewPostgresMembershipRepo(db)
	subRepo := repository.NewPostgresSubscriptionRepo(db)

	// 2. メトリクス
	collector := metrics.NewCollector(reg)

	// 3. ドメインサービスの初期化
	catalogService, err := catalog.NewService(ingredientRepo, tagRepo, cfg.CatalogCacheSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create catalog service: %w", err)
	}

	recipeService := recipe.NewService(
		recipeRepo, userRepo, membershipRepo, subRepo,
		catalogService, security.NewTextSanitizer(),
	)
	recipeService.SetPageSize(cfg.PageSize, cfg.MaxPageSize)

	membershipService := membership.NewService(recipeRepo, membershipRepo, collector)
	shoppingListService := shoppinglist.NewService(membershipRepo, recipeRepo)

	subService := subscription.NewService(subRepo, userRepo, recipeRepo)
	subService.SetPageSize(cfg.PageSize, cfg.MaxPageSize)

	userService := user.NewService(userRepo, sessionRepo, subRepo)

	// 4. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitWrite),
	)

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		SessionFinder:     sessionRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		RateLimiter:     rateLimiter,
		PublicRateLimit: cfg.RateLimitPublic,
		HTTPMetrics:     collector,
		MetricsHandler:  metrics.Handler(gatherer),
		DB:              db,
		BaseURL:         cfg.BaseURL,

		RecipeService:       handler.NewRecipeServiceAdapter(recipeService),
		MembershipService:   handler.NewMembershipServiceAdapter(membershipService),
		ShoppingListService: handler.NewShoppingListServiceAdapter(shoppingListService),
		ShoppingListMetrics: collector,

		CatalogService: handler.NewCatalogServiceAdapter(catalogService),

		UserService:         handler.NewUserServiceAdapter(userService),
		SubscriptionService: handler.NewSubscriptionServiceAdapter(subService),
	}

	return handler.NewRouter(deps), rateLimiter.Stop, nil
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	router, stopLimiter, err := buildRouter(cfg, db, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	if err != nil {
		return err
	}
	defer stopLimiter()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、期限切れセッションのクリーンアップを定期実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cleanupJob := cleanup.NewSessionCleanupJob(db, slog.Default())

	slog.Info("worker starting",
		slog.Duration("session_cleanup_interval", cfg.SessionCleanupInterval),
	)

	// クリーンアップジョブをメインgoroutineで実行（ブロッキング）
	cleanupJob.Start(ctx, cfg.SessionCleanupInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runImportIngredients はCSVファイルまたはURLから食材カタログを取り込む。
func runImportIngredients(cfg *config.Config, source string) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	importer := catalog.NewImporter(
		repository.NewPostgresIngredientRepo(db),
		security.NewSSRFGuard(cfg.ImportTimeout, cfg.ImportMaxSize),
		metrics.NewCollector(prometheus.DefaultRegisterer),
		slog.Default(),
	)

	if _, err := importer.ImportSource(ctx, source); err != nil {
		return fmt.Errorf("ingredient import failed: %w", err)
	}
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
