package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/foodgram/internal/middleware"
	"github.com/hitoshi/foodgram/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter
	PublicRateLimit   int // 匿名アクセス可能なルートのIPごとの上限（リクエスト/分）
	HTTPMetrics       middleware.HTTPMetricsRecorder
	MetricsHandler    http.Handler
	DB                Pinger

	// ページングリンクの生成に使う外部公開URL
	BaseURL string

	// レシピ
	RecipeService       RecipeServiceInterface
	MembershipService   MembershipServiceInterface
	ShoppingListService ShoppingListServiceInterface
	ShoppingListMetrics ShoppingListRecorder

	// 食材・タグ
	CatalogService CatalogServiceInterface

	// ユーザー・フォロー
	UserService         UserServiceInterface
	SubscriptionService SubscriptionServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders → CORS
//	  公開ルート: PublicRateLimit → OptionalSession → RateLimit(General)
//	  認証ルート: Session → CSRF → RateLimit(General) → RateLimit(Write)
//
// /health、/metrics、/api/csrf-token はセッションを必要としない。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	// CORS ミドルウェアは最上位に適用（未定義ルートへのプリフライトにも効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeAPIErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:     "NOT_FOUND",
			Message:  "指定されたリソースが見つかりません。",
			Category: "system",
			Action:   "URLを確認してください。",
		})
	})

	if deps.DB != nil {
		r.Get("/health", NewHealthHandler(deps.DB))
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	recipeHandler := NewRecipeHandler(deps.RecipeService, deps.BaseURL)
	membershipHandler := NewMembershipHandler(deps.MembershipService)
	shoppingListHandler := NewShoppingListHandler(deps.ShoppingListService, deps.ShoppingListMetrics)
	catalogHandler := NewCatalogHandler(deps.CatalogService)
	userHandler := NewUserHandler(deps.UserService)
	subHandler := NewSubscriptionHandler(deps.SubscriptionService, deps.BaseURL)

	// CSRFトークン取得（認証不要）
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// --- 匿名アクセス可能なルート ---
	// ミドルウェアスタック: PublicRateLimit → OptionalSession → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewPublicRateLimitMiddleware(deps.PublicRateLimit))
		r.Use(middleware.NewOptionalSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/api/recipes", recipeHandler.ListRecipes)
		r.Get("/api/recipes/{id}", recipeHandler.GetRecipe)

		r.Get("/api/ingredients", catalogHandler.ListIngredients)
		r.Get("/api/ingredients/{id}", catalogHandler.GetIngredient)
		r.Get("/api/tags", catalogHandler.ListTags)
		r.Get("/api/tags/{id}", catalogHandler.GetTag)

		r.Get("/api/users/{id}", userHandler.GetUser)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General) → RateLimit(Write)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(deps.RateLimiter.WriteMiddleware())

		// レシピ管理
		r.Post("/api/recipes", recipeHandler.CreateRecipe)
		r.Get("/api/recipes/download_shopping_cart", shoppingListHandler.Download)
		r.Patch("/api/recipes/{id}", recipeHandler.UpdateRecipe)
		r.Delete("/api/recipes/{id}", recipeHandler.DeleteRecipe)

		// お気に入り・買い物かご
		r.Post("/api/recipes/{id}/shopping_cart", membershipHandler.Add(model.MembershipShoppingCart))
		r.Delete("/api/recipes/{id}/shopping_cart", membershipHandler.Remove(model.MembershipShoppingCart))
		r.Post("/api/recipes/{id}/favorite", membershipHandler.Add(model.MembershipFavorite))
		r.Delete("/api/recipes/{id}/favorite", membershipHandler.Remove(model.MembershipFavorite))

		// ユーザー管理
		r.Get("/api/users/me", userHandler.Me)
		r.Delete("/api/users/me", userHandler.Withdraw)
		r.Get("/api/users/subscriptions", subHandler.ListSubscriptions)
		r.Post("/api/users/{id}/subscribe", subHandler.Subscribe)
		r.Delete("/api/users/{id}/subscribe", subHandler.Unsubscribe)
	})

	return r
}
