package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/foodgram/internal/middleware"
)

// RecipeServiceInterface はレシピハンドラーが必要とするサービスインターフェース。
type RecipeServiceInterface interface {
	// List は条件に一致するレシピ一覧を返す。viewerIDが空の場合は匿名として扱う。
	List(ctx context.Context, viewerID string, params recipeListParams) (*listResult[recipeResponse], error)
	// Get はレシピ詳細を返す。
	Get(ctx context.Context, viewerID, recipeID string) (*recipeResponse, error)
	// Create はレシピを作成する。
	Create(ctx context.Context, authorID string, req recipeRequest) (*recipeResponse, error)
	// Update はレシピを全項目置き換えで更新する。投稿者本人または管理者のみ。
	Update(ctx context.Context, actorID, recipeID string, req recipeRequest) (*recipeResponse, error)
	// Delete はレシピを削除する。投稿者本人または管理者のみ。
	Delete(ctx context.Context, actorID, recipeID string) error
}

// RecipeHandler はレシピのHTTPハンドラー。
type RecipeHandler struct {
	service RecipeServiceInterface
	baseURL string
}

// NewRecipeHandler はRecipeHandlerを生成する。
// baseURLはページングのnext/previousリンクの生成に使う。
func NewRecipeHandler(service RecipeServiceInterface, baseURL string) *RecipeHandler {
	return &RecipeHandler{
		service: service,
		baseURL: baseURL,
	}
}

// listResult はサービス層から返されるページング済みの一覧。
type listResult[T any] struct {
	Count       int
	Page        int
	HasNext     bool
	HasPrevious bool
	Results     []T
}

// recipeListParams はレシピ一覧のクエリパラメータ。
type recipeListParams struct {
	AuthorID         string
	TagSlugs         []string
	IsFavorited      bool
	IsInShoppingCart bool
	Page             int
	Limit            int
}

// recipeIngredientRequest はレシピ作成・更新リクエスト内の食材と分量。
type recipeIngredientRequest struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

// recipeRequest はレシピ作成・更新リクエストのボディ。
type recipeRequest struct {
	Ingredients []recipeIngredientRequest `json:"ingredients"`
	Tags        []int64                   `json:"tags"`
	Image       string                    `json:"image"`
	Name        string                    `json:"name"`
	Text        string                    `json:"text"`
	CookingTime int                       `json:"cooking_time"`
}

// recipeIngredientResponse はレシピに含まれる食材のAPIレスポンス。
type recipeIngredientResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// recipeResponse はレシピ詳細のAPIレスポンス。
type recipeResponse struct {
	ID               string                     `json:"id"`
	Tags             []tagResponse              `json:"tags"`
	Author           userResponse               `json:"author"`
	Ingredients      []recipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
	PubDate          time.Time                  `json:"pub_date"`
}

// recipeShortResponse はお気に入り・買い物かご・フォロー一覧で使う短縮レシピ表現。
type recipeShortResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// ListRecipes はレシピ一覧を取得する。
// GET /api/recipes?author=&tags=&is_favorited=&is_in_shopping_cart=&page=&limit=
func (h *RecipeHandler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := recipeListParams{
		AuthorID:         q.Get("author"),
		TagSlugs:         q["tags"],
		IsFavorited:      queryFlag(q, "is_favorited"),
		IsInShoppingCart: queryFlag(q, "is_in_shopping_cart"),
		Page:             queryInt(q, "page"),
		Limit:            queryInt(q, "limit"),
	}

	result, err := h.service.List(r.Context(), middleware.OptionalUserIDFromContext(r.Context()), params)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	next, previous := pageLinks(h.baseURL, r, result.Page, result.HasNext, result.HasPrevious)
	writeJSON(w, http.StatusOK, pageResponse[recipeResponse]{
		Count:    result.Count,
		Next:     next,
		Previous: previous,
		Results:  result.Results,
	})
}

// GetRecipe はレシピ詳細を取得する。
// GET /api/recipes/{id}
func (h *RecipeHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	recipeID := chi.URLParam(r, "id")

	resp, err := h.service.Get(r.Context(), middleware.OptionalUserIDFromContext(r.Context()), recipeID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateRecipe はレシピを作成する。
// POST /api/recipes
func (h *RecipeHandler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req recipeRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	resp, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// UpdateRecipe はレシピを更新する。
// PATCH /api/recipes/{id}
func (h *RecipeHandler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	recipeID := chi.URLParam(r, "id")

	var req recipeRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	resp, err := h.service.Update(r.Context(), userID, recipeID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// DeleteRecipe はレシピを削除する。
// DELETE /api/recipes/{id}
func (h *RecipeHandler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
