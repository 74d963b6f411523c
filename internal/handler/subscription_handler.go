package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SubscriptionServiceInterface はフォローハンドラーが必要とするサービスインターフェース。
type SubscriptionServiceInterface interface {
	// List はフォローしている投稿者の一覧を返す。recipesLimitが0の場合はレシピ件数を制限しない。
	List(ctx context.Context, userID string, recipesLimit, page, limit int) (*listResult[authorResponse], error)
	// Subscribe は投稿者をフォローする。
	Subscribe(ctx context.Context, userID, authorID string, recipesLimit int) (*authorResponse, error)
	// Unsubscribe は投稿者のフォローを解除する。
	Unsubscribe(ctx context.Context, userID, authorID string) error
}

// SubscriptionHandler は投稿者フォローのHTTPハンドラー。
type SubscriptionHandler struct {
	service SubscriptionServiceInterface
	baseURL string
}

// NewSubscriptionHandler はSubscriptionHandlerを生成する。
func NewSubscriptionHandler(service SubscriptionServiceInterface, baseURL string) *SubscriptionHandler {
	return &SubscriptionHandler{
		service: service,
		baseURL: baseURL,
	}
}

// authorResponse はフォロー中の投稿者のAPIレスポンス。
type authorResponse struct {
	ID           string                `json:"id"`
	Email        string                `json:"email"`
	Username     string                `json:"username"`
	FirstName    string                `json:"first_name"`
	LastName     string                `json:"last_name"`
	IsSubscribed bool                  `json:"is_subscribed"`
	Recipes      []recipeShortResponse `json:"recipes"`
	RecipesCount int                   `json:"recipes_count"`
}

// ListSubscriptions はフォロー中の投稿者一覧を取得する。
// GET /api/users/subscriptions?recipes_limit=&page=&limit=
func (h *SubscriptionHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	result, err := h.service.List(r.Context(), userID,
		queryInt(q, "recipes_limit"), queryInt(q, "page"), queryInt(q, "limit"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	next, previous := pageLinks(h.baseURL, r, result.Page, result.HasNext, result.HasPrevious)
	writeJSON(w, http.StatusOK, pageResponse[authorResponse]{
		Count:    result.Count,
		Next:     next,
		Previous: previous,
		Results:  result.Results,
	})
}

// Subscribe は投稿者をフォローする。
// POST /api/users/{id}/subscribe?recipes_limit=
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Subscribe(r.Context(), userID, chi.URLParam(r, "id"),
		queryInt(r.URL.Query(), "recipes_limit"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Unsubscribe は投稿者のフォローを解除する。
// DELETE /api/users/{id}/subscribe
func (h *SubscriptionHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Unsubscribe(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
