package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/foodgram/internal/model"
)

// MembershipServiceInterface はお気に入り・買い物かごハンドラーが必要とするサービスインターフェース。
type MembershipServiceInterface interface {
	// Add はレシピを追加し、短縮レシピ表現を返す。
	Add(ctx context.Context, kind model.MembershipKind, userID, recipeID string) (*recipeShortResponse, error)
	// Remove はレシピを取り除く。
	Remove(ctx context.Context, kind model.MembershipKind, userID, recipeID string) error
}

// MembershipHandler はお気に入り・買い物かごのHTTPハンドラー。
// 同じハンドラーをkindごとにルーティングする。
type MembershipHandler struct {
	service MembershipServiceInterface
}

// NewMembershipHandler はMembershipHandlerを生成する。
func NewMembershipHandler(service MembershipServiceInterface) *MembershipHandler {
	return &MembershipHandler{service: service}
}

// Add はレシピをお気に入りまたは買い物かごに追加するハンドラーを返す。
// POST /api/recipes/{id}/favorite, POST /api/recipes/{id}/shopping_cart
func (h *MembershipHandler) Add(kind model.MembershipKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}

		resp, err := h.service.Add(r.Context(), kind, userID, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, resp)
	}
}

// Remove はレシピをお気に入りまたは買い物かごから取り除くハンドラーを返す。
// DELETE /api/recipes/{id}/favorite, DELETE /api/recipes/{id}/shopping_cart
func (h *MembershipHandler) Remove(kind model.MembershipKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}

		if err := h.service.Remove(r.Context(), kind, userID, chi.URLParam(r, "id")); err != nil {
			handleServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
