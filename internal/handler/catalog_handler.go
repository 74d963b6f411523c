package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/foodgram/internal/model"
)

// CatalogServiceInterface は食材・タグハンドラーが必要とするサービスインターフェース。
type CatalogServiceInterface interface {
	ListIngredients(ctx context.Context, namePrefix string) ([]ingredientResponse, error)
	GetIngredient(ctx context.Context, id int64) (*ingredientResponse, error)
	ListTags(ctx context.Context) ([]tagResponse, error)
	GetTag(ctx context.Context, id int64) (*tagResponse, error)
}

// CatalogHandler は食材・タグ（読み取り専用）のHTTPハンドラー。
type CatalogHandler struct {
	service CatalogServiceInterface
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(service CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// ingredientResponse は食材のAPIレスポンス。
type ingredientResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// tagResponse はタグのAPIレスポンス。
type tagResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

// ListIngredients は食材一覧を取得する。ページングはしない。
// GET /api/ingredients?name=<prefix>
func (h *CatalogHandler) ListIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.service.ListIngredients(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ingredients)
}

// GetIngredient は食材を1件取得する。
// GET /api/ingredients/{id}
func (h *CatalogHandler) GetIngredient(w http.ResponseWriter, r *http.Request) {
	id, ok := parseCatalogID(r)
	if !ok {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewIngredientNotFoundError(id))
		return
	}

	ingredient, err := h.service.GetIngredient(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ingredient)
}

// ListTags はタグ一覧を取得する。
// GET /api/tags
func (h *CatalogHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.ListTags(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// GetTag はタグを1件取得する。
// GET /api/tags/{id}
func (h *CatalogHandler) GetTag(w http.ResponseWriter, r *http.Request) {
	id, ok := parseCatalogID(r)
	if !ok {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewTagNotFoundError(id))
		return
	}

	tag, err := h.service.GetTag(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// parseCatalogID はURLパスの{id}を正の整数として読み取る。
func parseCatalogID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
