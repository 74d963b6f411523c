package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// ShoppingListServiceInterface は買い物リストハンドラーが必要とするサービスインターフェース。
type ShoppingListServiceInterface interface {
	// Build はユーザーの買い物かごから買い物リストを生成する。
	Build(ctx context.Context, userID string) (*ShoppingListDocument, error)
}

// ShoppingListRecorder は買い物リストのダウンロードをメトリクスに記録するインターフェース。
type ShoppingListRecorder interface {
	RecordShoppingListDownload(lines int)
}

// ShoppingListDocument はダウンロードされる買い物リスト。LinesはRecorderに渡す行数。
type ShoppingListDocument struct {
	Filename string
	Body     string
	Lines    int
}

// ShoppingListHandler は買い物リストダウンロードのHTTPハンドラー。
type ShoppingListHandler struct {
	service  ShoppingListServiceInterface
	recorder ShoppingListRecorder
}

// NewShoppingListHandler はShoppingListHandlerを生成する。recorderはnilでもよい。
func NewShoppingListHandler(service ShoppingListServiceInterface, recorder ShoppingListRecorder) *ShoppingListHandler {
	return &ShoppingListHandler{
		service:  service,
		recorder: recorder,
	}
}

// Download は買い物かごの食材を合算したテキストを添付ファイルとして返す。
// GET /api/recipes/download_shopping_cart
func (h *ShoppingListHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	doc, err := h.service.Build(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.recorder != nil {
		h.recorder.RecordShoppingListDownload(doc.Lines)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", doc.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, doc.Body); err != nil {
		slog.Warn("failed to write shopping list",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}
