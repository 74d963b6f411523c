package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/hitoshi/foodgram/internal/middleware"
	"github.com/hitoshi/foodgram/internal/model"
)

// maxRequestBodySize はJSONリクエストボディの上限（画像をbase64で含むため大きめ）。
const maxRequestBodySize = 10 << 20

// apiErrorResponse はエラーレスポンスの統一フォーマット。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// pageResponse はページングされた一覧レスポンス。
type pageResponse[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeInvalidRequest, model.ErrCodeValidation, model.ErrCodeSelfSubscription:
		return http.StatusBadRequest
	case model.ErrCodeRecipeAlreadyInCart, model.ErrCodeRecipeAlreadyFavorite, model.ErrCodeAlreadySubscribed:
		return http.StatusConflict
	case model.ErrCodeRecipeNotFound,
		model.ErrCodeIngredientNotFound,
		model.ErrCodeTagNotFound,
		model.ErrCodeUserNotFound,
		model.ErrCodeRecipeNotInCart,
		model.ErrCodeRecipeNotFavorite,
		model.ErrCodeSubscriptionNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// requireUserID はコンテキストから認証済みユーザーIDを取得する。
// 取得できない場合は401を書き込み、falseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return "", false
	}
	return userID, true
}

// decodeJSONBody はリクエストボディをJSONとしてデコードする。
// 失敗した場合は400を書き込み、falseを返す。
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodySize))
	if err := dec.Decode(v); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return false
	}
	return true
}

// queryInt はクエリパラメータを正の整数として読み取る。未指定・不正値は0を返す。
func queryInt(q url.Values, key string) int {
	v, err := strconv.Atoi(q.Get(key))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// queryFlag は "1" または "true" を真として扱う。
func queryFlag(q url.Values, key string) bool {
	switch q.Get(key) {
	case "1", "true":
		return true
	default:
		return false
	}
}

// pageLinks は次ページ・前ページのURLを生成する。
// baseURLが空の場合はパスとクエリのみの相対URLになる。
func pageLinks(baseURL string, r *http.Request, page int, hasNext, hasPrevious bool) (*string, *string) {
	link := func(p int) *string {
		q := r.URL.Query()
		if p <= 1 {
			q.Del("page")
		} else {
			q.Set("page", strconv.Itoa(p))
		}
		u := baseURL + r.URL.Path
		if encoded := q.Encode(); encoded != "" {
			u += "?" + encoded
		}
		return &u
	}

	var next, previous *string
	if hasNext {
		next = link(page + 1)
	}
	if hasPrevious {
		previous = link(page - 1)
	}
	return next, previous
}
