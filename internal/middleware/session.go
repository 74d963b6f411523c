// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/foodgram/internal/model"
)

const (
	sessionCookieName = "session_id"

	// authorizationScheme はAuthorizationヘッダーのトークン方式。
	authorizationScheme = "Token"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
	userIDContextKey = contextKey("user_id")

	// cookieAuthContextKey はCookieで認証されたリクエストであることを示すキー。
	cookieAuthContextKey = contextKey("cookie_auth")

	userIDHolderContextKey = contextKey("user_id_holder")
)

// userIDHolder は外側のミドルウェアへ認証済みユーザーIDを伝える入れ物。
type userIDHolder struct {
	userID string
}

func contextWithUserIDHolder(ctx context.Context, h *userIDHolder) context.Context {
	return context.WithValue(ctx, userIDHolderContextKey, h)
}

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// NewSessionMiddleware はセッションを必須とするミドルウェアを返す。
// Authorization: Token <id> ヘッダー、またはsession_id Cookieからセッションを読み取り、
// 認証済みユーザーIDをリクエストコンテキストに注入する。
// 未認証リクエストには401 Unauthorizedを返す。
func NewSessionMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return newSessionMiddleware(sessionFinder, true)
}

// NewOptionalSessionMiddleware は匿名アクセスを許可するセッションミドルウェアを返す。
// 資格情報が無い場合は匿名として後続に渡す。提示された資格情報が無効な場合は401を返す。
func NewOptionalSessionMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return newSessionMiddleware(sessionFinder, false)
}

func newSessionMiddleware(sessionFinder SessionFinder, required bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. ヘッダーまたはCookieからセッションIDを取得
			sessionID, viaCookie := sessionIDFromRequest(r)
			if sessionID == "" {
				if required {
					WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			// 2. セッションの有効性を検証
			if !model.IsValidID(sessionID) {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			session, err := sessionFinder.FindByID(r.Context(), sessionID)
			if err != nil {
				slog.Error("failed to find session",
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if session == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 3. 認証済みユーザーIDをコンテキストに注入
			ctx := context.WithValue(r.Context(), userIDContextKey, session.UserID)
			if viaCookie {
				ctx = context.WithValue(ctx, cookieAuthContextKey, true)
			}
			if h, ok := ctx.Value(userIDHolderContextKey).(*userIDHolder); ok {
				h.userID = session.UserID
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// malformedCredential はIDとして常に検証に失敗する値。
const malformedCredential = "malformed"

// sessionIDFromRequest はAuthorizationヘッダーを優先してセッションIDを取り出す。
// 2番目の戻り値はCookieから取得した場合にtrueとなる。
func sessionIDFromRequest(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, authorizationScheme) {
			// 形式不正のヘッダーはID検証で401とする
			return malformedCredential, false
		}
		return strings.TrimSpace(token), false
	}

	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// OptionalUserIDFromContext はユーザーIDを返す。匿名の場合は空文字列。
func OptionalUserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDContextKey).(string)
	return userID
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// isCookieAuthenticated はCookieで認証されたリクエストかどうかを返す。
func isCookieAuthenticated(ctx context.Context) bool {
	v, _ := ctx.Value(cookieAuthContextKey).(bool)
	return v
}
