// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, recipe, user, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized          = "UNAUTHORIZED"
	ErrCodeForbidden             = "FORBIDDEN"
	ErrCodeInvalidRequest        = "INVALID_REQUEST"
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeRecipeNotFound        = "RECIPE_NOT_FOUND"
	ErrCodeIngredientNotFound    = "INGREDIENT_NOT_FOUND"
	ErrCodeTagNotFound           = "TAG_NOT_FOUND"
	ErrCodeUserNotFound          = "USER_NOT_FOUND"
	ErrCodeRecipeAlreadyInCart   = "RECIPE_ALREADY_IN_CART"
	ErrCodeRecipeNotInCart       = "RECIPE_NOT_IN_CART"
	ErrCodeRecipeAlreadyFavorite = "RECIPE_ALREADY_FAVORITED"
	ErrCodeRecipeNotFavorite     = "RECIPE_NOT_FAVORITED"
	ErrCodeAlreadySubscribed     = "ALREADY_SUBSCRIBED"
	ErrCodeSubscriptionNotFound  = "SUBSCRIPTION_NOT_FOUND"
	ErrCodeSelfSubscription      = "SELF_SUBSCRIPTION"
	ErrCodeInternal              = "INTERNAL_ERROR"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "レシピの編集・削除は投稿者本人のみ可能です。",
	}
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewValidationError は入力値の検証エラーを生成する。
// reasonには問題のあるフィールドと条件を含める。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewRecipeNotFoundError はレシピ未検出エラーを生成する。
func NewRecipeNotFoundError(recipeID string) *APIError {
	return &APIError{
		Code:     ErrCodeRecipeNotFound,
		Message:  fmt.Sprintf("指定されたレシピが見つかりません: %s", recipeID),
		Category: "recipe",
		Action:   "レシピIDを確認してください。",
	}
}

// NewIngredientNotFoundError は食材未検出エラーを生成する。
func NewIngredientNotFoundError(ingredientID int64) *APIError {
	return &APIError{
		Code:     ErrCodeIngredientNotFound,
		Message:  fmt.Sprintf("指定された食材が見つかりません: %d", ingredientID),
		Category: "recipe",
		Action:   "食材一覧から選択してください。",
	}
}

// NewTagNotFoundError はタグ未検出エラーを生成する。
func NewTagNotFoundError(tagID int64) *APIError {
	return &APIError{
		Code:     ErrCodeTagNotFound,
		Message:  fmt.Sprintf("指定されたタグが見つかりません: %d", tagID),
		Category: "recipe",
		Action:   "タグ一覧から選択してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "user",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewAlreadyMemberError はお気に入り/買い物かごへの重複追加エラーを生成する。
func NewAlreadyMemberError(kind MembershipKind) *APIError {
	if kind == MembershipShoppingCart {
		return &APIError{
			Code:     ErrCodeRecipeAlreadyInCart,
			Message:  "recipe already in shopping cart",
			Category: "recipe",
			Action:   "買い物かごの内容を確認してください。",
		}
	}
	return &APIError{
		Code:     ErrCodeRecipeAlreadyFavorite,
		Message:  "recipe already in favorites",
		Category: "recipe",
		Action:   "お気に入り一覧を確認してください。",
	}
}

// NewNotMemberError はお気に入り/買い物かごに存在しないレシピを削除しようとした場合のエラーを生成する。
func NewNotMemberError(kind MembershipKind) *APIError {
	if kind == MembershipShoppingCart {
		return &APIError{
			Code:     ErrCodeRecipeNotInCart,
			Message:  "recipe is not in shopping cart",
			Category: "recipe",
			Action:   "買い物かごの内容を確認してください。",
		}
	}
	return &APIError{
		Code:     ErrCodeRecipeNotFavorite,
		Message:  "recipe is not in favorites",
		Category: "recipe",
		Action:   "お気に入り一覧を確認してください。",
	}
}

// NewAlreadySubscribedError は既にフォロー済みの投稿者を再度フォローしようとした場合のエラーを生成する。
func NewAlreadySubscribedError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadySubscribed,
		Message:  "既にこの投稿者をフォローしています。",
		Category: "user",
		Action:   "フォロー一覧を確認してください。",
	}
}

// NewSubscriptionNotFoundError はフォロー関係が見つからない場合のエラーを生成する。
func NewSubscriptionNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeSubscriptionNotFound,
		Message:  "この投稿者をフォローしていません。",
		Category: "user",
		Action:   "フォロー一覧を確認してください。",
	}
}

// NewSelfSubscriptionError は自分自身をフォローしようとした場合のエラーを生成する。
func NewSelfSubscriptionError() *APIError {
	return &APIError{
		Code:     ErrCodeSelfSubscription,
		Message:  "自分自身をフォローすることはできません。",
		Category: "validation",
		Action:   "他のユーザーを指定してください。",
	}
}

// NewInternalError は内部エラーの統一レスポンス用エラーを生成する。
// 詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
