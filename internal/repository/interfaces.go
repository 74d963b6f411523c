// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/foodgram/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByIDs は指定IDのユーザーをIDをキーとしたマップで返す。存在しないIDは含まれない。
	FindByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// レシピ、お気に入り、買い物かご、フォロー関係はCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// IngredientRepository は食材カタログの永続化インターフェース。
type IngredientRepository interface {
	// ListByNamePrefix は名前が前方一致する食材を名前順で返す。prefixが空なら全件。
	ListByNamePrefix(ctx context.Context, prefix string) ([]model.Ingredient, error)

	// FindByIDs は指定IDの食材を返す。存在しないIDは含まれない。
	FindByIDs(ctx context.Context, ids []int64) ([]model.Ingredient, error)

	// InsertIfAbsent は(name, measurement_unit)が未登録の場合のみ食材を登録する。
	// 登録した場合はtrueを返す。
	InsertIfAbsent(ctx context.Context, name, measurementUnit string) (bool, error)
}

// TagRepository はタグの永続化インターフェース。
type TagRepository interface {
	// List は全タグを名前順で返す。
	List(ctx context.Context) ([]model.Tag, error)

	// FindByIDs は指定IDのタグを返す。存在しないIDは含まれない。
	FindByIDs(ctx context.Context, ids []int64) ([]model.Tag, error)
}

// RecipeFilter はレシピ一覧の絞り込み条件。
// 空文字列・空スライスの条件は適用しない。
type RecipeFilter struct {
	AuthorID    string
	TagSlugs    []string
	FavoritedBy string
	InCartOf    string
	Limit       int
	Offset      int
}

// RecipeRepository はレシピと中間テーブルの永続化インターフェース。
type RecipeRepository interface {
	// FindByID は指定IDのレシピを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Recipe, error)

	// List は条件に一致するレシピを公開日時の降順で返す。2番目の戻り値は条件に一致する総件数。
	List(ctx context.Context, filter RecipeFilter) ([]*model.Recipe, int, error)

	// ListByAuthor は投稿者のレシピを公開日時の降順で返す。limitが0以下の場合は全件。
	ListByAuthor(ctx context.Context, authorID string, limit int) ([]*model.Recipe, error)

	// CountByAuthors は投稿者ごとのレシピ数を返す。
	CountByAuthors(ctx context.Context, authorIDs []string) (map[string]int, error)

	// Create はレシピ、食材行、タグ行を同一トランザクションで作成する。
	Create(ctx context.Context, recipe *model.Recipe, ingredients []model.RecipeIngredient, tagIDs []int64) error

	// Update はレシピを更新し、食材行とタグ行を同一トランザクションで置き換える。
	Update(ctx context.Context, recipe *model.Recipe, ingredients []model.RecipeIngredient, tagIDs []int64) error

	// Delete は指定IDのレシピを削除する。中間テーブルの行はCASCADE削除される。
	Delete(ctx context.Context, id string) error

	// IngredientsByRecipe はレシピごとの食材（名前・単位付き）を返す。
	IngredientsByRecipe(ctx context.Context, recipeIDs []string) (map[string][]model.RecipeIngredientView, error)

	// TagsByRecipe はレシピごとのタグを返す。
	TagsByRecipe(ctx context.Context, recipeIDs []string) (map[string][]model.Tag, error)

	// ListIngredientRowsForRecipes は指定レシピ群の食材行を食材カタログと結合して返す。
	// 既に削除されたレシピの行はJOINにより含まれない。
	ListIngredientRowsForRecipes(ctx context.Context, recipeIDs []string) ([]model.IngredientRow, error)
}

// MembershipRepository はお気に入り・買い物かごの永続化インターフェース。
type MembershipRepository interface {
	// Add は所属関係を作成する。既に存在する場合はErrDuplicate、
	// レシピまたはユーザーが存在しない場合はErrReferenceNotFoundを返す。
	Add(ctx context.Context, m *model.Membership) error

	// Remove は所属関係を削除する。削除した場合はtrueを返す。
	Remove(ctx context.Context, kind model.MembershipKind, userID, recipeID string) (bool, error)

	// ListRecipeIDs はユーザーの所属関係にあるレシピIDを返す。
	ListRecipeIDs(ctx context.Context, kind model.MembershipKind, userID string) ([]string, error)

	// MemberRecipeIDs は指定レシピのうちユーザーの所属関係にあるものを集合で返す。
	MemberRecipeIDs(ctx context.Context, kind model.MembershipKind, userID string, recipeIDs []string) (map[string]bool, error)
}

// SubscriptionRepository は投稿者フォローの永続化インターフェース。
type SubscriptionRepository interface {
	// Create はフォロー関係を作成する。既に存在する場合はErrDuplicateを返す。
	Create(ctx context.Context, sub *model.Subscription) error

	// Delete はフォロー関係を削除する。削除した場合はtrueを返す。
	Delete(ctx context.Context, userID, authorID string) (bool, error)

	// SubscribedAuthorIDs は指定投稿者のうちユーザーがフォローしているものを集合で返す。
	SubscribedAuthorIDs(ctx context.Context, userID string, authorIDs []string) (map[string]bool, error)

	// ListAuthors はユーザーがフォローしている投稿者をusername順で返す。2番目の戻り値は総件数。
	ListAuthors(ctx context.Context, userID string, limit, offset int) ([]*model.User, int, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
