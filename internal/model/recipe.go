// Package model はドメインモデルを定義する。
package model

import "time"

// Ingredient は食材カタログの1エントリを表す。
// (Name, MeasurementUnit) の組はカタログ全体で一意。
type Ingredient struct {
	ID              int64
	Name            string
	MeasurementUnit string
}

// Tag はレシピに付与するタグを表す。
type Tag struct {
	ID    int64
	Name  string
	Color string // #RRGGBB
	Slug  string
}

// Recipe は投稿されたレシピを表す。
type Recipe struct {
	ID          string
	AuthorID    string
	Name        string
	Image       string // クライアントから受け取った値をそのまま保持する
	Text        string
	CookingTime int // 分
	PubDate     time.Time
	UpdatedAt   time.Time
}

// RecipeIngredient はレシピと食材の中間エンティティ。
// 1つのレシピにつき同じ食材は1行のみ。
type RecipeIngredient struct {
	RecipeID     string
	IngredientID int64
	Amount       int
}

// RecipeIngredientView は食材名と単位を結合したレシピ内の食材。
type RecipeIngredientView struct {
	Ingredient
	Amount int
}

// MembershipKind はユーザーとレシピの所属関係（お気に入り/買い物かご）の種別。
type MembershipKind string

const (
	// MembershipFavorite はお気に入り。
	MembershipFavorite MembershipKind = "favorite"
	// MembershipShoppingCart は買い物かご。
	MembershipShoppingCart MembershipKind = "shopping_cart"
)

// Membership はユーザーとレシピの所属関係の1行を表す。
type Membership struct {
	ID        string
	Kind      MembershipKind
	UserID    string
	RecipeID  string
	CreatedAt time.Time
}

// IngredientRow は買い物リスト集計の入力となる中間テーブルの1行。
// 食材名と単位は食材カタログから結合済み。
type IngredientRow struct {
	RecipeID        string
	IngredientID    int64
	Name            string
	MeasurementUnit string
	Amount          int
}
