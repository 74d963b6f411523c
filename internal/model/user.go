// Package model はドメインモデルを定義する。
package model

import "time"

// User はレシピを投稿・閲覧するユーザーを表す。
type User struct {
	ID        string
	Email     string
	Username  string
	FirstName string
	LastName  string
	IsAdmin   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session は外部の認証基盤が発行したログインセッションを表す。
// このシステムはセッションの参照と期限切れ削除のみを行う。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Subscription はユーザーから投稿者へのフォロー関係を表す。
type Subscription struct {
	ID        string
	UserID    string
	AuthorID  string
	CreatedAt time.Time
}
