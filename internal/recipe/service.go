// Package recipe はレシピの投稿・編集・閲覧のドメインロジックを提供する。
package recipe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/foodgram/internal/model"
	"github.com/hitoshi/foodgram/internal/repository"
	"github.com/hitoshi/foodgram/internal/security"
)

const (
	// DefaultPageSize はlimit未指定時の1ページあたりの件数。
	DefaultPageSize = 6
	// DefaultMaxPageSize はlimitの上限。
	DefaultMaxPageSize = 100
)

// IngredientAmount はレシピ入力中の食材と分量。
type IngredientAmount struct {
	ID     int64 `json:"id" validate:"gt=0"`
	Amount int   `json:"amount" validate:"min=1,max=32000"`
}

// Input はレシピの作成・更新時の入力。更新時も全フィールドを置き換える。
type Input struct {
	Ingredients []IngredientAmount `json:"ingredients" validate:"required,min=1,unique=ID,dive"`
	Tags        []int64            `json:"tags" validate:"required,min=1,unique,dive,gt=0"`
	Image       string             `json:"image" validate:"required"`
	Name        string             `json:"name" validate:"required,max=200"`
	Text        string             `json:"text" validate:"required"`
	CookingTime int                `json:"cooking_time" validate:"min=1,max=32000"`
}

// Author はレシピの投稿者と閲覧者から見たフォロー状態。
type Author struct {
	model.User
	IsSubscribed bool
}

// View はレシピ詳細の表示用ドメインオブジェクト。
type View struct {
	model.Recipe
	Author           Author
	Tags             []model.Tag
	Ingredients      []model.RecipeIngredientView
	IsFavorited      bool
	IsInShoppingCart bool
}

// Filter はレシピ一覧の絞り込み条件。
// IsFavorited・IsInShoppingCartは閲覧者が匿名の場合は無視する。
type Filter struct {
	AuthorID         string
	TagSlugs         []string
	IsFavorited      bool
	IsInShoppingCart bool
	Page             int
	Limit            int
}

// Page はページングされたレシピ一覧。
type Page struct {
	Count   int
	Page    int
	Limit   int
	Results []View
}

// HasNext は次のページが存在するかを返す。
func (p *Page) HasNext() bool {
	return model.HasNextPage(p.Page, p.Limit, p.Count)
}

// HasPrevious は前のページが存在するかを返す。
func (p *Page) HasPrevious() bool {
	return p.Page > 1
}

// CatalogResolver はレシピが参照する食材・タグの存在確認を行うインターフェース。
type CatalogResolver interface {
	ResolveIngredients(ctx context.Context, ids []int64) (map[int64]model.Ingredient, error)
	ResolveTags(ctx context.Context, ids []int64) (map[int64]model.Tag, error)
}

// Service はレシピのサービス層。
type Service struct {
	recipeRepo     repository.RecipeRepository
	userRepo       repository.UserRepository
	membershipRepo repository.MembershipRepository
	subRepo        repository.SubscriptionRepository
	catalog        CatalogResolver
	sanitizer      security.TextSanitizer

	pageSize    int
	maxPageSize int
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	recipeRepo repository.RecipeRepository,
	userRepo repository.UserRepository,
	membershipRepo repository.MembershipRepository,
	subRepo repository.SubscriptionRepository,
	catalog CatalogResolver,
	sanitizer security.TextSanitizer,
) *Service {
	return &Service{
		recipeRepo:     recipeRepo,
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		subRepo:        subRepo,
		catalog:        catalog,
		sanitizer:      sanitizer,
		pageSize:       DefaultPageSize,
		maxPageSize:    DefaultMaxPageSize,
		now:            time.Now,
	}
}

// SetPageSize はlimit未指定時の件数と上限を設定する。0以下の値は無視する。
func (s *Service) SetPageSize(pageSize, maxPageSize int) {
	if pageSize > 0 {
		s.pageSize = pageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
}

// Create はレシピを作成する。
func (s *Service) Create(ctx context.Context, authorID string, in Input) (*View, error) {
	ingredients, tagIDs, err := s.prepare(ctx, &in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec := &model.Recipe{
		ID:          uuid.New().String(),
		AuthorID:    authorID,
		Name:        in.Name,
		Image:       in.Image,
		Text:        in.Text,
		CookingTime: in.CookingTime,
		PubDate:     now,
		UpdatedAt:   now,
	}
	for i := range ingredients {
		ingredients[i].RecipeID = rec.ID
	}

	if err := s.recipeRepo.Create(ctx, rec, ingredients, tagIDs); err != nil {
		return nil, translateWriteError(err)
	}
	return s.Get(ctx, authorID, rec.ID)
}

// Update はレシピを更新する。投稿者本人または管理者のみ実行できる。
// 食材行とタグ行は入力で置き換える。
func (s *Service) Update(ctx context.Context, actorID, recipeID string, in Input) (*View, error) {
	rec, err := s.authorize(ctx, actorID, recipeID)
	if err != nil {
		return nil, err
	}

	ingredients, tagIDs, err := s.prepare(ctx, &in)
	if err != nil {
		return nil, err
	}
	for i := range ingredients {
		ingredients[i].RecipeID = rec.ID
	}

	rec.Name = in.Name
	rec.Image = in.Image
	rec.Text = in.Text
	rec.CookingTime = in.CookingTime
	rec.UpdatedAt = s.now()

	if err := s.recipeRepo.Update(ctx, rec, ingredients, tagIDs); err != nil {
		return nil, translateWriteError(err)
	}
	return s.Get(ctx, actorID, rec.ID)
}

// Delete はレシピを削除する。投稿者本人または管理者のみ実行できる。
func (s *Service) Delete(ctx context.Context, actorID, recipeID string) error {
	if _, err := s.authorize(ctx, actorID, recipeID); err != nil {
		return err
	}
	if err := s.recipeRepo.Delete(ctx, recipeID); err != nil {
		return fmt.Errorf("レシピの削除に失敗しました: %w", err)
	}
	return nil
}

// Get はレシピ詳細を返す。viewerIDが空の場合は匿名の閲覧者として扱う。
func (s *Service) Get(ctx context.Context, viewerID, recipeID string) (*View, error) {
	if !model.IsValidID(recipeID) {
		return nil, model.NewRecipeNotFoundError(recipeID)
	}
	rec, err := s.recipeRepo.FindByID(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("レシピの取得に失敗しました: %w", err)
	}
	if rec == nil {
		return nil, model.NewRecipeNotFoundError(recipeID)
	}

	views, err := s.buildViews(ctx, viewerID, []*model.Recipe{rec})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List は条件に一致するレシピを公開日時の降順でページングして返す。
func (s *Service) List(ctx context.Context, viewerID string, filter Filter) (*Page, error) {
	page, limit, offset := s.normalizePage(filter.Page, filter.Limit)

	repoFilter := repository.RecipeFilter{
		TagSlugs: filter.TagSlugs,
		Limit:    limit,
		Offset:   offset,
	}
	if filter.AuthorID != "" {
		if !model.IsValidID(filter.AuthorID) {
			return nil, model.NewValidationError("author must be a valid user id")
		}
		repoFilter.AuthorID = filter.AuthorID
	}
	if viewerID != "" {
		if filter.IsFavorited {
			repoFilter.FavoritedBy = viewerID
		}
		if filter.IsInShoppingCart {
			repoFilter.InCartOf = viewerID
		}
	}

	recipes, total, err := s.recipeRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("レシピ一覧の取得に失敗しました: %w", err)
	}

	views, err := s.buildViews(ctx, viewerID, recipes)
	if err != nil {
		return nil, err
	}
	return &Page{Count: total, Page: page, Limit: limit, Results: views}, nil
}

func (s *Service) normalizePage(page, limit int) (int, int, int) {
	if limit <= 0 {
		limit = s.pageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}
	page, offset := model.ClampPage(page, limit)
	return page, limit, offset
}

// prepare は入力をサニタイズ・検証し、参照先の食材・タグの存在を確認する。
func (s *Service) prepare(ctx context.Context, in *Input) ([]model.RecipeIngredient, []int64, error) {
	in.Name = s.sanitizer.SanitizeText(in.Name)
	in.Text = s.sanitizer.SanitizeText(in.Text)

	if err := validateInput(in); err != nil {
		return nil, nil, err
	}

	ingredientIDs := make([]int64, len(in.Ingredients))
	ingredients := make([]model.RecipeIngredient, len(in.Ingredients))
	for i, ia := range in.Ingredients {
		ingredientIDs[i] = ia.ID
		ingredients[i] = model.RecipeIngredient{IngredientID: ia.ID, Amount: ia.Amount}
	}
	if _, err := s.catalog.ResolveIngredients(ctx, ingredientIDs); err != nil {
		return nil, nil, err
	}
	if _, err := s.catalog.ResolveTags(ctx, in.Tags); err != nil {
		return nil, nil, err
	}
	return ingredients, in.Tags, nil
}

// authorize はレシピを取得し、actorが投稿者本人または管理者であることを確認する。
func (s *Service) authorize(ctx context.Context, actorID, recipeID string) (*model.Recipe, error) {
	if !model.IsValidID(recipeID) {
		return nil, model.NewRecipeNotFoundError(recipeID)
	}
	rec, err := s.recipeRepo.FindByID(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("レシピの取得に失敗しました: %w", err)
	}
	if rec == nil {
		return nil, model.NewRecipeNotFoundError(recipeID)
	}
	if rec.AuthorID == actorID {
		return rec, nil
	}

	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if actor == nil || !actor.IsAdmin {
		return nil, model.NewForbiddenError()
	}
	return rec, nil
}

// buildViews はレシピ群に投稿者・タグ・食材・閲覧者ごとの状態を付与する。
// 関連データはレシピ数によらず一定回数のクエリで取得する。
func (s *Service) buildViews(ctx context.Context, viewerID string, recipes []*model.Recipe) ([]View, error) {
	if len(recipes) == 0 {
		return []View{}, nil
	}

	recipeIDs := make([]string, len(recipes))
	authorIDs := make([]string, 0, len(recipes))
	seenAuthor := make(map[string]bool, len(recipes))
	for i, rec := range recipes {
		recipeIDs[i] = rec.ID
		if !seenAuthor[rec.AuthorID] {
			seenAuthor[rec.AuthorID] = true
			authorIDs = append(authorIDs, rec.AuthorID)
		}
	}

	authors, err := s.userRepo.FindByIDs(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("投稿者の取得に失敗しました: %w", err)
	}
	ingredients, err := s.recipeRepo.IngredientsByRecipe(ctx, recipeIDs)
	if err != nil {
		return nil, fmt.Errorf("食材の取得に失敗しました: %w", err)
	}
	tags, err := s.recipeRepo.TagsByRecipe(ctx, recipeIDs)
	if err != nil {
		return nil, fmt.Errorf("タグの取得に失敗しました: %w", err)
	}

	favorited := map[string]bool{}
	inCart := map[string]bool{}
	subscribed := map[string]bool{}
	if viewerID != "" {
		if favorited, err = s.membershipRepo.MemberRecipeIDs(ctx, model.MembershipFavorite, viewerID, recipeIDs); err != nil {
			return nil, fmt.Errorf("お気に入り状態の取得に失敗しました: %w", err)
		}
		if inCart, err = s.membershipRepo.MemberRecipeIDs(ctx, model.MembershipShoppingCart, viewerID, recipeIDs); err != nil {
			return nil, fmt.Errorf("買い物かご状態の取得に失敗しました: %w", err)
		}
		if subscribed, err = s.subRepo.SubscribedAuthorIDs(ctx, viewerID, authorIDs); err != nil {
			return nil, fmt.Errorf("フォロー状態の取得に失敗しました: %w", err)
		}
	}

	views := make([]View, len(recipes))
	for i, rec := range recipes {
		author := Author{User: model.User{ID: rec.AuthorID}}
		if u, ok := authors[rec.AuthorID]; ok {
			author.User = *u
		}
		author.IsSubscribed = subscribed[rec.AuthorID]

		views[i] = View{
			Recipe:           *rec,
			Author:           author,
			Tags:             nonNilTags(tags[rec.ID]),
			Ingredients:      nonNilIngredients(ingredients[rec.ID]),
			IsFavorited:      favorited[rec.ID],
			IsInShoppingCart: inCart[rec.ID],
		}
	}
	return views, nil
}

// translateWriteError は書き込み時の参照エラーをAPIエラーに変換する。
// 存在確認後に食材・タグが削除された場合に発生する。
func translateWriteError(err error) error {
	if errors.Is(err, repository.ErrReferenceNotFound) {
		return model.NewValidationError("ingredients or tags reference a missing catalog entry")
	}
	return fmt.Errorf("レシピの保存に失敗しました: %w", err)
}

func nonNilTags(tags []model.Tag) []model.Tag {
	if tags == nil {
		return []model.Tag{}
	}
	return tags
}

func nonNilIngredients(ings []model.RecipeIngredientView) []model.RecipeIngredientView {
	if ings == nil {
		return []model.RecipeIngredientView{}
	}
	return ings
}
