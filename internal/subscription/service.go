// Package subscription は投稿者のフォロー管理のドメインロジックを提供する。
package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/foodgram/internal/model"
	"github.com/hitoshi/foodgram/internal/repository"
)

const (
	defaultPageSize    = 6
	defaultMaxPageSize = 100
)

// AuthorInfo はフォローしている投稿者と、その最新レシピ・レシピ数。
type AuthorInfo struct {
	model.User
	IsSubscribed bool
	Recipes      []*model.Recipe
	RecipesCount int
}

// AuthorPage はページングされたフォロー一覧。
type AuthorPage struct {
	Count   int
	Page    int
	Limit   int
	Results []AuthorInfo
}

// Service はフォロー管理のサービス層。
type Service struct {
	subRepo    repository.SubscriptionRepository
	userRepo   repository.UserRepository
	recipeRepo repository.RecipeRepository

	pageSize    int
	maxPageSize int
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	subRepo repository.SubscriptionRepository,
	userRepo repository.UserRepository,
	recipeRepo repository.RecipeRepository,
) *Service {
	return &Service{
		subRepo:     subRepo,
		userRepo:    userRepo,
		recipeRepo:  recipeRepo,
		pageSize:    defaultPageSize,
		maxPageSize: defaultMaxPageSize,
		now:         time.Now,
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

// Subscribe は投稿者をフォローし、投稿者の情報を返す。
// recipesLimitが0以下の場合はレシピを全件含める。
func (s *Service) Subscribe(ctx context.Context, userID, authorID string, recipesLimit int) (*AuthorInfo, error) {
	author, err := s.findAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author.ID == userID {
		return nil, model.NewSelfSubscriptionError()
	}

	sub := &model.Subscription{
		ID:        uuid.New().String(),
		UserID:    userID,
		AuthorID:  author.ID,
		CreatedAt: s.now(),
	}
	if err := s.subRepo.Create(ctx, sub); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, model.NewAlreadySubscribedError()
		case errors.Is(err, repository.ErrReferenceNotFound):
			return nil, model.NewUserNotFoundError()
		}
		return nil, fmt.Errorf("フォローの作成に失敗しました: %w", err)
	}

	infos, err := s.withRecipes(ctx, []*model.User{author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &infos[0], nil
}

// Unsubscribe は投稿者のフォローを解除する。
func (s *Service) Unsubscribe(ctx context.Context, userID, authorID string) error {
	if _, err := s.findAuthor(ctx, authorID); err != nil {
		return err
	}
	deleted, err := s.subRepo.Delete(ctx, userID, authorID)
	if err != nil {
		return fmt.Errorf("フォローの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewSubscriptionNotFoundError()
	}
	return nil
}

// List はフォローしている投稿者をusername順でページングして返す。
func (s *Service) List(ctx context.Context, userID string, recipesLimit, page, limit int) (*AuthorPage, error) {
	if limit <= 0 {
		limit = s.pageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}
	page, offset := model.ClampPage(page, limit)

	authors, total, err := s.subRepo.ListAuthors(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("フォロー一覧の取得に失敗しました: %w", err)
	}

	infos, err := s.withRecipes(ctx, authors, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &AuthorPage{Count: total, Page: page, Limit: limit, Results: infos}, nil
}

func (s *Service) findAuthor(ctx context.Context, authorID string) (*model.User, error) {
	if !model.IsValidID(authorID) {
		return nil, model.NewUserNotFoundError()
	}
	author, err := s.userRepo.FindByID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if author == nil {
		return nil, model.NewUserNotFoundError()
	}
	return author, nil
}

// withRecipes はフォロー中の投稿者に最新レシピとレシピ数を付与する。
func (s *Service) withRecipes(ctx context.Context, authors []*model.User, recipesLimit int) ([]AuthorInfo, error) {
	infos := make([]AuthorInfo, len(authors))
	if len(authors) == 0 {
		return infos, nil
	}

	ids := make([]string, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}
	counts, err := s.recipeRepo.CountByAuthors(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("レシピ数の取得に失敗しました: %w", err)
	}

	for i, a := range authors {
		recipes, err := s.recipeRepo.ListByAuthor(ctx, a.ID, recipesLimit)
		if err != nil {
			return nil, fmt.Errorf("投稿者のレシピ取得に失敗しました: %w", err)
		}
		if recipes == nil {
			recipes = []*model.Recipe{}
		}
		infos[i] = AuthorInfo{
			User:         *a,
			IsSubscribed: true,
			Recipes:      recipes,
			RecipesCount: counts[a.ID],
		}
	}
	return infos, nil
}
