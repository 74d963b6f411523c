// Package membership はお気に入りと買い物かごへのレシピの追加・削除を提供する。
package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/foodgram/internal/model"
	"github.com/hitoshi/foodgram/internal/repository"
)

// 買い物かご操作のメトリクスラベル
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

// RecipeFinder はレシピの存在確認に使うインターフェース。
type RecipeFinder interface {
	FindByID(ctx context.Context, id string) (*model.Recipe, error)
}

// CartRecorder は買い物かごの変更をメトリクスに記録するインターフェース。
type CartRecorder interface {
	RecordCartMutation(action string)
}

// Service はお気に入り・買い物かごのサービス層。
// 重複追加の判定はDBの一意制約に任せる。
type Service struct {
	recipes  RecipeFinder
	repo     repository.MembershipRepository
	recorder CartRecorder
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。recorderはnilでもよい。
func NewService(recipes RecipeFinder, repo repository.MembershipRepository, recorder CartRecorder) *Service {
	return &Service{
		recipes:  recipes,
		repo:     repo,
		recorder: recorder,
		now:      time.Now,
	}
}

// Add はレシピをお気に入りまたは買い物かごに追加し、追加したレシピを返す。
// 既に追加済みの場合はConflictエラーを返す。
func (s *Service) Add(ctx context.Context, kind model.MembershipKind, userID, recipeID string) (*model.Recipe, error) {
	rec, err := s.findRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	m := &model.Membership{
		ID:        uuid.New().String(),
		Kind:      kind,
		UserID:    userID,
		RecipeID:  rec.ID,
		CreatedAt: s.now(),
	}
	if err := s.repo.Add(ctx, m); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, model.NewAlreadyMemberError(kind)
		case errors.Is(err, repository.ErrReferenceNotFound):
			// 存在確認の後にレシピが削除された
			return nil, model.NewRecipeNotFoundError(recipeID)
		}
		return nil, fmt.Errorf("%sへの追加に失敗しました: %w", kind, err)
	}

	s.record(kind, ActionAdd)
	return rec, nil
}

// Remove はレシピをお気に入りまたは買い物かごから削除する。
// 追加されていない場合はNotFoundエラーを返す。
func (s *Service) Remove(ctx context.Context, kind model.MembershipKind, userID, recipeID string) error {
	if _, err := s.findRecipe(ctx, recipeID); err != nil {
		return err
	}

	removed, err := s.repo.Remove(ctx, kind, userID, recipeID)
	if err != nil {
		return fmt.Errorf("%sからの削除に失敗しました: %w", kind, err)
	}
	if !removed {
		return model.NewNotMemberError(kind)
	}

	s.record(kind, ActionRemove)
	return nil
}

func (s *Service) findRecipe(ctx context.Context, recipeID string) (*model.Recipe, error) {
	if !model.IsValidID(recipeID) {
		return nil, model.NewRecipeNotFoundError(recipeID)
	}
	rec, err := s.recipes.FindByID(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("レシピの取得に失敗しました: %w", err)
	}
	if rec == nil {
		return nil, model.NewRecipeNotFoundError(recipeID)
	}
	return rec, nil
}

func (s *Service) record(kind model.MembershipKind, action string) {
	if s.recorder != nil && kind == model.MembershipShoppingCart {
		s.recorder.RecordCartMutation(action)
	}
}
