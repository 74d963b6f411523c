// Package catalog は食材カタログとタグの参照機能を提供する。
package catalog

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/hitoshi/foodgram/internal/model"
	"github.com/hitoshi/foodgram/internal/repository"
)

// DefaultCacheSize はID指定の参照に使うLRUキャッシュのデフォルト容量。
const DefaultCacheSize = 1024

// Service は食材とタグの参照を担うサービス層。
// カタログはAPIから見て追記のみのため、ID指定の参照結果をLRUキャッシュに保持する。
type Service struct {
	ingredientRepo repository.IngredientRepository
	tagRepo        repository.TagRepository

	ingredientCache *lru.Cache
	tagCache        *lru.Cache
}

// NewService はServiceの新しいインスタンスを生成する。
// cacheSizeが0以下の場合はDefaultCacheSizeを使用する。
func NewService(ingredientRepo repository.IngredientRepository, tagRepo repository.TagRepository, cacheSize int) (*Service, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	ingredientCache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingredient cache: %w", err)
	}
	tagCache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create tag cache: %w", err)
	}
	return &Service{
		ingredientRepo:  ingredientRepo,
		tagRepo:         tagRepo,
		ingredientCache: ingredientCache,
		tagCache:        tagCache,
	}, nil
}

// ListIngredients は名前が前方一致する食材を名前順で返す。大文字小文字は区別する。
func (s *Service) ListIngredients(ctx context.Context, namePrefix string) ([]model.Ingredient, error) {
	ingredients, err := s.ingredientRepo.ListByNamePrefix(ctx, namePrefix)
	if err != nil {
		return nil, fmt.Errorf("食材一覧の取得に失敗しました: %w", err)
	}
	for _, ing := range ingredients {
		s.ingredientCache.Add(ing.ID, ing)
	}
	return ingredients, nil
}

// GetIngredient は指定IDの食材を返す。
func (s *Service) GetIngredient(ctx context.Context, id int64) (*model.Ingredient, error) {
	found, err := s.ResolveIngredients(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	ing := found[id]
	return &ing, nil
}

// ResolveIngredients は指定IDの食材をIDをキーとしたマップで返す。
// 1つでも存在しないIDがあれば、入力順で最初のIDを含むNotFoundエラーを返す。
func (s *Service) ResolveIngredients(ctx context.Context, ids []int64) (map[int64]model.Ingredient, error) {
	result := make(map[int64]model.Ingredient, len(ids))
	var misses []int64
	for _, id := range ids {
		if v, ok := s.ingredientCache.Get(id); ok {
			result[id] = v.(model.Ingredient)
			continue
		}
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		fetched, err := s.ingredientRepo.FindByIDs(ctx, misses)
		if err != nil {
			return nil, fmt.Errorf("食材の取得に失敗しました: %w", err)
		}
		for _, ing := range fetched {
			s.ingredientCache.Add(ing.ID, ing)
			result[ing.ID] = ing
		}
	}

	for _, id := range ids {
		if _, ok := result[id]; !ok {
			return nil, model.NewIngredientNotFoundError(id)
		}
	}
	return result, nil
}

// ListTags は全タグを名前順で返す。
func (s *Service) ListTags(ctx context.Context) ([]model.Tag, error) {
	tags, err := s.tagRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("タグ一覧の取得に失敗しました: %w", err)
	}
	for _, tag := range tags {
		s.tagCache.Add(tag.ID, tag)
	}
	return tags, nil
}

// GetTag は指定IDのタグを返す。
func (s *Service) GetTag(ctx context.Context, id int64) (*model.Tag, error) {
	found, err := s.ResolveTags(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	tag := found[id]
	return &tag, nil
}

// ResolveTags は指定IDのタグをIDをキーとしたマップで返す。
// 1つでも存在しないIDがあれば、入力順で最初のIDを含むNotFoundエラーを返す。
func (s *Service) ResolveTags(ctx context.Context, ids []int64) (map[int64]model.Tag, error) {
	result := make(map[int64]model.Tag, len(ids))
	var misses []int64
	for _, id := range ids {
		if v, ok := s.tagCache.Get(id); ok {
			result[id] = v.(model.Tag)
			continue
		}
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		fetched, err := s.tagRepo.FindByIDs(ctx, misses)
		if err != nil {
			return nil, fmt.Errorf("タグの取得に失敗しました: %w", err)
		}
		for _, tag := range fetched {
			s.tagCache.Add(tag.ID, tag)
			result[tag.ID] = tag
		}
	}

	for _, id := range ids {
		if _, ok := result[id]; !ok {
			return nil, model.NewTagNotFoundError(id)
		}
	}
	return result, nil
}
