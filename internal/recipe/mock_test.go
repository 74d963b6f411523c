package recipe

import (
	"context"

	"github.com/hitoshi/foodgram/internal/model"
	"github.com/hitoshi/foodgram/internal/repository"
)

// --- モック定義 ---
// 関数フィールドが未設定の場合はゼロ値を返す。

type mockRecipeRepo struct {
	findByIDFn            func(ctx context.Context, id string) (*model.Recipe, error)
	listFn                func(ctx context.Context, filter repository.RecipeFilter) ([]*model.Recipe, int, error)
	createFn              func(ctx context.Context, rec *model.Recipe, ings []model.RecipeIngredient, tagIDs []int64) error
	updateFn              func(ctx context.Context, rec *model.Recipe, ings []model.RecipeIngredient, tagIDs []int64) error
	deleteFn              func(ctx context.Context, id string) error
	ingredientsByRecipeFn func(ctx context.Context, ids []string) (map[string][]model.RecipeIngredientView, error)
	tagsByRecipeFn        func(ctx context.Context, ids []string) (map[string][]model.Tag, error)
}

func (m *mockRecipeRepo) FindByID(ctx context.Context, id string) (*model.Recipe, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockRecipeRepo) List(ctx context.Context, filter repository.RecipeFilter) ([]*model.Recipe, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, 0, nil
}

func (m *mockRecipeRepo) ListByAuthor(ctx context.Context, authorID string, limit int) ([]*model.Recipe, error) {
	return nil, nil
}

func (m *mockRecipeRepo) CountByAuthors(ctx context.Context, authorIDs []string) (map[string]int, error) {
	return map[string]int{}, nil
}

func (m *mockRecipeRepo) Create(ctx context.Context, rec *model.Recipe, ings []model.RecipeIngredient, tagIDs []int64) error {
	if m.createFn != nil {
		return m.createFn(ctx, rec, ings, tagIDs)
	}
	return nil
}

func (m *mockRecipeRepo) Update(ctx context.Context, rec *model.Recipe, ings []model.RecipeIngredient, tagIDs []int64) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, rec, ings, tagIDs)
	}
	return nil
}

func (m *mockRecipeRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockRecipeRepo) IngredientsByRecipe(ctx context.Context, ids []string) (map[string][]model.RecipeIngredientView, error) {
	if m.ingredientsByRecipeFn != nil {
		return m.ingredientsByRecipeFn(ctx, ids)
	}
	return map[string][]model.RecipeIngredientView{}, nil
}

func (m *mockRecipeRepo) TagsByRecipe(ctx context.Context, ids []string) (map[string][]model.Tag, error) {
	if m.tagsByRecipeFn != nil {
		return m.tagsByRecipeFn(ctx, ids)
	}
	return map[string][]model.Tag{}, nil
}

func (m *mockRecipeRepo) ListIngredientRowsForRecipes(ctx context.Context, ids []string) ([]model.IngredientRow, error) {
	return nil, nil
}

type mockUserRepo struct {
	users map[string]*model.User
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) FindByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	out := make(map[string]*model.User)
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	return nil
}

type mockMembershipRepo struct {
	members map[model.MembershipKind]map[string]bool // kind -> recipeID
	calls   int
}

func (m *mockMembershipRepo) Add(ctx context.Context, mem *model.Membership) error {
	return nil
}

func (m *mockMembershipRepo) Remove(ctx context.Context, kind model.MembershipKind, userID, recipeID string) (bool, error) {
	return false, nil
}

func (m *mockMembershipRepo) ListRecipeIDs(ctx context.Context, kind model.MembershipKind, userID string) ([]string, error) {
	return nil, nil
}

func (m *mockMembershipRepo) MemberRecipeIDs(ctx context.Context, kind model.MembershipKind, userID string, recipeIDs []string) (map[string]bool, error) {
	m.calls++
	out := map[string]bool{}
	for _, id := range recipeIDs {
		if m.members[kind][id] {
			out[id] = true
		}
	}
	return out, nil
}

type mockSubRepo struct {
	subscribed map[string]bool
}

func (m *mockSubRepo) Create(ctx context.Context, sub *model.Subscription) error {
	return nil
}

func (m *mockSubRepo) Delete(ctx context.Context, userID, authorID string) (bool, error) {
	return false, nil
}

func (m *mockSubRepo) SubscribedAuthorIDs(ctx context.Context, userID string, authorIDs []string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, id := range authorIDs {
		if m.subscribed[id] {
			out[id] = true
		}
	}
	return out, nil
}

func (m *mockSubRepo) ListAuthors(ctx context.Context, userID string, limit, offset int) ([]*model.User, int, error) {
	return nil, 0, nil
}

type mockCatalog struct {
	ingredients map[int64]model.Ingredient
	tags        map[int64]model.Tag
}

func (m *mockCatalog) ResolveIngredients(ctx context.Context, ids []int64) (map[int64]model.Ingredient, error) {
	out := map[int64]model.Ingredient{}
	for _, id := range ids {
		ing, ok := m.ingredients[id]
		if !ok {
			return nil, model.NewIngredientNotFoundError(id)
		}
		out[id] = ing
	}
	return out, nil
}

func (m *mockCatalog) ResolveTags(ctx context.Context, ids []int64) (map[int64]model.Tag, error) {
	out := map[int64]model.Tag{}
	for _, id := range ids {
		tag, ok := m.tags[id]
		if !ok {
			return nil, model.NewTagNotFoundError(id)
		}
		out[id] = tag
	}
	return out, nil
}
