package recipe

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/foodgram/internal/model"
	"github.com/hitoshi/foodgram/internal/repository"
	"github.com/hitoshi/foodgram/internal/security"
)

const (
	authorID  = "11111111-1111-1111-1111-111111111111"
	otherID   = "22222222-2222-2222-2222-222222222222"
	adminID   = "33333333-3333-3333-3333-333333333333"
	recipeID1 = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
)

type testDeps struct {
	recipes     *mockRecipeRepo
	users       *mockUserRepo
	memberships *mockMembershipRepo
	subs        *mockSubRepo
	catalog     *mockCatalog
}

func newTestDeps() *testDeps {
	return &testDeps{
		recipes: &mockRecipeRepo{},
		users: &mockUserRepo{users: map[string]*model.User{
			authorID: {ID: authorID, Username: "chef", Email: "chef@example.com"},
			otherID:  {ID: otherID, Username: "guest", Email: "guest@example.com"},
			adminID:  {ID: adminID, Username: "admin", Email: "admin@example.com", IsAdmin: true},
		}},
		memberships: &mockMembershipRepo{members: map[model.MembershipKind]map[string]bool{}},
		subs:        &mockSubRepo{subscribed: map[string]bool{}},
		catalog: &mockCatalog{
			ingredients: map[int64]model.Ingredient{
				1: {ID: 1, Name: "Egg", MeasurementUnit: "pcs"},
				2: {ID: 2, Name: "Milk", MeasurementUnit: "ml"},
			},
			tags: map[int64]model.Tag{
				1: {ID: 1, Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"},
			},
		},
	}
}

func (d *testDeps) service() *Service {
	svc := NewService(d.recipes, d.users, d.memberships, d.subs, d.catalog, security.NewTextSanitizer())
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc
}

func validInput() Input {
	return Input{
		Ingredients: []IngredientAmount{{ID: 1, Amount: 2}, {ID: 2, Amount: 100}},
		Tags:        []int64{1},
		Image:       "data:image/png;base64,iVBORw0KGgo=",
		Name:        "Omelette",
		Text:        "Beat the eggs.",
		CookingTime: 10,
	}
}

func existingRecipe() *model.Recipe {
	return &model.Recipe{ID: recipeID1, AuthorID: authorID, Name: "Omelette", Image: "img", Text: "t", CookingTime: 5}
}

func assertAPIErrorCode(t *testing.T, err error, code string) *model.APIError {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError with code %s, got %v", code, err)
	}
	if apiErr.Code != code {
		t.Fatalf("Code = %q, want %q (message: %s)", apiErr.Code, code, apiErr.Message)
	}
	return apiErr
}

// --- Create ---

func TestCreate_PersistsRecipeAndRelations(t *testing.T) {
	d := newTestDeps()
	var created *model.Recipe
	var gotIngs []model.RecipeIngredient
	var gotTags []int64
	d.recipes.createFn = func(ctx context.Context, rec *model.Recipe, ings []model.RecipeIngredient, tagIDs []int64) error {
		created, gotIngs, gotTags = rec, ings, tagIDs
		return nil
	}
	d.recipes.findByIDFn = func(ctx context.Context, id string) (*model.Recipe, error) {
		if created != nil && id == created.ID {
			return created, nil
		}
		return nil, nil
	}

	view, err := d.service().Create(context.Background(), authorID, validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("recipe was not persisted")
	}
	if !model.IsValidID(created.ID) {
		t.Errorf("ID = %q, want UUID", created.ID)
	}
	if created.AuthorID != authorID {
		t.Errorf("AuthorID = %q, want %q", created.AuthorID, authorID)
	}
	if len(gotIngs) != 2 || gotIngs[0].RecipeID != created.ID || gotIngs[1].Amount != 100 {
		t.Errorf("ingredients = %+v", gotIngs)
	}
	if len(gotTags) != 1 || gotTags[0] != 1 {
		t.Errorf("tags = %v, want [1]", gotTags)
	}
	if view.Author.Username != "chef" {
		t.Errorf("Author.Username = %q, want chef", view.Author.Username)
	}
}

// 名前と説明文からHTMLタグが除去されることを検証
func TestCreate_SanitizesNameAndText(t *testing.T) {
	d := newTestDeps()
	var created *model.Recipe
	d.recipes.createFn = func(ctx context.Context, rec *model.Recipe, ings []model.RecipeIngredient, tagIDs []int64) error {
		created = rec
		return nil
	}
	d.recipes.findByIDFn = func(ctx context.Context, id string) (*model.Recipe, error) { return created, nil }

	in := validInput()
	in.Name = "<b>Omelette</b>"
	in.Text = `<script>alert(1)</script>Beat & fry`
	if _, err := d.service().Create(context.Background(), authorID, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Name != "Omelette" {
		t.Errorf("Name = %q, want Omelette", created.Name)
	}
	if created.Text != "Beat & fry" {
		t.Errorf("Text = %q, want %q", created.Text, "Beat & fry")
	}
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(in *Input)
		wantReason string
	}{
		{"食材が空", func(in *Input) { in.Ingredients = nil }, "ingredients"},
		{"食材が重複", func(in *Input) { in.Ingredients = []IngredientAmount{{ID: 1, Amount: 1}, {ID: 1, Amount: 2}} }, "duplicates"},
		{"分量が0", func(in *Input) { in.Ingredients[0].Amount = 0 }, "ingredients[0].amount"},
		{"分量が上限超過", func(in *Input) { in.Ingredients[1].Amount = 32001 }, "ingredients[1].amount"},
		{"タグが空", func(in *Input) { in.Tags = []int64{} }, "tags"},
		{"タグが重複", func(in *Input) { in.Tags = []int64{1, 1} }, "tags must not contain duplicates"},
		{"画像なし", func(in *Input) { in.Image = "" }, "image is required"},
		{"名前なし", func(in *Input) { in.Name = "  " }, "name is required"},
		{"名前がタグのみ", func(in *Input) { in.Name = "<b></b>" }, "name is required"},
		{"名前が長すぎる", func(in *Input) { in.Name = strings.Repeat("a", 201) }, "name must be at most 200 characters"},
		{"説明文なし", func(in *Input) { in.Text = "" }, "text is required"},
		{"調理時間が0", func(in *Input) { in.CookingTime = 0 }, "cooking_time must be at least 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDeps()
			d.recipes.createFn = func(ctx context.Context, rec *model.Recipe, ings []model.RecipeIngredient, tagIDs []int64) error {
				t.Fatal("Create should not be called")
				return nil
			}
			in := validInput()
			tt.mutate(&in)

			_, err := d.service().Create(context.Background(), authorID, in)
			apiErr := assertAPIErrorCode(t, err, model.ErrCodeValidation)
			if !strings.Contains(apiErr.Message, tt.wantReason) {
				t.Errorf("Message = %q, want to contain %q", apiErr.Message, tt.wantReason)
			}
		})
	}
}

// 名前の長さは文字数で数えることを検証
func TestCreate_NameLengthCountsRunes(t *testing.T) {
	d := newTestDeps()
	var created *model.Recipe
	d.recipes.createFn = func(ctx context.Context, rec *model.Recipe, ings []model.RecipeIngredient, tagIDs []int64) error {
		created = rec
		return nil
	}
	d.recipes.findByIDFn = func(ctx context.Context, id string) (*model.Recipe, error) { return created, nil }

	in := validInput()
	in.Name = strings.Repeat("卵", 200)
	if _, err := d.service().Create(context.Background(), authorID, in); err != nil {
		t.Fatalf("200 characters should be accepted: %v", err)
	}
}

func TestCreate_UnknownIngredient(t *testing.T) {
	d := newTestDeps()
	in := validInput()
	in.Ingredients = append(in.Ingredients, IngredientAmount{ID: 42, Amount: 1})

	_, err := d.service().Create(context.Background(), authorID, in)
	apiErr := assertAPIErrorCode(t, err, model.ErrCodeIngredientNotFound)
	if !strings.Contains(apiErr.Message, "42") {
		t.Errorf("Message should name the ingredient: %q", apiErr.Message)
	}
}

func TestCreate_UnknownTag(t *testing.T) {
	d := newTestDeps()
	in := validInput()
	in.Tags = []int64{1, 9}

	_, err := d.service().Create(context.Background(), authorID, in)
	assertAPIErrorCode(t, err, model.ErrCodeTagNotFound)
}

// 存在確認後に参照先が消えた場合もAPIエラーになることを検証
func TestCreate_ReferenceVanished(t *testing.T) {
	d := newTestDeps()
	d.recipes.createFn = func(ctx context.Context, rec *model.Recipe, ings []model.RecipeIngredient, tagIDs []int64) error {
		return repository.ErrReferenceNotFound
	}

	_, err := d.service().Create(context.Background(), authorID, validInput())
	assertAPIErrorCode(t, err, model.ErrCodeValidation)
}

// --- Update / Delete ---

func TestUpdate_ByAuthor(t *testing.T) {
	d := newTestDeps()
	rec := existingRecipe()
	d.recipes.findByIDFn = func(ctx context.Context, id string) (*model.Recipe, error) {
		if id == recipeID1 {
			return rec, nil
		}
		return nil, nil
	}
	var gotIngs []model.RecipeIngredient
	d.recipes.updateFn = func(ctx context.Context, r *model.Recipe, ings []model.RecipeIngredient, tagIDs []int64) error {
		gotIngs = ings
		return nil
	}

	in := validInput()
	in.Name = "Better omelette"
	in.Ingredients = []IngredientAmount{{ID: 1, Amount: 3}}
	view, err := d.service().Update(context.Background(), authorID, recipeID1, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Name != "Better omelette" {
		t.Errorf("Name = %q", view.Name)
	}
	if len(gotIngs) != 1 || gotIngs[0].RecipeID != recipeID1 || gotIngs[0].Amount != 3 {
		t.Errorf("ingredients = %+v", gotIngs)
	}
}

func TestUpdate_ByAdmin(t *testing.T) {
	d := newTestDeps()
	d.recipes.findByIDFn = func(ctx context.Context, id string) (*model.Recipe, error) { return existingRecipe(), nil }

	if _, err := d.service().Update(context.Background(), adminID, recipeID1, validInput()); err != nil {
		t.Fatalf("admin should be able to update: %v", err)
	}
}

func TestUpdate_ByOtherUserIsForbidden(t *testing.T) {
	d := newTestDeps()
	d.recipes.findByIDFn = func(ctx context.Context, id string) (*model.Recipe, error) { return existingRecipe(), nil }
	d.recipes.updateFn = func(ctx context.Context, r *model.Recipe, ings []model.RecipeIngredient, tagIDs []int64) error {
		t.Fatal("Update should not be called")
		return nil
	}

	_, err := d.service().Update(context.Background(), otherID, recipeID1, validInput())
	assertAPIErrorCode(t, err, model.ErrCodeForbidden)
}

func TestUpdate_NotFound(t *testing.T) {
	d := newTestDeps()
	_, err := d.service().Update(context.Background(), authorID, recipeID1, validInput())
	assertAPIErrorCode(t, err, model.ErrCodeRecipeNotFound)
}

func TestDelete_ByAuthor(t *testing.T) {
	d := newTestDeps()
	d.recipes.findByIDFn = func(ctx context.Context, id string) (*model.Recipe, error) { return existingRecipe(), nil }
	deleted := ""
	d.recipes.deleteFn = func(ctx context.Context, id string) error {
		deleted = id
		return nil
	}

	if err := d.service().Delete(context.Background(), authorID, recipeID1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != recipeID1 {
		t.Errorf("deleted = %q, want %q", deleted, recipeID1)
	}
}

func TestDelete_ByOtherUserIsForbidden(t *testing.T) {
	d := newTestDeps()
	d.recipes.findByIDFn = func(ctx context.Context, id string) (*model.Recipe, error) { return existingRecipe(), nil }

	err := d.service().Delete(context.Background(), otherID, recipeID1)
	assertAPIErrorCode(t, err, model.ErrCodeForbidden)
}

// UUID形式でないIDはDBに問い合わせずNotFoundになることを検証
func TestDelete_MalformedID(t *testing.T) {
	d := newTestDeps()
	d.recipes.findByIDFn = func(ctx context.Context, id string) (*model.Recipe, error) {
		t.Fatal("FindByID should not be called")
		return nil, nil
	}

	err := d.service().Delete(context.Background(), authorID, "not-a-uuid")
	assertAPIErrorCode(t, err, model.ErrCodeRecipeNotFound)
}

// --- Get / List ---

func TestGet_ViewerFlags(t *testing.T) {
	d := newTestDeps()
	d.recipes.findByIDFn = func(ctx context.Context, id string) (*model.Recipe, error) { return existingRecipe(), nil }
	d.memberships.members[model.MembershipShoppingCart] = map[string]bool{recipeID1: true}
	d.subs.subscribed[authorID] = true

	view, err := d.service().Get(context.Background(), otherID, recipeID1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !view.IsInShoppingCart {
		t.Error("IsInShoppingCart = false, want true")
	}
	if view.IsFavorited {
		t.Error("IsFavorited = true, want false")
	}
	if !view.Author.IsSubscribed {
		t.Error("Author.IsSubscribed = false, want true")
	}
	if view.Tags == nil || view.Ingredients == nil {
		t.Error("Tags and Ingredients should be non-nil")
	}
}

// 匿名の閲覧者では閲覧者ごとの状態を問い合わせないことを検証
func TestGet_AnonymousViewer(t *testing.T) {
	d := newTestDeps()
	d.recipes.findByIDFn = func(ctx context.Context, id string) (*model.Recipe, error) { return existingRecipe(), nil }

	view, err := d.service().Get(context.Background(), "", recipeID1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.IsFavorited || view.IsInShoppingCart || view.Author.IsSubscribed {
		t.Errorf("anonymous flags should be false: %+v", view)
	}
	if d.memberships.calls != 0 {
		t.Errorf("membership queried %d times, want 0", d.memberships.calls)
	}
}

func TestList_PaginationAndFilters(t *testing.T) {
	d := newTestDeps()
	var got repository.RecipeFilter
	d.recipes.listFn = func(ctx context.Context, filter repository.RecipeFilter) ([]*model.Recipe, int, error) {
		got = filter
		return []*model.Recipe{existingRecipe()}, 13, nil
	}

	page, err := d.service().List(context.Background(), otherID, Filter{
		AuthorID:         authorID,
		TagSlugs:         []string{"breakfast"},
		IsFavorited:      true,
		IsInShoppingCart: true,
		Page:             2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Limit != DefaultPageSize || got.Offset != DefaultPageSize {
		t.Errorf("limit/offset = %d/%d, want %d/%d", got.Limit, got.Offset, DefaultPageSize, DefaultPageSize)
	}
	if got.AuthorID != authorID || got.FavoritedBy != otherID || got.InCartOf != otherID {
		t.Errorf("filter = %+v", got)
	}
	if page.Count != 13 || len(page.Results) != 1 {
		t.Errorf("page = %+v", page)
	}
	if !page.HasNext() || !page.HasPrevious() {
		t.Errorf("page 2 of 13/6 should have next and previous")
	}
}

// 匿名の閲覧者ではis_favorited・is_in_shopping_cartを無視することを検証
func TestList_AnonymousIgnoresViewerFilters(t *testing.T) {
	d := newTestDeps()
	var got repository.RecipeFilter
	d.recipes.listFn = func(ctx context.Context, filter repository.RecipeFilter) ([]*model.Recipe, int, error) {
		got = filter
		return nil, 0, nil
	}

	page, err := d.service().List(context.Background(), "", Filter{IsFavorited: true, IsInShoppingCart: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.FavoritedBy != "" || got.InCartOf != "" {
		t.Errorf("viewer filters should be ignored: %+v", got)
	}
	if page.Results == nil || len(page.Results) != 0 {
		t.Errorf("Results = %v, want empty slice", page.Results)
	}
	if page.HasNext() || page.HasPrevious() {
		t.Error("single empty page should have no neighbours")
	}
}

func TestList_LimitIsCapped(t *testing.T) {
	d := newTestDeps()
	var got repository.RecipeFilter
	d.recipes.listFn = func(ctx context.Context, filter repository.RecipeFilter) ([]*model.Recipe, int, error) {
		got = filter
		return nil, 0, nil
	}
	svc := d.service()
	svc.SetPageSize(10, 50)

	if _, err := svc.List(context.Background(), "", Filter{Limit: 500, Page: -3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Limit != 50 || got.Offset != 0 {
		t.Errorf("limit/offset = %d/%d, want 50/0", got.Limit, got.Offset)
	}
}

func TestList_HugePageIsEmptyNotNegativeOffset(t *testing.T) {
	d := newTestDeps()
	var got repository.RecipeFilter
	d.recipes.listFn = func(ctx context.Context, filter repository.RecipeFilter) ([]*model.Recipe, int, error) {
		got = filter
		return nil, 7, nil
	}

	page, err := d.service().List(context.Background(), "", Filter{Page: math.MaxInt, Limit: 6})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Offset < 0 {
		t.Fatalf("offset = %d, must not be negative", got.Offset)
	}
	if got.Limit != 6 {
		t.Errorf("limit = %d, want 6", got.Limit)
	}
	if page.Count != 7 || len(page.Results) != 0 {
		t.Errorf("count/results = %d/%d, want 7/0", page.Count, len(page.Results))
	}
	if page.HasNext() {
		t.Error("HasNext = true, want false past the last page")
	}
	if !page.HasPrevious() {
		t.Error("HasPrevious = false, want true")
	}
}

func TestPage_HasNext(t *testing.T) {
	tests := []struct {
		page Page
		want bool
	}{
		{Page{Count: 7, Page: 1, Limit: 6}, true},
		{Page{Count: 12, Page: 2, Limit: 6}, false},
		{Page{Count: 0, Page: 1, Limit: 6}, false},
	}
	for _, tt := range tests {
		if got := tt.page.HasNext(); got != tt.want {
			t.Errorf("HasNext(%+v) = %v, want %v", tt.page, got, tt.want)
		}
	}
}

func TestList_InvalidAuthor(t *testing.T) {
	d := newTestDeps()
	_, err := d.service().List(context.Background(), "", Filter{AuthorID: "bob"})
	assertAPIErrorCode(t, err, model.ErrCodeValidation)
}
