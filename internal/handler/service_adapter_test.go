package handler

import (
	"context"
	"testing"
	"time"

	"github.com/hitoshi/foodgram/internal/model"
	"github.com/hitoshi/foodgram/internal/recipe"
	"github.com/hitoshi/foodgram/internal/shoppinglist"
	"github.com/hitoshi/foodgram/internal/subscription"
)

type stubCart struct {
	recipeIDs []string
}

func (s *stubCart) ListRecipeIDs(ctx context.Context, kind model.MembershipKind, userID string) ([]string, error) {
	return s.recipeIDs, nil
}

type stubRows struct {
	rows []model.IngredientRow
}

func (s *stubRows) ListIngredientRowsForRecipes(ctx context.Context, recipeIDs []string) ([]model.IngredientRow, error) {
	return s.rows, nil
}

func TestShoppingListServiceAdapter_Build(t *testing.T) {
	svc := shoppinglist.NewService(
		&stubCart{recipeIDs: []string{"r1", "r2"}},
		&stubRows{rows: []model.IngredientRow{
			{RecipeID: "r1", IngredientID: 1, Name: "Egg", MeasurementUnit: "pcs", Amount: 2},
			{RecipeID: "r1", IngredientID: 2, Name: "Milk", MeasurementUnit: "ml", Amount: 200},
			{RecipeID: "r2", IngredientID: 1, Name: "Egg", MeasurementUnit: "pcs", Amount: 3},
		}},
	)
	a := NewShoppingListServiceAdapter(svc)

	doc, err := a.Build(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	const want = "Shopping list:\nEgg — 5 pcs\nMilk — 200 ml\n"
	if doc.Body != want {
		t.Errorf("Body = %q, want %q", doc.Body, want)
	}
	if doc.Lines != 2 {
		t.Errorf("Lines = %d, want 2", doc.Lines)
	}
	if doc.Filename != shoppinglist.Filename {
		t.Errorf("Filename = %q, want %q", doc.Filename, shoppinglist.Filename)
	}
}

func TestShoppingListServiceAdapter_Build_EmptyCart(t *testing.T) {
	a := NewShoppingListServiceAdapter(shoppinglist.NewService(&stubCart{}, &stubRows{}))

	doc, err := a.Build(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if doc.Body != "Shopping list:\n" || doc.Lines != 0 {
		t.Errorf("doc = %+v, want header only", doc)
	}
}

func TestToRecipeResponse(t *testing.T) {
	pub := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	v := &recipe.View{
		Recipe: model.Recipe{
			ID:          testRecipeID,
			AuthorID:    testAuthorID,
			Name:        "Omelette",
			Image:       "img",
			Text:        "Beat the eggs.",
			CookingTime: 10,
			PubDate:     pub,
		},
		Author: recipe.Author{
			User:         model.User{ID: testAuthorID, Username: "chef"},
			IsSubscribed: true,
		},
		Tags: []model.Tag{{ID: 1, Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"}},
		Ingredients: []model.RecipeIngredientView{
			{Ingredient: model.Ingredient{ID: 1, Name: "Egg", MeasurementUnit: "pcs"}, Amount: 2},
		},
		IsInShoppingCart: true,
	}

	got := toRecipeResponse(v)

	if got.ID != testRecipeID || got.Name != "Omelette" || got.CookingTime != 10 || !got.PubDate.Equal(pub) {
		t.Errorf("recipe fields = %+v", got)
	}
	if got.Author.ID != testAuthorID || !got.Author.IsSubscribed {
		t.Errorf("Author = %+v", got.Author)
	}
	if len(got.Tags) != 1 || got.Tags[0].Slug != "breakfast" {
		t.Errorf("Tags = %+v", got.Tags)
	}
	if len(got.Ingredients) != 1 || got.Ingredients[0] != (recipeIngredientResponse{ID: 1, Name: "Egg", MeasurementUnit: "pcs", Amount: 2}) {
		t.Errorf("Ingredients = %+v", got.Ingredients)
	}
	if got.IsFavorited || !got.IsInShoppingCart {
		t.Errorf("flags = (%v, %v), want (false, true)", got.IsFavorited, got.IsInShoppingCart)
	}
}

func TestToRecipeInput(t *testing.T) {
	in := toRecipeInput(recipeRequest{
		Ingredients: []recipeIngredientRequest{{ID: 3, Amount: 7}},
		Tags:        []int64{2},
		Image:       "img",
		Name:        "Soup",
		Text:        "Boil.",
		CookingTime: 30,
	})

	if len(in.Ingredients) != 1 || in.Ingredients[0] != (recipe.IngredientAmount{ID: 3, Amount: 7}) {
		t.Errorf("Ingredients = %+v", in.Ingredients)
	}
	if in.Name != "Soup" || in.Text != "Boil." || in.Image != "img" || in.CookingTime != 30 || len(in.Tags) != 1 {
		t.Errorf("input = %+v", in)
	}
}

func TestToAuthorResponse(t *testing.T) {
	info := &subscription.AuthorInfo{
		User:         model.User{ID: testAuthorID, Email: "chef@example.com", Username: "chef"},
		IsSubscribed: true,
		Recipes:      []*model.Recipe{{ID: testRecipeID, Name: "Omelette", Image: "img", CookingTime: 10}},
		RecipesCount: 4,
	}

	got := toAuthorResponse(info)

	if got.ID != testAuthorID || got.Email != "chef@example.com" || !got.IsSubscribed || got.RecipesCount != 4 {
		t.Errorf("author = %+v", got)
	}
	if len(got.Recipes) != 1 || got.Recipes[0] != (recipeShortResponse{ID: testRecipeID, Name: "Omelette", Image: "img", CookingTime: 10}) {
		t.Errorf("Recipes = %+v", got.Recipes)
	}
}
