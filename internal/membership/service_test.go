package membership

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/foodgram/internal/model"
	"github.com/hitoshi/foodgram/internal/repository"
)

const (
	userID   = "11111111-1111-1111-1111-111111111111"
	recipeID = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
)

// --- モック定義 ---

type mockRecipeFinder struct {
	recipes map[string]*model.Recipe
	err     error
}

func (m *mockRecipeFinder) FindByID(ctx context.Context, id string) (*model.Recipe, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.recipes[id], nil
}

// memoryMembershipRepo は一意制約を模したテスト用ストア。
type memoryMembershipRepo struct {
	rows   map[model.MembershipKind]map[string]bool // kind -> userID+recipeID
	addErr error
}

func newMemoryRepo() *memoryMembershipRepo {
	return &memoryMembershipRepo{rows: map[model.MembershipKind]map[string]bool{}}
}

func (m *memoryMembershipRepo) Add(ctx context.Context, mem *model.Membership) error {
	if m.addErr != nil {
		return m.addErr
	}
	key := mem.UserID + "/" + mem.RecipeID
	if m.rows[mem.Kind] == nil {
		m.rows[mem.Kind] = map[string]bool{}
	}
	if m.rows[mem.Kind][key] {
		return repository.ErrDuplicate
	}
	m.rows[mem.Kind][key] = true
	return nil
}

func (m *memoryMembershipRepo) Remove(ctx context.Context, kind model.MembershipKind, uid, rid string) (bool, error) {
	key := uid + "/" + rid
	if !m.rows[kind][key] {
		return false, nil
	}
	delete(m.rows[kind], key)
	return true, nil
}

func (m *memoryMembershipRepo) ListRecipeIDs(ctx context.Context, kind model.MembershipKind, uid string) ([]string, error) {
	return nil, nil
}

func (m *memoryMembershipRepo) MemberRecipeIDs(ctx context.Context, kind model.MembershipKind, uid string, ids []string) (map[string]bool, error) {
	return nil, nil
}

type mockRecorder struct {
	actions []string
}

func (m *mockRecorder) RecordCartMutation(action string) {
	m.actions = append(m.actions, action)
}

func newTestService() (*Service, *memoryMembershipRepo, *mockRecorder) {
	repo := newMemoryRepo()
	recorder := &mockRecorder{}
	finder := &mockRecipeFinder{recipes: map[string]*model.Recipe{
		recipeID: {ID: recipeID, Name: "Omelette", Image: "img", CookingTime: 10},
	}}
	return NewService(finder, repo, recorder), repo, recorder
}

func apiErrorCode(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// --- テスト ---

func TestAdd_ReturnsRecipe(t *testing.T) {
	svc, _, recorder := newTestService()

	rec, err := svc.Add(context.Background(), model.MembershipShoppingCart, userID, recipeID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != recipeID || rec.Name != "Omelette" {
		t.Errorf("recipe = %+v", rec)
	}
	if len(recorder.actions) != 1 || recorder.actions[0] != ActionAdd {
		t.Errorf("recorded actions = %v, want [add]", recorder.actions)
	}
}

// 同じレシピの2回目の追加がConflictになることを検証
func TestAdd_DuplicateIsConflict(t *testing.T) {
	tests := []struct {
		kind model.MembershipKind
		code string
	}{
		{model.MembershipShoppingCart, model.ErrCodeRecipeAlreadyInCart},
		{model.MembershipFavorite, model.ErrCodeRecipeAlreadyFavorite},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			svc, _, _ := newTestService()
			ctx := context.Background()

			if _, err := svc.Add(ctx, tt.kind, userID, recipeID); err != nil {
				t.Fatalf("first Add: %v", err)
			}
			_, err := svc.Add(ctx, tt.kind, userID, recipeID)
			if got := apiErrorCode(err); got != tt.code {
				t.Fatalf("code = %q, want %q (err=%v)", got, tt.code, err)
			}
		})
	}
}

// お気に入りと買い物かごは独立していることを検証
func TestAdd_KindsAreIndependent(t *testing.T) {
	svc, _, recorder := newTestService()
	ctx := context.Background()

	if _, err := svc.Add(ctx, model.MembershipFavorite, userID, recipeID); err != nil {
		t.Fatalf("favorite Add: %v", err)
	}
	if _, err := svc.Add(ctx, model.MembershipShoppingCart, userID, recipeID); err != nil {
		t.Fatalf("cart Add after favorite: %v", err)
	}
	if len(recorder.actions) != 1 {
		t.Errorf("only cart mutations should be recorded: %v", recorder.actions)
	}
}

func TestAdd_RecipeNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Add(context.Background(), model.MembershipShoppingCart, userID, "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb")
	if got := apiErrorCode(err); got != model.ErrCodeRecipeNotFound {
		t.Fatalf("code = %q, want %q", got, model.ErrCodeRecipeNotFound)
	}
}

func TestAdd_MalformedRecipeID(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Add(context.Background(), model.MembershipShoppingCart, userID, "42")
	if got := apiErrorCode(err); got != model.ErrCodeRecipeNotFound {
		t.Fatalf("code = %q, want %q", got, model.ErrCodeRecipeNotFound)
	}
}

// 存在確認後にレシピが削除された場合もNotFoundになることを検証
func TestAdd_RecipeDeletedConcurrently(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.addErr = repository.ErrReferenceNotFound

	_, err := svc.Add(context.Background(), model.MembershipShoppingCart, userID, recipeID)
	if got := apiErrorCode(err); got != model.ErrCodeRecipeNotFound {
		t.Fatalf("code = %q, want %q", got, model.ErrCodeRecipeNotFound)
	}
}

func TestAdd_StoreError(t *testing.T) {
	svc, repo, recorder := newTestService()
	storeErr := errors.New("connection refused")
	repo.addErr = storeErr

	_, err := svc.Add(context.Background(), model.MembershipShoppingCart, userID, recipeID)
	if !errors.Is(err, storeErr) {
		t.Fatalf("err = %v, want wrapped %v", err, storeErr)
	}
	if len(recorder.actions) != 0 {
		t.Errorf("failed mutation should not be recorded: %v", recorder.actions)
	}
}

func TestRemove(t *testing.T) {
	svc, _, recorder := newTestService()
	ctx := context.Background()

	if _, err := svc.Add(ctx, model.MembershipShoppingCart, userID, recipeID); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := svc.Remove(ctx, model.MembershipShoppingCart, userID, recipeID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(recorder.actions) != 2 || recorder.actions[1] != ActionRemove {
		t.Errorf("recorded actions = %v, want [add remove]", recorder.actions)
	}
}

// 追加されていないレシピの削除がNotFoundになることを検証
func TestRemove_AbsentIsNotFound(t *testing.T) {
	tests := []struct {
		kind model.MembershipKind
		code string
	}{
		{model.MembershipShoppingCart, model.ErrCodeRecipeNotInCart},
		{model.MembershipFavorite, model.ErrCodeRecipeNotFavorite},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			svc, _, _ := newTestService()

			err := svc.Remove(context.Background(), tt.kind, userID, recipeID)
			if got := apiErrorCode(err); got != tt.code {
				t.Fatalf("code = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestRemove_RecipeNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.Remove(context.Background(), model.MembershipFavorite, userID, "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb")
	if got := apiErrorCode(err); got != model.ErrCodeRecipeNotFound {
		t.Fatalf("code = %q, want %q", got, model.ErrCodeRecipeNotFound)
	}
}
