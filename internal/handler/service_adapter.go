package handler

import (
	"context"

	"github.com/hitoshi/foodgram/internal/catalog"
	"github.com/hitoshi/foodgram/internal/membership"
	"github.com/hitoshi/foodgram/internal/model"
	"github.com/hitoshi/foodgram/internal/recipe"
	"github.com/hitoshi/foodgram/internal/shoppinglist"
	"github.com/hitoshi/foodgram/internal/subscription"
	"github.com/hitoshi/foodgram/internal/user"
)

// RecipeServiceAdapter は recipe.Service を RecipeServiceInterface に適合させるアダプタ。
type RecipeServiceAdapter struct {
	svc *recipe.Service
}

// NewRecipeServiceAdapter はRecipeServiceAdapterを生成する。
func NewRecipeServiceAdapter(svc *recipe.Service) *RecipeServiceAdapter {
	return &RecipeServiceAdapter{svc: svc}
}

// List はレシピ一覧をhandlerレスポンス型で返す。
func (a *RecipeServiceAdapter) List(ctx context.Context, viewerID string, params recipeListParams) (*listResult[recipeResponse], error) {
	page, err := a.svc.List(ctx, viewerID, recipe.Filter{
		AuthorID:         params.AuthorID,
		TagSlugs:         params.TagSlugs,
		IsFavorited:      params.IsFavorited,
		IsInShoppingCart: params.IsInShoppingCart,
		Page:             params.Page,
		Limit:            params.Limit,
	})
	if err != nil {
		return nil, err
	}

	results := make([]recipeResponse, len(page.Results))
	for i := range page.Results {
		results[i] = toRecipeResponse(&page.Results[i])
	}
	return &listResult[recipeResponse]{
		Count:       page.Count,
		Page:        page.Page,
		HasNext:     page.HasNext(),
		HasPrevious: page.HasPrevious(),
		Results:     results,
	}, nil
}

// Get はレシピ詳細をhandlerレスポンス型で返す。
func (a *RecipeServiceAdapter) Get(ctx context.Context, viewerID, recipeID string) (*recipeResponse, error) {
	return wrapRecipeView(a.svc.Get(ctx, viewerID, recipeID))
}

// Create はレシピを作成しhandlerレスポンス型で返す。
func (a *RecipeServiceAdapter) Create(ctx context.Context, authorID string, req recipeRequest) (*recipeResponse, error) {
	return wrapRecipeView(a.svc.Create(ctx, authorID, toRecipeInput(req)))
}

// Update はレシピを更新しhandlerレスポンス型で返す。
func (a *RecipeServiceAdapter) Update(ctx context.Context, actorID, recipeID string, req recipeRequest) (*recipeResponse, error) {
	return wrapRecipeView(a.svc.Update(ctx, actorID, recipeID, toRecipeInput(req)))
}

// Delete はレシピを削除する。
func (a *RecipeServiceAdapter) Delete(ctx context.Context, actorID, recipeID string) error {
	return a.svc.Delete(ctx, actorID, recipeID)
}

func wrapRecipeView(v *recipe.View, err error) (*recipeResponse, error) {
	if err != nil {
		return nil, err
	}
	resp := toRecipeResponse(v)
	return &resp, nil
}

func toRecipeInput(req recipeRequest) recipe.Input {
	ingredients := make([]recipe.IngredientAmount, len(req.Ingredients))
	for i, ing := range req.Ingredients {
		ingredients[i] = recipe.IngredientAmount{ID: ing.ID, Amount: ing.Amount}
	}
	return recipe.Input{
		Ingredients: ingredients,
		Tags:        req.Tags,
		Image:       req.Image,
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}
}

// toRecipeResponse はrecipe.ViewをrecipeResponseに変換する。
func toRecipeResponse(v *recipe.View) recipeResponse {
	tags := make([]tagResponse, len(v.Tags))
	for i, t := range v.Tags {
		tags[i] = toTagResponse(t)
	}
	ingredients := make([]recipeIngredientResponse, len(v.Ingredients))
	for i, ing := range v.Ingredients {
		ingredients[i] = recipeIngredientResponse{
			ID:              ing.ID,
			Name:            ing.Name,
			MeasurementUnit: ing.MeasurementUnit,
			Amount:          ing.Amount,
		}
	}
	return recipeResponse{
		ID:               v.ID,
		Tags:             tags,
		Author:           toUserResponse(&v.Author.User, v.Author.IsSubscribed),
		Ingredients:      ingredients,
		IsFavorited:      v.IsFavorited,
		IsInShoppingCart: v.IsInShoppingCart,
		Name:             v.Name,
		Image:            v.Image,
		Text:             v.Text,
		CookingTime:      v.CookingTime,
		PubDate:          v.PubDate,
	}
}

func toRecipeShortResponse(r *model.Recipe) recipeShortResponse {
	return recipeShortResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       r.Image,
		CookingTime: r.CookingTime,
	}
}

// MembershipServiceAdapter は membership.Service を MembershipServiceInterface に適合させるアダプタ。
type MembershipServiceAdapter struct {
	svc *membership.Service
}

// NewMembershipServiceAdapter はMembershipServiceAdapterを生成する。
func NewMembershipServiceAdapter(svc *membership.Service) *MembershipServiceAdapter {
	return &MembershipServiceAdapter{svc: svc}
}

// Add はレシピを追加し短縮レシピ表現で返す。
func (a *MembershipServiceAdapter) Add(ctx context.Context, kind model.MembershipKind, userID, recipeID string) (*recipeShortResponse, error) {
	rec, err := a.svc.Add(ctx, kind, userID, recipeID)
	if err != nil {
		return nil, err
	}
	resp := toRecipeShortResponse(rec)
	return &resp, nil
}

// Remove はレシピを取り除く。
func (a *MembershipServiceAdapter) Remove(ctx context.Context, kind model.MembershipKind, userID, recipeID string) error {
	return a.svc.Remove(ctx, kind, userID, recipeID)
}

// ShoppingListServiceAdapter は shoppinglist.Service を ShoppingListServiceInterface に適合させるアダプタ。
type ShoppingListServiceAdapter struct {
	svc *shoppinglist.Service
}

// NewShoppingListServiceAdapter はShoppingListServiceAdapterを生成する。
func NewShoppingListServiceAdapter(svc *shoppinglist.Service) *ShoppingListServiceAdapter {
	return &ShoppingListServiceAdapter{svc: svc}
}

// Build は買い物リストを集計・整形し、行数とともに返す。
func (a *ShoppingListServiceAdapter) Build(ctx context.Context, userID string) (*ShoppingListDocument, error) {
	report, err := a.svc.Build(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ShoppingListDocument{
		Filename: shoppinglist.Filename,
		Body:     report.Text,
		Lines:    report.Lines,
	}, nil
}

// CatalogServiceAdapter は catalog.Service を CatalogServiceInterface に適合させるアダプタ。
type CatalogServiceAdapter struct {
	svc *catalog.Service
}

// NewCatalogServiceAdapter はCatalogServiceAdapterを生成する。
func NewCatalogServiceAdapter(svc *catalog.Service) *CatalogServiceAdapter {
	return &CatalogServiceAdapter{svc: svc}
}

// ListIngredients は食材一覧をhandlerレスポンス型で返す。
func (a *CatalogServiceAdapter) ListIngredients(ctx context.Context, namePrefix string) ([]ingredientResponse, error) {
	ingredients, err := a.svc.ListIngredients(ctx, namePrefix)
	if err != nil {
		return nil, err
	}
	results := make([]ingredientResponse, len(ingredients))
	for i, ing := range ingredients {
		results[i] = toIngredientResponse(ing)
	}
	return results, nil
}

// GetIngredient は食材をhandlerレスポンス型で返す。
func (a *CatalogServiceAdapter) GetIngredient(ctx context.Context, id int64) (*ingredientResponse, error) {
	ing, err := a.svc.GetIngredient(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toIngredientResponse(*ing)
	return &resp, nil
}

// ListTags はタグ一覧をhandlerレスポンス型で返す。
func (a *CatalogServiceAdapter) ListTags(ctx context.Context) ([]tagResponse, error) {
	tags, err := a.svc.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]tagResponse, len(tags))
	for i, t := range tags {
		results[i] = toTagResponse(t)
	}
	return results, nil
}

// GetTag はタグをhandlerレスポンス型で返す。
func (a *CatalogServiceAdapter) GetTag(ctx context.Context, id int64) (*tagResponse, error) {
	tag, err := a.svc.GetTag(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toTagResponse(*tag)
	return &resp, nil
}

func toIngredientResponse(ing model.Ingredient) ingredientResponse {
	return ingredientResponse{
		ID:              ing.ID,
		Name:            ing.Name,
		MeasurementUnit: ing.MeasurementUnit,
	}
}

func toTagResponse(t model.Tag) tagResponse {
	return tagResponse{
		ID:    t.ID,
		Name:  t.Name,
		Color: t.Color,
		Slug:  t.Slug,
	}
}

// UserServiceAdapter は user.Service を UserServiceInterface に適合させるアダプタ。
type UserServiceAdapter struct {
	svc *user.Service
}

// NewUserServiceAdapter はUserServiceAdapterを生成する。
func NewUserServiceAdapter(svc *user.Service) *UserServiceAdapter {
	return &UserServiceAdapter{svc: svc}
}

// Me はログイン中のユーザーをhandlerレスポンス型で返す。
func (a *UserServiceAdapter) Me(ctx context.Context, userID string) (*userResponse, error) {
	return wrapProfile(a.svc.Me(ctx, userID))
}

// Get は指定ユーザーをhandlerレスポンス型で返す。
func (a *UserServiceAdapter) Get(ctx context.Context, viewerID, userID string) (*userResponse, error) {
	return wrapProfile(a.svc.Get(ctx, viewerID, userID))
}

// Withdraw はユーザーの退会処理を実行する。
func (a *UserServiceAdapter) Withdraw(ctx context.Context, userID string) error {
	return a.svc.Withdraw(ctx, userID)
}

func wrapProfile(p *user.Profile, err error) (*userResponse, error) {
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(&p.User, p.IsSubscribed)
	return &resp, nil
}

func toUserResponse(u *model.User, isSubscribed bool) userResponse {
	return userResponse{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: isSubscribed,
	}
}

// SubscriptionServiceAdapter は subscription.Service を SubscriptionServiceInterface に適合させるアダプタ。
type SubscriptionServiceAdapter struct {
	svc *subscription.Service
}

// NewSubscriptionServiceAdapter はSubscriptionServiceAdapterを生成する。
func NewSubscriptionServiceAdapter(svc *subscription.Service) *SubscriptionServiceAdapter {
	return &SubscriptionServiceAdapter{svc: svc}
}

// List はフォロー一覧をhandlerレスポンス型で返す。
func (a *SubscriptionServiceAdapter) List(ctx context.Context, userID string, recipesLimit, page, limit int) (*listResult[authorResponse], error) {
	p, err := a.svc.List(ctx, userID, recipesLimit, page, limit)
	if err != nil {
		return nil, err
	}
	results := make([]authorResponse, len(p.Results))
	for i := range p.Results {
		results[i] = toAuthorResponse(&p.Results[i])
	}
	return &listResult[authorResponse]{
		Count:       p.Count,
		Page:        p.Page,
		HasNext:     model.HasNextPage(p.Page, p.Limit, p.Count),
		HasPrevious: p.Page > 1,
		Results:     results,
	}, nil
}

// Subscribe は投稿者をフォローしhandlerレスポンス型で返す。
func (a *SubscriptionServiceAdapter) Subscribe(ctx context.Context, userID, authorID string, recipesLimit int) (*authorResponse, error) {
	info, err := a.svc.Subscribe(ctx, userID, authorID, recipesLimit)
	if err != nil {
		return nil, err
	}
	resp := toAuthorResponse(info)
	return &resp, nil
}

// Unsubscribe は投稿者のフォローを解除する。
func (a *SubscriptionServiceAdapter) Unsubscribe(ctx context.Context, userID, authorID string) error {
	return a.svc.Unsubscribe(ctx, userID, authorID)
}

func toAuthorResponse(info *subscription.AuthorInfo) authorResponse {
	recipes := make([]recipeShortResponse, len(info.Recipes))
	for i, r := range info.Recipes {
		recipes[i] = toRecipeShortResponse(r)
	}
	return authorResponse{
		ID:           info.ID,
		Email:        info.Email,
		Username:     info.Username,
		FirstName:    info.FirstName,
		LastName:     info.LastName,
		IsSubscribed: info.IsSubscribed,
		Recipes:      recipes,
		RecipesCount: info.RecipesCount,
	}
}

// コンパイル時にインターフェース実装を検証する。
var (
	_ RecipeServiceInterface       = (*RecipeServiceAdapter)(nil)
	_ MembershipServiceInterface   = (*MembershipServiceAdapter)(nil)
	_ ShoppingListServiceInterface = (*ShoppingListServiceAdapter)(nil)
	_ CatalogServiceInterface      = (*CatalogServiceAdapter)(nil)
	_ UserServiceInterface         = (*UserServiceAdapter)(nil)
	_ SubscriptionServiceInterface = (*SubscriptionServiceAdapter)(nil)
)
