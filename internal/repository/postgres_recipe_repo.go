package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hitoshi/foodgram/internal/model"
)

// PostgresRecipeRepo はPostgreSQLを使用したレシピリポジトリ。
type PostgresRecipeRepo struct {
	db *sql.DB
}

// NewPostgresRecipeRepo はPostgresRecipeRepoを生成する。
func NewPostgresRecipeRepo(db *sql.DB) *PostgresRecipeRepo {
	return &PostgresRecipeRepo{db: db}
}

const recipeColumns = `r.id, r.author_id, r.name, r.image, r.text, r.cooking_time, r.pub_date, r.updated_at`

func scanRecipe(row rowScanner) (*model.Recipe, error) {
	rec := &model.Recipe{}
	if err := row.Scan(&rec.ID, &rec.AuthorID, &rec.Name, &rec.Image, &rec.Text, &rec.CookingTime, &rec.PubDate, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	return rec, nil
}

func scanRecipes(rows *sql.Rows) ([]*model.Recipe, error) {
	defer rows.Close()

	var recipes []*model.Recipe
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("レシピ行の読み取りに失敗しました: %w", err)
		}
		recipes = append(recipes, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("レシピ一覧の走査に失敗しました: %w", err)
	}
	return recipes, nil
}

// FindByID は指定IDのレシピを取得する。見つからない場合はnilを返す。
func (r *PostgresRecipeRepo) FindByID(ctx context.Context, id string) (*model.Recipe, error) {
	rec, err := scanRecipe(r.db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes r WHERE r.id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("レシピの取得に失敗しました: %w", err)
	}
	return rec, nil
}

// buildRecipeWhere はフィルタ条件からWHERE句とプレースホルダ引数を組み立てる。
// 条件がない場合は空文字列を返す。
func buildRecipeWhere(filter RecipeFilter) (string, []any) {
	var conds []string
	var args []any

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.AuthorID != "" {
		conds = append(conds, "r.author_id = "+next(filter.AuthorID))
	}
	if len(filter.TagSlugs) > 0 {
		conds = append(conds,
			`EXISTS (SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
			 WHERE rt.recipe_id = r.id AND t.slug = ANY(`+next(pq.Array(filter.TagSlugs))+`))`)
	}
	if filter.FavoritedBy != "" {
		conds = append(conds,
			`EXISTS (SELECT 1 FROM favorites fv WHERE fv.recipe_id = r.id AND fv.user_id = `+next(filter.FavoritedBy)+`)`)
	}
	if filter.InCartOf != "" {
		conds = append(conds,
			`EXISTS (SELECT 1 FROM shopping_carts sc WHERE sc.recipe_id = r.id AND sc.user_id = `+next(filter.InCartOf)+`)`)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List は条件に一致するレシピを公開日時の降順で返す。
func (r *PostgresRecipeRepo) List(ctx context.Context, filter RecipeFilter) ([]*model.Recipe, int, error) {
	where, args := buildRecipeWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes r`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("レシピ件数の取得に失敗しました: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	query := `SELECT ` + recipeColumns + ` FROM recipes r` + where + ` ORDER BY r.pub_date DESC, r.id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("レシピ一覧の取得に失敗しました: %w", err)
	}
	recipes, err := scanRecipes(rows)
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// ListByAuthor は投稿者のレシピを公開日時の降順で返す。
func (r *PostgresRecipeRepo) ListByAuthor(ctx context.Context, authorID string, limit int) ([]*model.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes r WHERE r.author_id = $1 ORDER BY r.pub_date DESC, r.id`
	args := []any{authorID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("投稿者のレシピ一覧の取得に失敗しました: %w", err)
	}
	return scanRecipes(rows)
}

// CountByAuthors は投稿者ごとのレシピ数を返す。レシピのない投稿者は含まれない。
func (r *PostgresRecipeRepo) CountByAuthors(ctx context.Context, authorIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT author_id, COUNT(*) FROM recipes
		 WHERE author_id = ANY($1::uuid[])
		 GROUP BY author_id`,
		pq.Array(authorIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("投稿者ごとのレシピ数の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var authorID string
		var n int
		if err := rows.Scan(&authorID, &n); err != nil {
			return nil, fmt.Errorf("レシピ数の読み取りに失敗しました: %w", err)
		}
		counts[authorID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("レシピ数の走査に失敗しました: %w", err)
	}
	return counts, nil
}

// Create はレシピ、食材行、タグ行を同一トランザクションで作成する。
// 存在しない食材・タグを参照した場合はErrReferenceNotFoundを返す。
func (r *PostgresRecipeRepo) Create(ctx context.Context, recipe *model.Recipe, ingredients []model.RecipeIngredient, tagIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO recipes (id, author_id, name, image, text, cooking_time, pub_date, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		recipe.ID, recipe.AuthorID, recipe.Name, recipe.Image, recipe.Text, recipe.CookingTime, recipe.PubDate, recipe.UpdatedAt,
	)
	if err != nil {
		return wrapWriteError("レシピの作成に失敗しました", err)
	}

	if err := insertRecipeRelations(ctx, tx, recipe.ID, ingredients, tagIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Update はレシピを更新し、食材行とタグ行を同一トランザクションで置き換える。
func (r *PostgresRecipeRepo) Update(ctx context.Context, recipe *model.Recipe, ingredients []model.RecipeIngredient, tagIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE recipes SET name = $2, image = $3, text = $4, cooking_time = $5, updated_at = $6
		 WHERE id = $1`,
		recipe.ID, recipe.Name, recipe.Image, recipe.Text, recipe.CookingTime, recipe.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("レシピの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("レシピが見つかりません: %s: %w", recipe.ID, ErrReferenceNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipe.ID); err != nil {
		return fmt.Errorf("食材行の削除に失敗しました: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = $1`, recipe.ID); err != nil {
		return fmt.Errorf("タグ行の削除に失敗しました: %w", err)
	}

	if err := insertRecipeRelations(ctx, tx, recipe.ID, ingredients, tagIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// insertRecipeRelations は食材行とタグ行をunnestで一括挿入する。
func insertRecipeRelations(ctx context.Context, tx *sql.Tx, recipeID string, ingredients []model.RecipeIngredient, tagIDs []int64) error {
	if len(ingredients) > 0 {
		ids := make([]int64, len(ingredients))
		amounts := make([]int64, len(ingredients))
		for i, ing := range ingredients {
			ids[i] = ing.IngredientID
			amounts[i] = int64(ing.Amount)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount)
			 SELECT $1, u.ingredient_id, u.amount
			 FROM unnest($2::bigint[], $3::int[]) AS u(ingredient_id, amount)`,
			recipeID, pq.Array(ids), pq.Array(amounts),
		)
		if err != nil {
			return wrapWriteError("食材行の作成に失敗しました", err)
		}
	}

	if len(tagIDs) > 0 {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_tags (recipe_id, tag_id)
			 SELECT $1, unnest($2::bigint[])`,
			recipeID, pq.Array(tagIDs),
		)
		if err != nil {
			return wrapWriteError("タグ行の作成に失敗しました", err)
		}
	}
	return nil
}

// wrapWriteError は制約違反をセンチネルエラーとして判定できる形でラップする。
func wrapWriteError(msg string, err error) error {
	if translated := translatePQError(err); errors.Is(translated, ErrDuplicate) || errors.Is(translated, ErrReferenceNotFound) {
		return fmt.Errorf("%s: %w", msg, translated)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Delete は指定IDのレシピを削除する。
func (r *PostgresRecipeRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("レシピの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("レシピが見つかりません: %s", id)
	}
	return nil
}

// IngredientsByRecipe はレシピごとの食材を食材名順で返す。
func (r *PostgresRecipeRepo) IngredientsByRecipe(ctx context.Context, recipeIDs []string) (map[string][]model.RecipeIngredientView, error) {
	result := make(map[string][]model.RecipeIngredientView, len(recipeIDs))
	rows, err := r.ListIngredientRowsForRecipes(ctx, recipeIDs)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.RecipeID] = append(result[row.RecipeID], model.RecipeIngredientView{
			Ingredient: model.Ingredient{
				ID:              row.IngredientID,
				Name:            row.Name,
				MeasurementUnit: row.MeasurementUnit,
			},
			Amount: row.Amount,
		})
	}
	return result, nil
}

// TagsByRecipe はレシピごとのタグを名前順で返す。
func (r *PostgresRecipeRepo) TagsByRecipe(ctx context.Context, recipeIDs []string) (map[string][]model.Tag, error) {
	result := make(map[string][]model.Tag, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT rt.recipe_id, t.id, t.name, t.color, t.slug
		 FROM recipe_tags rt
		 JOIN tags t ON t.id = rt.tag_id
		 WHERE rt.recipe_id = ANY($1::uuid[])
		 ORDER BY t.name`,
		pq.Array(recipeIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("レシピのタグ取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipeID string
		var tag model.Tag
		if err := rows.Scan(&recipeID, &tag.ID, &tag.Name, &tag.Color, &tag.Slug); err != nil {
			return nil, fmt.Errorf("タグ行の読み取りに失敗しました: %w", err)
		}
		result[recipeID] = append(result[recipeID], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("タグ行の走査に失敗しました: %w", err)
	}
	return result, nil
}

// ListIngredientRowsForRecipes は指定レシピ群の食材行を食材カタログと結合して返す。
// recipesとのINNER JOINにより、削除済みレシピの行は含まれない。
func (r *PostgresRecipeRepo) ListIngredientRowsForRecipes(ctx context.Context, recipeIDs []string) ([]model.IngredientRow, error) {
	if len(recipeIDs) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
		 FROM recipe_ingredients ri
		 JOIN recipes r ON r.id = ri.recipe_id
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE ri.recipe_id = ANY($1::uuid[])
		 ORDER BY i.name, i.measurement_unit`,
		pq.Array(recipeIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("食材行の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var result []model.IngredientRow
	for rows.Next() {
		var row model.IngredientRow
		if err := rows.Scan(&row.RecipeID, &row.IngredientID, &row.Name, &row.MeasurementUnit, &row.Amount); err != nil {
			return nil, fmt.Errorf("食材行の読み取りに失敗しました: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("食材行の走査に失敗しました: %w", err)
	}
	return result, nil
}

// compile-time interface check
var _ RecipeRepository = (*PostgresRecipeRepo)(nil)
