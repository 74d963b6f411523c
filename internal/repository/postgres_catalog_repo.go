package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hitoshi/foodgram/internal/model"
)

// PostgresIngredientRepo はPostgreSQLを使用した食材カタログリポジトリ。
type PostgresIngredientRepo struct {
	db *sql.DB
}

// NewPostgresIngredientRepo はPostgresIngredientRepoを生成する。
func NewPostgresIngredientRepo(db *sql.DB) *PostgresIngredientRepo {
	return &PostgresIngredientRepo{db: db}
}

// ListByNamePrefix は名前が前方一致する食材を名前順で返す。
func (r *PostgresIngredientRepo) ListByNamePrefix(ctx context.Context, prefix string) ([]model.Ingredient, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, measurement_unit FROM ingredients
		 WHERE name LIKE $1
		 ORDER BY name, measurement_unit`,
		escapeLike(prefix)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("食材一覧の取得に失敗しました: %w", err)
	}
	return scanIngredients(rows)
}

// FindByIDs は指定IDの食材を返す。
func (r *PostgresIngredientRepo) FindByIDs(ctx context.Context, ids []int64) ([]model.Ingredient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, measurement_unit FROM ingredients WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("食材の取得に失敗しました: %w", err)
	}
	return scanIngredients(rows)
}

// InsertIfAbsent は(name, measurement_unit)が未登録の場合のみ食材を登録する。
func (r *PostgresIngredientRepo) InsertIfAbsent(ctx context.Context, name, measurementUnit string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO ingredients (name, measurement_unit) VALUES ($1, $2)
		 ON CONFLICT (name, measurement_unit) DO NOTHING`,
		name, measurementUnit,
	)
	if err != nil {
		return false, fmt.Errorf("食材の登録に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("登録結果の取得に失敗しました: %w", err)
	}
	return n > 0, nil
}

func scanIngredients(rows *sql.Rows) ([]model.Ingredient, error) {
	defer rows.Close()

	var ingredients []model.Ingredient
	for rows.Next() {
		var ing model.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit); err != nil {
			return nil, fmt.Errorf("食材行の読み取りに失敗しました: %w", err)
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("食材一覧の走査に失敗しました: %w", err)
	}
	return ingredients, nil
}

// escapeLike はLIKEパターンのメタ文字をエスケープする。
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// PostgresTagRepo はPostgreSQLを使用したタグリポジトリ。
type PostgresTagRepo struct {
	db *sql.DB
}

// NewPostgresTagRepo はPostgresTagRepoを生成する。
func NewPostgresTagRepo(db *sql.DB) *PostgresTagRepo {
	return &PostgresTagRepo{db: db}
}

// List は全タグを名前順で返す。
func (r *PostgresTagRepo) List(ctx context.Context) ([]model.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, color, slug FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("タグ一覧の取得に失敗しました: %w", err)
	}
	return scanTags(rows)
}

// FindByIDs は指定IDのタグを返す。
func (r *PostgresTagRepo) FindByIDs(ctx context.Context, ids []int64) ([]model.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, color, slug FROM tags WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("タグの取得に失敗しました: %w", err)
	}
	return scanTags(rows)
}

func scanTags(rows *sql.Rows) ([]model.Tag, error) {
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Color, &tag.Slug); err != nil {
			return nil, fmt.Errorf("タグ行の読み取りに失敗しました: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("タグ一覧の走査に失敗しました: %w", err)
	}
	return tags, nil
}

// compile-time interface check
var (
	_ IngredientRepository = (*PostgresIngredientRepo)(nil)
	_ TagRepository        = (*PostgresTagRepo)(nil)
)
