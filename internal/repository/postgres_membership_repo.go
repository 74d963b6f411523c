package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/foodgram/internal/model"
)

// PostgresMembershipRepo はPostgreSQLを使用したお気に入り・買い物かごリポジトリ。
// 種別ごとに別テーブルへ保存する。
type PostgresMembershipRepo struct {
	db *sql.DB
}

// NewPostgresMembershipRepo はPostgresMembershipRepoを生成する。
func NewPostgresMembershipRepo(db *sql.DB) *PostgresMembershipRepo {
	return &PostgresMembershipRepo{db: db}
}

// membershipTable は種別に対応するテーブル名を返す。
// テーブル名はSQLに直接埋め込むため、既知の種別以外はエラーとする。
func membershipTable(kind model.MembershipKind) (string, error) {
	switch kind {
	case model.MembershipFavorite:
		return "favorites", nil
	case model.MembershipShoppingCart:
		return "shopping_carts", nil
	default:
		return "", fmt.Errorf("unknown membership kind: %q", kind)
	}
}

// Add は所属関係を作成する。
func (r *PostgresMembershipRepo) Add(ctx context.Context, m *model.Membership) error {
	table, err := membershipTable(m.Kind)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO `+table+` (id, user_id, recipe_id, created_at) VALUES ($1, $2, $3, $4)`,
		m.ID, m.UserID, m.RecipeID, m.CreatedAt,
	)
	if err != nil {
		return wrapWriteError(fmt.Sprintf("%sへの追加に失敗しました", table), err)
	}
	return nil
}

// Remove は所属関係を削除する。削除した場合はtrueを返す。
func (r *PostgresMembershipRepo) Remove(ctx context.Context, kind model.MembershipKind, userID, recipeID string) (bool, error) {
	table, err := membershipTable(kind)
	if err != nil {
		return false, err
	}
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE user_id = $1 AND recipe_id = $2`,
		userID, recipeID,
	)
	if err != nil {
		return false, fmt.Errorf("%sからの削除に失敗しました: %w", table, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return rowsAffected > 0, nil
}

// ListRecipeIDs はユーザーの所属関係にあるレシピIDを追加順で返す。
func (r *PostgresMembershipRepo) ListRecipeIDs(ctx context.Context, kind model.MembershipKind, userID string) ([]string, error) {
	table, err := membershipTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT recipe_id FROM `+table+` WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%sの取得に失敗しました: %w", table, err)
	}
	return scanIDs(rows)
}

// MemberRecipeIDs は指定レシピのうちユーザーの所属関係にあるものを集合で返す。
func (r *PostgresMembershipRepo) MemberRecipeIDs(ctx context.Context, kind model.MembershipKind, userID string, recipeIDs []string) (map[string]bool, error) {
	set := make(map[string]bool, len(recipeIDs))
	if userID == "" || len(recipeIDs) == 0 {
		return set, nil
	}
	table, err := membershipTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT recipe_id FROM `+table+` WHERE user_id = $1 AND recipe_id = ANY($2::uuid[])`,
		userID, pq.Array(recipeIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("%sの判定に失敗しました: %w", table, err)
	}
	ids, err := scanIDs(rows)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ID行の読み取りに失敗しました: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ID一覧の走査に失敗しました: %w", err)
	}
	return ids, nil
}

// compile-time interface check
var _ MembershipRepository = (*PostgresMembershipRepo)(nil)
