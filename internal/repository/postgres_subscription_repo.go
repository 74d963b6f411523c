package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/foodgram/internal/model"
)

// PostgresSubscriptionRepo はPostgreSQLを使用したフォローリポジトリ。
type PostgresSubscriptionRepo struct {
	db *sql.DB
}

// NewPostgresSubscriptionRepo はPostgresSubscriptionRepoを生成する。
func NewPostgresSubscriptionRepo(db *sql.DB) *PostgresSubscriptionRepo {
	return &PostgresSubscriptionRepo{db: db}
}

// Create はフォロー関係を作成する。
func (r *PostgresSubscriptionRepo) Create(ctx context.Context, sub *model.Subscription) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions (id, user_id, author_id, created_at) VALUES ($1, $2, $3, $4)`,
		sub.ID, sub.UserID, sub.AuthorID, sub.CreatedAt,
	)
	if err != nil {
		return wrapWriteError("フォローの作成に失敗しました", err)
	}
	return nil
}

// Delete はフォロー関係を削除する。削除した場合はtrueを返す。
func (r *PostgresSubscriptionRepo) Delete(ctx context.Context, userID, authorID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE user_id = $1 AND author_id = $2`,
		userID, authorID,
	)
	if err != nil {
		return false, fmt.Errorf("フォローの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return rowsAffected > 0, nil
}

// SubscribedAuthorIDs は指定投稿者のうちユーザーがフォローしているものを集合で返す。
func (r *PostgresSubscriptionRepo) SubscribedAuthorIDs(ctx context.Context, userID string, authorIDs []string) (map[string]bool, error) {
	set := make(map[string]bool, len(authorIDs))
	if userID == "" || len(authorIDs) == 0 {
		return set, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT author_id FROM subscriptions WHERE user_id = $1 AND author_id = ANY($2::uuid[])`,
		userID, pq.Array(authorIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("フォロー状態の取得に失敗しました: %w", err)
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

// ListAuthors はユーザーがフォローしている投稿者をusername順で返す。
func (r *PostgresSubscriptionRepo) ListAuthors(ctx context.Context, userID string, limit, offset int) ([]*model.User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE user_id = $1`,
		userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("フォロー数の取得に失敗しました: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	query := `SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.is_admin, u.created_at, u.updated_at
		 FROM subscriptions s
		 JOIN users u ON u.id = s.author_id
		 WHERE s.user_id = $1
		 ORDER BY u.username`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("フォロー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var authors []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("投稿者行の読み取りに失敗しました: %w", err)
		}
		authors = append(authors, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("フォロー一覧の走査に失敗しました: %w", err)
	}
	return authors, total, nil
}

// compile-time interface check
var _ SubscriptionRepository = (*PostgresSubscriptionRepo)(nil)
