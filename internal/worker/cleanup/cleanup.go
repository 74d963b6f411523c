// Package cleanup は期限切れセッションの定期削除ジョブを提供する。
// セッションは外部の認証基盤が発行し、本システムは参照と期限切れ削除のみを行う。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SessionCleanupJob は期限切れセッションの削除ジョブ。
// 冪等な削除処理のため、任意の間隔で繰り返し実行してよい。
type SessionCleanupJob struct {
	db     Executor
	logger *slog.Logger
	now    func() time.Time
}

// NewSessionCleanupJob は新しいSessionCleanupJobを生成する。
func NewSessionCleanupJob(db Executor, logger *slog.Logger) *SessionCleanupJob {
	return &SessionCleanupJob{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Run はexpires_atが現在時刻より前のセッションを削除し、削除件数を返す。
// 削除対象がない場合でもエラーにならない。
func (j *SessionCleanupJob) Run(ctx context.Context) (int64, error) {
	start := time.Now()

	result, err := j.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, j.now())
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return deletedCount, nil
}

// Start は起動直後に1回、その後intervalごとにRunを実行する。
// ctxがキャンセルされるまでブロックする。個々の実行の失敗はログに記録して継続する。
func (j *SessionCleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("セッションクリーンアップを開始しました",
		slog.Duration("interval", interval),
	)

	j.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("セッションクリーンアップを停止しました")
			return
		case <-ticker.C:
			j.Run(ctx)
		}
	}
}
