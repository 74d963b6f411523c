package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicate は一意制約違反を表す。
var ErrDuplicate = errors.New("repository: duplicate row")

// ErrReferenceNotFound は外部キー制約違反（参照先が存在しない）を表す。
var ErrReferenceNotFound = errors.New("repository: referenced row not found")

// PostgreSQLのSQLSTATE
const (
	pqUniqueViolation     = pq.ErrorCode("23505")
	pqForeignKeyViolation = pq.ErrorCode("23503")
)

// translatePQError は制約違反のpq.Errorをリポジトリ層のセンチネルエラーに変換する。
// それ以外のエラーはそのまま返す。
func translatePQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		return ErrDuplicate
	case pqForeignKeyViolation:
		return ErrReferenceNotFound
	default:
		return err
	}
}
