package model

import "github.com/google/uuid"

// IsValidID はUUID形式のIDかどうかを返す。
// パスパラメータ由来のIDをDBに渡す前の検証に使用する。
func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
