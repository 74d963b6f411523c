package model

import "math"

// ClampPage はページ番号を1以上、かつ(page-1)*limitがintに収まる範囲に丸め、
// 丸めたページ番号とオフセットを返す。limitは1以上であること。
func ClampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}
	return page, (page - 1) * limit
}

// HasNextPage はcount件をlimit件ずつ区切ったとき、pageの次のページが存在するかを返す。
func HasNextPage(page, limit, count int) bool {
	if limit <= 0 {
		return false
	}
	return page < (count+limit-1)/limit
}
