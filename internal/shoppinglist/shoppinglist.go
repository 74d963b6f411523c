// Package shoppinglist は買い物かごのレシピから食材ごとに合算した買い物リストを生成する。
package shoppinglist

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hitoshi/foodgram/internal/model"
)

// Header は買い物リストの先頭行。
const Header = "Shopping list:"

// Filename はダウンロード時の添付ファイル名。
const Filename = "shopping_list.txt"

// CartReader は買い物かごのレシピIDを取得するインターフェース。
type CartReader interface {
	ListRecipeIDs(ctx context.Context, kind model.MembershipKind, userID string) ([]string, error)
}

// IngredientRowReader はレシピ群の食材行を取得するインターフェース。
type IngredientRowReader interface {
	ListIngredientRowsForRecipes(ctx context.Context, recipeIDs []string) ([]model.IngredientRow, error)
}

// Line は買い物リストの1行（食材1種類分の合計）を表す。
type Line struct {
	Name            string
	MeasurementUnit string
	Amount          int64
}

// Aggregate は食材行を食材IDごとに合算し、名前・単位の昇順に並べて返す。
// 行の走査は1回のみ。
func Aggregate(rows []model.IngredientRow) []Line {
	index := make(map[int64]int, len(rows))
	lines := make([]Line, 0, len(rows))

	for _, row := range rows {
		if i, ok := index[row.IngredientID]; ok {
			lines[i].Amount += int64(row.Amount)
			continue
		}
		index[row.IngredientID] = len(lines)
		lines = append(lines, Line{
			Name:            row.Name,
			MeasurementUnit: row.MeasurementUnit,
			Amount:          int64(row.Amount),
		})
	}

	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Name != lines[j].Name {
			return lines[i].Name < lines[j].Name
		}
		return lines[i].MeasurementUnit < lines[j].MeasurementUnit
	})
	return lines
}

// Render はヘッダー行と各行を改行区切りのテキストに整形する。
func Render(lines []Line) string {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteByte('\n')
	for _, l := range lines {
		b.WriteString(l.Name)
		b.WriteString(" — ")
		b.WriteString(strconv.FormatInt(l.Amount, 10))
		b.WriteByte(' ')
		b.WriteString(l.MeasurementUnit)
		b.WriteByte('\n')
	}
	return b.String()
}

// Service は買い物リストの生成を担う。読み取り専用で状態を持たない。
type Service struct {
	cart CartReader
	rows IngredientRowReader
}

// NewService は新しいServiceを生成する。
func NewService(cart CartReader, rows IngredientRowReader) *Service {
	return &Service{cart: cart, rows: rows}
}

// Lines は指定ユーザーの買い物かごから合算済みの行を返す。
// かごが空の場合は空スライスを返し、食材行の取得は行わない。
func (s *Service) Lines(ctx context.Context, userID string) ([]Line, error) {
	recipeIDs, err := s.cart.ListRecipeIDs(ctx, model.MembershipShoppingCart, userID)
	if err != nil {
		return nil, fmt.Errorf("買い物かごの取得に失敗しました: %w", err)
	}
	if len(recipeIDs) == 0 {
		return []Line{}, nil
	}

	rows, err := s.rows.ListIngredientRowsForRecipes(ctx, recipeIDs)
	if err != nil {
		return nil, fmt.Errorf("食材行の取得に失敗しました: %w", err)
	}
	return Aggregate(rows), nil
}

// Report は整形済みの買い物リストと、ヘッダーを除いた行数。
type Report struct {
	Text  string
	Lines int
}

// Build は指定ユーザーの買い物リストをテキストで返す。
func (s *Service) Build(ctx context.Context, userID string) (*Report, error) {
	lines, err := s.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Report{Text: Render(lines), Lines: len(lines)}, nil
}
