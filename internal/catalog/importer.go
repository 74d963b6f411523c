package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/hitoshi/foodgram/internal/repository"
)

// SourceFetcher はURLからインポート元データを取得するインターフェース。
// security.SSRFGuardServiceが満たす。
type SourceFetcher interface {
	Open(ctx context.Context, rawURL string) (io.ReadCloser, error)
}

// ImportRecorder はインポート件数をメトリクスに記録するインターフェース。
type ImportRecorder interface {
	RecordIngredientsImported(count int)
}

// ImportResult はインポート結果の件数。
type ImportResult struct {
	Inserted int // 新規登録した食材数
	Skipped  int // 登録済みまたは空のため登録しなかった行数
}

// Importer はCSVから食材カタログを一括登録する。
// 登録は(name, measurement_unit)が未登録の行のみ行うため、同じファイルを何度取り込んでもよい。
type Importer struct {
	repo     repository.IngredientRepository
	fetcher  SourceFetcher
	recorder ImportRecorder
	logger   *slog.Logger
}

// NewImporter はImporterの新しいインスタンスを生成する。
// recorderはnilでもよい。
func NewImporter(repo repository.IngredientRepository, fetcher SourceFetcher, recorder ImportRecorder, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		repo:     repo,
		fetcher:  fetcher,
		recorder: recorder,
		logger:   logger,
	}
}

// Open はインポート元を開く。http(s)で始まる場合はURLとして取得し、それ以外はローカルファイルとして開く。
func (im *Importer) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	lower := strings.ToLower(source)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		if im.fetcher == nil {
			return nil, errors.New("URL source is not supported without a fetcher")
		}
		return im.fetcher.Open(ctx, source)
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", source, err)
	}
	return f, nil
}

// ImportSource はインポート元を開いて取り込む。
func (im *Importer) ImportSource(ctx context.Context, source string) (ImportResult, error) {
	rc, err := im.Open(ctx, source)
	if err != nil {
		return ImportResult{}, err
	}
	defer rc.Close()

	result, err := im.Import(ctx, rc)
	if err != nil {
		return result, err
	}
	im.logger.Info("ingredients imported",
		slog.String("source", source),
		slog.Int("inserted", result.Inserted),
		slog.Int("skipped", result.Skipped),
	)
	return result, nil
}

// Import はCSV（name,measurement_unit）を読み込み食材を登録する。
// 先頭行がヘッダーと一致する場合は読み飛ばす。空行は無視される。
func (im *Importer) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	var result ImportResult

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	first := true
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, fmt.Errorf("CSVの読み込みに失敗しました: %w", err)
		}

		if first {
			first = false
			if len(record) > 0 {
				record[0] = strings.TrimPrefix(record[0], "\ufeff")
			}
			if isHeader(record) {
				continue
			}
		}

		if isBlank(record) {
			continue
		}
		if len(record) < 2 {
			line, _ := reader.FieldPos(0)
			return result, fmt.Errorf("CSVの%d行目の列数が不足しています", line)
		}

		name := strings.TrimSpace(record[0])
		unit := strings.TrimSpace(record[1])
		if name == "" || unit == "" {
			result.Skipped++
			continue
		}

		inserted, err := im.repo.InsertIfAbsent(ctx, name, unit)
		if err != nil {
			return result, err
		}
		if inserted {
			result.Inserted++
		} else {
			result.Skipped++
		}
	}

	if im.recorder != nil && result.Inserted > 0 {
		im.recorder.RecordIngredientsImported(result.Inserted)
	}
	return result, nil
}

func isHeader(record []string) bool {
	return len(record) >= 2 &&
		strings.EqualFold(strings.TrimSpace(record[0]), "name") &&
		strings.EqualFold(strings.TrimSpace(record[1]), "measurement_unit")
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
