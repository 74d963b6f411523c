// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestDuration(duration time.Duration)
	RecordShoppingListDownload(lines int)
	RecordCartMutation(action string)
	RecordIngredientsImported(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus          *prometheus.CounterVec
	requestDuration     prometheus.Histogram
	shoppingListDL      prometheus.Counter
	shoppingListLines   prometheus.Histogram
	cartMutations       *prometheus.CounterVec
	ingredientsImported prometheus.Counter
}

// コンパイル時にインターフェース準拠を検証する。
var _ MetricsCollector = (*Collector)(nil)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodgram_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "foodgram_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		shoppingListDL: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodgram_shopping_list_downloads_total",
			Help: "買い物リストのダウンロード数",
		}),
		shoppingListLines: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "foodgram_shopping_list_lines",
			Help:    "ダウンロードされた買い物リストの行数",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		}),
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodgram_cart_mutations_total",
			Help: "買い物かごの追加・削除数",
		}, []string{"action"}),
		ingredientsImported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodgram_ingredients_imported_total",
			Help: "インポートで登録された食材の合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestDuration,
		c.shoppingListDL,
		c.shoppingListLines,
		c.cartMutations,
		c.ingredientsImported,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestDuration はリクエストの処理時間を記録する。
func (c *Collector) RecordRequestDuration(duration time.Duration) {
	c.requestDuration.Observe(duration.Seconds())
}

// RecordShoppingListDownload は買い物リストのダウンロードと行数を記録する。
func (c *Collector) RecordShoppingListDownload(lines int) {
	c.shoppingListDL.Inc()
	c.shoppingListLines.Observe(float64(lines))
}

// RecordCartMutation は買い物かごの変更を操作種別ごとに記録する。
func (c *Collector) RecordCartMutation(action string) {
	c.cartMutations.WithLabelValues(action).Inc()
}

// RecordIngredientsImported はインポートで登録された食材数を記録する。
func (c *Collector) RecordIngredientsImported(count int) {
	c.ingredientsImported.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
