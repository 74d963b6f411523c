package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// gatherFamily は指定名のメトリクスファミリーを取得する。
func gatherFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestNewCollector_DoubleRegisterPanics は同一レジストリへの二重登録がpanicすることを検証する。
func TestNewCollector_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = NewCollector(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	_ = NewCollector(reg)
}

// TestRecordHTTPStatus_LabelsByCode はステータスコード別にカウントされることを検証する。
func TestRecordHTTPStatus_LabelsByCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	mf := gatherFamily(t, reg, "foodgram_http_status_total")
	got := map[string]float64{}
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "status_code" {
				got[lp.GetValue()] = m.GetCounter().GetValue()
			}
		}
	}
	if got["200"] != 2 || got["404"] != 1 {
		t.Errorf("http_status_total = %v, want 200:2 404:1", got)
	}
}

// TestRecordRequestDuration_Observes は処理時間がヒストグラムに記録されることを検証する。
func TestRecordRequestDuration_Observes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequestDuration(150 * time.Millisecond)

	mf := gatherFamily(t, reg, "foodgram_http_request_duration_seconds")
	h := mf.GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 1 {
		t.Errorf("sample count = %d, want 1", h.GetSampleCount())
	}
	if h.GetSampleSum() < 0.149 || h.GetSampleSum() > 0.151 {
		t.Errorf("sample sum = %v, want 0.15", h.GetSampleSum())
	}
}

// TestRecordShoppingListDownload はダウンロード数と行数が記録されることを検証する。
func TestRecordShoppingListDownload(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordShoppingListDownload(0)
	c.RecordShoppingListDownload(12)

	downloads := gatherFamily(t, reg, "foodgram_shopping_list_downloads_total")
	if v := downloads.GetMetric()[0].GetCounter().GetValue(); v != 2 {
		t.Errorf("downloads_total = %v, want 2", v)
	}
	lines := gatherFamily(t, reg, "foodgram_shopping_list_lines").GetMetric()[0].GetHistogram()
	if lines.GetSampleCount() != 2 || lines.GetSampleSum() != 12 {
		t.Errorf("lines histogram count/sum = %d/%v, want 2/12", lines.GetSampleCount(), lines.GetSampleSum())
	}
}

// TestRecordCartMutation_LabelsByAction は操作種別ごとにカウントされることを検証する。
func TestRecordCartMutation_LabelsByAction(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCartMutation("add")
	c.RecordCartMutation("add")
	c.RecordCartMutation("remove")

	mf := gatherFamily(t, reg, "foodgram_cart_mutations_total")
	got := map[string]float64{}
	for _, m := range mf.GetMetric() {
		got[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
	}
	if got["add"] != 2 || got["remove"] != 1 {
		t.Errorf("cart_mutations_total = %v, want add:2 remove:1", got)
	}
}

// TestRecordIngredientsImported_Adds はインポート件数が加算されることを検証する。
func TestRecordIngredientsImported_Adds(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordIngredientsImported(3)
	c.RecordIngredientsImported(0)
	c.RecordIngredientsImported(4)

	mf := gatherFamily(t, reg, "foodgram_ingredients_imported_total")
	if v := mf.GetMetric()[0].GetCounter().GetValue(); v != 7 {
		t.Errorf("ingredients_imported_total = %v, want 7", v)
	}
}
