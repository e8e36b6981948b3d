package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetricFamily は名前でメトリクスファミリーを検索する。
func findMetricFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
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

// labelValue はメトリクスから指定ラベルの値を返す。
func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordWalletRequest_LabelsByOperationAndStatus は操作・ステータス別にカウントされることを検証する。
func TestRecordWalletRequest_LabelsByOperationAndStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordWalletRequest("class_get", 404, 20*time.Millisecond)
	c.RecordWalletRequest("class_get", 404, 30*time.Millisecond)
	c.RecordWalletRequest("class_insert", 200, 50*time.Millisecond)

	mf := findMetricFamily(t, reg, "giftwallet_wallet_requests_total")
	got := map[string]float64{}
	for _, m := range mf.GetMetric() {
		got[labelValue(m, "operation")+"/"+labelValue(m, "status")] = m.GetCounter().GetValue()
	}
	if got["class_get/404"] != 2 {
		t.Errorf("class_get/404 = %v, want 2", got["class_get/404"])
	}
	if got["class_insert/200"] != 1 {
		t.Errorf("class_insert/200 = %v, want 1", got["class_insert/200"])
	}

	latency := findMetricFamily(t, reg, "giftwallet_wallet_request_duration_seconds")
	var samples uint64
	for _, m := range latency.GetMetric() {
		samples += m.GetHistogram().GetSampleCount()
	}
	if samples != 3 {
		t.Errorf("latency sample count = %d, want 3", samples)
	}
}

// TestRecordWalletRequest_TransportErrorLabel は通信失敗が "error" ラベルになることを検証する。
func TestRecordWalletRequest_TransportErrorLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordWalletRequest("object_insert", 0, time.Second)

	mf := findMetricFamily(t, reg, "giftwallet_wallet_requests_total")
	if len(mf.GetMetric()) != 1 {
		t.Fatalf("expected 1 metric, got %d", len(mf.GetMetric()))
	}
	if got := labelValue(mf.GetMetric()[0], "status"); got != "error" {
		t.Errorf("status label = %q, want %q", got, "error")
	}
}

// TestRecordWalletConflict_IncrementsCounter は409カウンタが増加することを検証する。
func TestRecordWalletConflict_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordWalletConflict("giftCardClass")

	mf := findMetricFamily(t, reg, "giftwallet_wallet_conflicts_total")
	m := mf.GetMetric()[0]
	if labelValue(m, "resource") != "giftCardClass" {
		t.Errorf("resource label = %q, want giftCardClass", labelValue(m, "resource"))
	}
	if m.GetCounter().GetValue() != 1 {
		t.Errorf("conflicts_total = %v, want 1", m.GetCounter().GetValue())
	}
}

// TestRecordEnrollmentAndProgram は登録数とプログラム作成数が記録されることを検証する。
func TestRecordEnrollmentAndProgram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordEnrollment("public")
	c.RecordEnrollment("public")
	c.RecordEnrollment("admin")
	c.RecordProgramCreated()

	mf := findMetricFamily(t, reg, "giftwallet_enrollments_total")
	got := map[string]float64{}
	for _, m := range mf.GetMetric() {
		got[labelValue(m, "zone")] = m.GetCounter().GetValue()
	}
	if got["public"] != 2 || got["admin"] != 1 {
		t.Errorf("enrollments = %v, want public=2 admin=1", got)
	}

	pc := findMetricFamily(t, reg, "giftwallet_programs_created_total")
	if v := pc.GetMetric()[0].GetCounter().GetValue(); v != 1 {
		t.Errorf("programs_created_total = %v, want 1", v)
	}
}
