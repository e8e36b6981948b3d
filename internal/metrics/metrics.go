// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// ウォレット発行APIクライアントとサービス層から利用する。
type Collector struct {
	walletRequests  *prometheus.CounterVec
	walletLatency   *prometheus.HistogramVec
	walletConflicts *prometheus.CounterVec
	enrollments     *prometheus.CounterVec
	programsCreated prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		walletRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "giftwallet_wallet_requests_total",
			Help: "ウォレット発行APIへのリクエスト数（操作・ステータス別）",
		}, []string{"operation", "status"}),
		walletLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "giftwallet_wallet_request_duration_seconds",
			Help:    "ウォレット発行APIのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		walletConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "giftwallet_wallet_conflicts_total",
			Help: "既存リソースとして扱った409レスポンスの数",
		}, []string{"resource"}),
		enrollments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "giftwallet_enrollments_total",
			Help: "成功した利用者登録の数（経路別）",
		}, []string{"zone"}),
		programsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "giftwallet_programs_created_total",
			Help: "作成されたプログラムの数",
		}),
	}

	reg.MustRegister(
		c.walletRequests,
		c.walletLatency,
		c.walletConflicts,
		c.enrollments,
		c.programsCreated,
	)

	return c
}

// RecordWalletRequest はウォレット発行APIの呼び出し結果を記録する。
// statusが0の場合は通信失敗として "error" ラベルで記録する。
func (c *Collector) RecordWalletRequest(operation string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	c.walletRequests.WithLabelValues(operation, label).Inc()
	c.walletLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordWalletConflict は409を成功として扱ったことを記録する。
func (c *Collector) RecordWalletConflict(resource string) {
	c.walletConflicts.WithLabelValues(resource).Inc()
}

// RecordEnrollment は利用者登録の成功を記録する。zoneは "admin" または "public"。
func (c *Collector) RecordEnrollment(zone string) {
	c.enrollments.WithLabelValues(zone).Inc()
}

// RecordProgramCreated はプログラム作成を記録する。
func (c *Collector) RecordProgramCreated() {
	c.programsCreated.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
