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
// ハンドラーやSteamクライアントから利用する。
type MetricsCollector interface {
	RecordListingCreated()
	RecordInventoryFetchSuccess()
	RecordInventoryFetchFailure(reason string)
	RecordInventoryFetchLatency(duration time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	listingsCreated  prometheus.Counter
	inventorySuccess prometheus.Counter
	inventoryFail    *prometheus.CounterVec
	inventoryLatency prometheus.Histogram
	httpStatus       *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		listingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skinmarket_listings_created_total",
			Help: "作成された出品の合計数",
		}),
		inventorySuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skinmarket_inventory_fetch_success_total",
			Help: "インベントリ取得成功の合計数",
		}),
		inventoryFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skinmarket_inventory_fetch_fail_total",
			Help: "インベントリ取得失敗の合計数（理由別）",
		}, []string{"reason"}),
		inventoryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "skinmarket_inventory_fetch_latency_seconds",
			Help:    "インベントリ取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skinmarket_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.listingsCreated,
		c.inventorySuccess,
		c.inventoryFail,
		c.inventoryLatency,
		c.httpStatus,
	)

	return c
}

// RecordListingCreated は出品作成を記録する。
func (c *Collector) RecordListingCreated() {
	c.listingsCreated.Inc()
}

// RecordInventoryFetchSuccess はインベントリ取得成功を記録する。
func (c *Collector) RecordInventoryFetchSuccess() {
	c.inventorySuccess.Inc()
}

// RecordInventoryFetchFailure はインベントリ取得失敗を理由付きで記録する。
func (c *Collector) RecordInventoryFetchFailure(reason string) {
	c.inventoryFail.WithLabelValues(reason).Inc()
}

// RecordInventoryFetchLatency はインベントリ取得のレイテンシを記録する。
func (c *Collector) RecordInventoryFetchLatency(duration time.Duration) {
	c.inventoryLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
