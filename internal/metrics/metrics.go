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
// タスク集計・ワーカー・HTTP層から利用する。
type MetricsCollector interface {
	RecordTaskFetchFailure(source string)
	RecordAggregationLatency(duration time.Duration)
	RecordAggregationFallback()
	RecordDigestDelivery(success bool)
	RecordSessionsPurged(count int64)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	taskFetchFail       *prometheus.CounterVec
	aggregationLatency  prometheus.Histogram
	aggregationFallback prometheus.Counter
	digestDelivery      *prometheus.CounterVec
	sessionsPurged      prometheus.Counter
	httpStatus          *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		taskFetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recruitboard_task_fetch_fail_total",
			Help: "タスク集計の取得失敗数（取得元別）",
		}, []string{"source"}),
		aggregationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "recruitboard_task_aggregation_seconds",
			Help:    "タスク集計のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		aggregationFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recruitboard_task_aggregation_fallback_total",
			Help: "タスク集計が既定値にフォールバックした回数",
		}),
		digestDelivery: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recruitboard_digest_delivery_total",
			Help: "タスクダイジェスト通知の送信結果別の件数",
		}, []string{"result"}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recruitboard_sessions_purged_total",
			Help: "削除された期限切れセッションの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recruitboard_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.taskFetchFail,
		c.aggregationLatency,
		c.aggregationFallback,
		c.digestDelivery,
		c.sessionsPurged,
		c.httpStatus,
	)

	return c
}

// RecordTaskFetchFailure は取得元ごとの取得失敗を記録する。
func (c *Collector) RecordTaskFetchFailure(source string) {
	c.taskFetchFail.WithLabelValues(source).Inc()
}

// RecordAggregationLatency はタスク集計のレイテンシを記録する。
func (c *Collector) RecordAggregationLatency(duration time.Duration) {
	c.aggregationLatency.Observe(duration.Seconds())
}

// RecordAggregationFallback は既定値へのフォールバックを記録する。
func (c *Collector) RecordAggregationFallback() {
	c.aggregationFallback.Inc()
}

// RecordDigestDelivery はダイジェスト通知の送信結果を記録する。
func (c *Collector) RecordDigestDelivery(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.digestDelivery.WithLabelValues(result).Inc()
}

// RecordSessionsPurged は削除したセッション数を記録する。
func (c *Collector) RecordSessionsPurged(count int64) {
	c.sessionsPurged.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// Nop は何も記録しないMetricsCollector。
type Nop struct{}

func (Nop) RecordTaskFetchFailure(string)          {}
func (Nop) RecordAggregationLatency(time.Duration) {}
func (Nop) RecordAggregationFallback()             {}
func (Nop) RecordDigestDelivery(bool)              {}
func (Nop) RecordSessionsPurged(int64)             {}
func (Nop) RecordHTTPStatus(int)                   {}

// compile-time interface checks
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
