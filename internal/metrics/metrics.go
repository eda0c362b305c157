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
// ワーカーやサービス層から利用する。
type MetricsCollector interface {
	RecordPublishSuccess(postID string)
	RecordPublishFailure(postID string, reason string)
	RecordPublishLatency(duration time.Duration)
	RecordGenerationSuccess()
	RecordGenerationFailure(reason string)
	RecordHTTPStatus(statusCode int)
	RecordPostsCleaned(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	publishSuccess prometheus.Counter
	publishFail    prometheus.Counter
	publishLatency prometheus.Histogram
	genSuccess     prometheus.Counter
	genFail        prometheus.Counter
	httpStatus     *prometheus.CounterVec
	postsCleaned   prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		publishSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postdeck_publish_success_total",
			Help: "予約投稿の公開成功の合計数",
		}),
		publishFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postdeck_publish_fail_total",
			Help: "予約投稿の公開失敗の合計数",
		}),
		publishLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "postdeck_publish_latency_seconds",
			Help:    "予約投稿の公開処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		genSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postdeck_generation_success_total",
			Help: "AI生成成功の合計数",
		}),
		genFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postdeck_generation_fail_total",
			Help: "AI生成失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postdeck_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		postsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postdeck_posts_cleaned_total",
			Help: "クリーンアップで削除された投稿の合計数",
		}),
	}

	reg.MustRegister(
		c.publishSuccess,
		c.publishFail,
		c.publishLatency,
		c.genSuccess,
		c.genFail,
		c.httpStatus,
		c.postsCleaned,
	)

	return c
}

// RecordPublishSuccess は公開成功を記録する。
func (c *Collector) RecordPublishSuccess(postID string) {
	c.publishSuccess.Inc()
}

// RecordPublishFailure は公開失敗を記録する。
func (c *Collector) RecordPublishFailure(postID string, reason string) {
	c.publishFail.Inc()
}

// RecordPublishLatency は公開処理のレイテンシを記録する。
func (c *Collector) RecordPublishLatency(duration time.Duration) {
	c.publishLatency.Observe(duration.Seconds())
}

// RecordGenerationSuccess はAI生成成功を記録する。
func (c *Collector) RecordGenerationSuccess() {
	c.genSuccess.Inc()
}

// RecordGenerationFailure はAI生成失敗を記録する。
func (c *Collector) RecordGenerationFailure(reason string) {
	c.genFail.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordPostsCleaned はクリーンアップで削除された投稿数を記録する。
func (c *Collector) RecordPostsCleaned(count int) {
	c.postsCleaned.Add(float64(count))
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
