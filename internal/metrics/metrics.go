// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 認証・ローストの各サービスから利用する。
type MetricsCollector interface {
	RecordLogin(success bool)
	RecordTokenVerification(result string)
	RecordRoastGenerated(level string)
	RecordGenerationLatency(seconds float64)
	RecordPersistenceDegraded(store string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins              *prometheus.CounterVec
	tokenVerifications  *prometheus.CounterVec
	roastsGenerated     *prometheus.CounterVec
	generationLatency   prometheus.Histogram
	persistenceDegraded *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roastmystartup_logins_total",
			Help: "ログイン試行の合計数（成否別）",
		}, []string{"status"}),
		tokenVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roastmystartup_token_verifications_total",
			Help: "セッショントークン検証の合計数（結果別）",
		}, []string{"result"}),
		roastsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roastmystartup_roasts_generated_total",
			Help: "生成されたローストの合計数（強度別）",
		}, []string{"level"}),
		generationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "roastmystartup_generation_latency_seconds",
			Help:    "ロースト生成のレイテンシ（秒）",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		persistenceDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roastmystartup_persistence_degraded_total",
			Help: "フェイルオープンで握りつぶされた永続化失敗の合計数（ストア別）",
		}, []string{"store"}),
	}

	reg.MustRegister(
		c.logins,
		c.tokenVerifications,
		c.roastsGenerated,
		c.generationLatency,
		c.persistenceDegraded,
	)

	return c
}

// RecordLogin はログイン試行の成否を記録する。
func (c *Collector) RecordLogin(success bool) {
	status := "failure"
	if success {
		status = "success"
	}
	c.logins.WithLabelValues(status).Inc()
}

// RecordTokenVerification はトークン検証の結果を記録する。
// resultはvalid, expired, bad_signature, malformed, absent, empty_subjectのいずれか。
func (c *Collector) RecordTokenVerification(result string) {
	c.tokenVerifications.WithLabelValues(result).Inc()
}

// RecordRoastGenerated は生成されたローストを強度別に記録する。
func (c *Collector) RecordRoastGenerated(level string) {
	c.roastsGenerated.WithLabelValues(level).Inc()
}

// RecordGenerationLatency はロースト生成のレイテンシを記録する。
func (c *Collector) RecordGenerationLatency(seconds float64) {
	c.generationLatency.Observe(seconds)
}

// RecordPersistenceDegraded は永続化のフェイルオープン発動をストア別に記録する。
// storeはusers, login_events, roastsのいずれか。
func (c *Collector) RecordPersistenceDegraded(store string) {
	c.persistenceDegraded.WithLabelValues(store).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
