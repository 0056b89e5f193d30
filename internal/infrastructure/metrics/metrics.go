// Package metrics 收集 HTTP 與食譜操作的 Prometheus 指標
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 操作結果標籤
const (
	ResultOK         = "ok"
	ResultNotFound   = "not_found"
	ResultInvalid    = "invalid"
	ResultStorageErr = "storage_error"
)

// Metrics 持有獨立的 registry，避免重複註冊全域指標
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	operations      *prometheus.CounterVec
	storageFailures *prometheus.CounterVec
	collectionSize  prometheus.Gauge
}

// New 建立並註冊所有指標
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recipe",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "recipe",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recipe",
			Name:      "operations_total",
			Help:      "Recipe service operations by name and result.",
		}, []string{"operation", "result"}),
		storageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recipe",
			Name:      "storage_failures_total",
			Help:      "Record store failures by operation.",
		}, []string{"op"}),
		collectionSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "recipe",
			Name:      "collection_size",
			Help:      "Number of recipes in the cached collection.",
		}),
	}
	reg.MustRegister(
		m.requests,
		m.requestDuration,
		m.operations,
		m.storageFailures,
		m.collectionSize,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler 輸出 Prometheus 文字格式
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回 registry，供測試讀取
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveRequest 記錄一次 HTTP 請求
func (m *Metrics) ObserveRequest(method, route string, status int, latency time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(latency.Seconds())
}

// ObserveOperation 記錄一次服務操作
func (m *Metrics) ObserveOperation(operation, result string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, result).Inc()
}

// ObserveStorageFailure 記錄儲存層失敗
func (m *Metrics) ObserveStorageFailure(op string) {
	if m == nil {
		return
	}
	m.storageFailures.WithLabelValues(op).Inc()
}

// SetCollectionSize 更新集合大小
func (m *Metrics) SetCollectionSize(n int) {
	if m == nil {
		return
	}
	m.collectionSize.Set(float64(n))
}
