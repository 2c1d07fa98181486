package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SPF 检查结果分类
const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
)

// Exporter Prometheus 指标导出器
type Exporter struct {
	registry *prometheus.Registry

	// 记录生成
	recordsGenerated *prometheus.CounterVec

	// SPF 检查
	spfChecks      *prometheus.CounterVec
	lookupDuration prometheus.Histogram
	lookupFailures prometheus.Counter

	// HTTP
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	rateLimited    prometheus.Counter
	inflightChecks prometheus.Gauge
}

// NewExporter 创建指标导出器
func NewExporter() *Exporter {
	registry := prometheus.NewRegistry()

	exporter := &Exporter{
		registry: registry,

		recordsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailtools_records_generated_total",
			Help: "生成的 DNS 记录数",
		}, []string{"type"}),

		spfChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailtools_spf_checks_total",
			Help: "SPF 检查次数",
		}, []string{"outcome"}),
		lookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mailtools_lookup_duration_seconds",
			Help:    "外部查询耗时（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		lookupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailtools_lookup_failures_total",
			Help: "外部查询失败次数",
		}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailtools_http_requests_total",
			Help: "HTTP 请求总数",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mailtools_http_request_duration_seconds",
			Help:    "HTTP 请求耗时（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailtools_rate_limited_total",
			Help: "被限流的请求数",
		}),
		inflightChecks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mailtools_spf_checks_inflight",
			Help: "进行中的 SPF 检查数",
		}),
	}

	registry.MustRegister(
		exporter.recordsGenerated,
		exporter.spfChecks,
		exporter.lookupDuration,
		exporter.lookupFailures,
		exporter.httpRequests,
		exporter.httpDuration,
		exporter.rateLimited,
		exporter.inflightChecks,
	)

	return exporter
}

// Handler 返回 HTTP 处理器
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry 返回底层注册表
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// IncRecordsGenerated 记录一次生成，kind 为 dmarc 或 spf
func (e *Exporter) IncRecordsGenerated(kind string) {
	e.recordsGenerated.WithLabelValues(kind).Inc()
}

// ObserveSPFCheck 记录一次 SPF 检查
func (e *Exporter) ObserveSPFCheck(outcome string, elapsed time.Duration) {
	e.spfChecks.WithLabelValues(outcome).Inc()
	e.lookupDuration.Observe(elapsed.Seconds())
	if outcome == OutcomeFailed {
		e.lookupFailures.Inc()
	}
}

// CheckStarted 进行中的检查数加一，返回的函数减一
func (e *Exporter) CheckStarted() func() {
	e.inflightChecks.Inc()
	return e.inflightChecks.Dec
}

// ObserveHTTPRequest 记录一次 HTTP 请求
func (e *Exporter) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	e.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	e.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// IncRateLimited 被限流的请求数加一
func (e *Exporter) IncRateLimited() {
	e.rateLimited.Inc()
}
