package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequests 上游请求计数，按来源与结果分类
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_upstream_requests_total",
		Help: "Total number of upstream requests by source and outcome",
	}, []string{"source", "outcome"})

	// UpstreamLatency 上游请求耗时（含重试）
	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_upstream_latency_seconds",
		Help:    "Latency of upstream requests including retries",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"source"})

	// UpstreamRetries 上游重试次数
	UpstreamRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_upstream_retries_total",
		Help: "Total number of upstream retries",
	}, []string{"source"})

	// UpstreamInflight 正在进行的上游请求
	UpstreamInflight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gateway_upstream_inflight",
		Help: "Number of in-flight upstream requests per host",
	}, []string{"host"})
)

// 请求结果标签
const (
	outcomeOK      = "ok"
	outcomeStatus  = "status"
	outcomeBlocked = "blocked"
	outcomeTimeout = "timeout"
	outcomeError   = "error"
)
