// Package metrics Prometheus指标
//
// 三类指标:
//   - HTTP:请求数、耗时、处理中的请求数
//   - 存储:每个仓储操作的结果和耗时,按后端(mysql/mongo/memory)区分
//   - 熔断器与消息:熔断器状态和请求结果、事件发布数
//
// 所有指标通过promauto注册到默认Registry,由/metrics端点(promhttp.Handler)暴露。
//
// 命名约定:Counter以_total结尾,Histogram以单位结尾(_seconds)。
// 标签只使用有限取值(backend、operation、result),不要把图书ID之类的值放进标签。
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 存储操作结果标签
const (
	ResultSuccess  = "success"
	ResultError    = "error"
	ResultRejected = "rejected" // 熔断器打开,没有访问存储
)

var (
	once sync.Once

	// HTTPRequestsTotal 标签:method、path、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration 标签:method、path
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// StoreOperationsTotal 仓储操作总数
	// 标签:backend、operation(如FindBooksByTitle)、result(success/error/rejected)
	StoreOperationsTotal *prometheus.CounterVec

	// StoreOperationDuration 仓储操作耗时,标签:backend、operation
	StoreOperationDuration *prometheus.HistogramVec

	// CircuitBreakerState 0=CLOSED, 1=OPEN, 2=HALF_OPEN
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 标签:name、result
	CircuitBreakerRequests *prometheus.CounterVec

	// MessagesPublishedTotal 标签:exchange、routing_key、result
	MessagesPublishedTotal *prometheus.CounterVec
)

// InitMetrics 注册全部指标,可重复调用
func InitMetrics() {
	once.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时(秒)",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booksdb_store_operations_total",
			Help: "仓储操作总数",
		},
		[]string{"backend", "operation", "result"},
	)

	// 单表查询在毫秒级,按评分搜索(Mongo全量读取)可能到秒级
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "booksdb_store_operation_duration_seconds",
			Help:    "仓储操作耗时(秒)",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"backend", "operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态(0=CLOSED, 1=OPEN, 2=HALF_OPEN)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "熔断器请求总数",
		},
		[]string{"name", "result"},
	)

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "事件发布总数",
		},
		[]string{"exchange", "routing_key", "result"},
	)
}

// ObserveStoreOperation 记录一次仓储操作
func ObserveStoreOperation(backend, operation, result string, elapsed time.Duration) {
	InitMetrics()
	StoreOperationsTotal.WithLabelValues(backend, operation, result).Inc()
	if result != ResultRejected {
		StoreOperationDuration.WithLabelValues(backend, operation).Observe(elapsed.Seconds())
	}
}

// ObserveHTTPRequest 记录一次HTTP请求
func ObserveHTTPRequest(method, path, status string, elapsed time.Duration) {
	InitMetrics()
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// SetBreakerState 记录熔断器状态,state取值与circuitbreaker.State一致
func SetBreakerState(name string, state int) {
	InitMetrics()
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// IncBreakerRequest result: success/failure/rejected
func IncBreakerRequest(name, result string) {
	InitMetrics()
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// IncMessagePublished 记录一次事件发布
func IncMessagePublished(exchange, routingKey, result string) {
	InitMetrics()
	MessagesPublishedTotal.WithLabelValues(exchange, routingKey, result).Inc()
}
