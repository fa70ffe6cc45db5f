// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器. nil Collector 的所有 Record 方法均为空操作.
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestSize     *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// 上游服务指标（Cartesia、Vapi、OpenAI、Deepgram、Google）
	upstreamRequestsTotal   *prometheus.CounterVec
	upstreamRequestDuration *prometheus.HistogramVec

	// 开通流程指标
	provisioningRunsTotal    *prometheus.CounterVec
	provisioningStepDuration *prometheus.HistogramVec
	provisioningLockBusy     prometheus.Counter

	// 记忆摄入指标
	memoryChunksTotal *prometheus.CounterVec
	memoryTokensTotal *prometheus.CounterVec

	// 数据库指标
	dbConnectionsOpen *prometheus.GaugeVec
	dbConnectionsIdle *prometheus.GaugeVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器并注册到默认 Registry
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// HTTP 指标
	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"method", "path"},
	)

	c.httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_size_bytes",
			Help:      "HTTP request size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	c.httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// 上游指标
	c.upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of requests to third-party services",
		},
		[]string{"service", "operation", "status"},
	)

	c.upstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Third-party request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"service", "operation"},
	)

	// 开通流程指标
	c.provisioningRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provisioning_runs_total",
			Help:      "Total number of voice provisioning runs by outcome",
		},
		[]string{"outcome"},
	)

	c.provisioningStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provisioning_step_duration_seconds",
			Help:      "Voice provisioning step duration in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"step", "status"},
	)

	c.provisioningLockBusy = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provisioning_lock_busy_total",
			Help:      "Provisioning requests rejected because the member was already being provisioned",
		},
	)

	// 记忆指标
	c.memoryChunksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_chunks_total",
			Help:      "Total number of memory chunks embedded and stored",
		},
		[]string{"model"},
	)

	c.memoryTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_tokens_total",
			Help:      "Total number of tokens ingested as memories",
		},
		[]string{"model"},
	)

	// 数据库指标
	c.dbConnectionsOpen = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_open",
			Help:      "Number of open database connections",
		},
		[]string{"database"},
	)

	c.dbConnectionsIdle = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_idle",
			Help:      "Number of idle database connections",
		},
		[]string{"database"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, requestSize, responseSize int64) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.httpRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	c.httpResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// =============================================================================
// 🌐 上游指标记录
// =============================================================================

// RecordUpstreamRequest 记录一次第三方调用. status 为 0 表示传输层失败.
func (c *Collector) RecordUpstreamRequest(service, operation string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	label := statusCode(status)
	if status == 0 {
		label = "error"
	}
	c.upstreamRequestsTotal.WithLabelValues(service, operation, label).Inc()
	c.upstreamRequestDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// =============================================================================
// 🎙️ 开通流程指标记录
// =============================================================================

// RecordProvisioning 记录一次开通结果（success、already_provisioned 或错误码）
func (c *Collector) RecordProvisioning(outcome string) {
	if c == nil {
		return
	}
	c.provisioningRunsTotal.WithLabelValues(outcome).Inc()
}

// RecordProvisioningStep 记录单个步骤耗时
func (c *Collector) RecordProvisioningStep(step string, ok bool, duration time.Duration) {
	if c == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	c.provisioningStepDuration.WithLabelValues(step, status).Observe(duration.Seconds())
}

// RecordProvisioningLockBusy 记录锁冲突
func (c *Collector) RecordProvisioningLockBusy() {
	if c == nil {
		return
	}
	c.provisioningLockBusy.Inc()
}

// =============================================================================
// 🧠 记忆指标记录
// =============================================================================

// RecordMemoryIngest 记录一次记忆摄入
func (c *Collector) RecordMemoryIngest(model string, chunks, tokens int) {
	if c == nil {
		return
	}
	c.memoryChunksTotal.WithLabelValues(model).Add(float64(chunks))
	c.memoryTokensTotal.WithLabelValues(model).Add(float64(tokens))
}

// =============================================================================
// 🗄️ 数据库指标记录
// =============================================================================

// RecordDBConnections 记录数据库连接数
func (c *Collector) RecordDBConnections(database string, open, idle int) {
	if c == nil {
		return
	}
	c.dbConnectionsOpen.WithLabelValues(database).Set(float64(open))
	c.dbConnectionsIdle.WithLabelValues(database).Set(float64(idle))
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
