package metrics

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/aisgo/ais-datascope/datascope"
)

/* ========================================================================
 * Prometheus Metrics - 可观测性指标
 * ========================================================================
 * 职责: 提供数据权限解析链路的 Prometheus 指标注册和暴露
 * ======================================================================== */

var (
	// ResolutionDuration 权限解析耗时
	ResolutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "datascope",
			Subsystem: "resolution",
			Name:      "duration_seconds",
			Help:      "Data scope resolution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"scope_type", "degraded"},
	)

	// ResolutionTotal 权限解析总次数
	ResolutionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "datascope",
			Subsystem: "resolution",
			Name:      "total",
			Help:      "Total number of data scope resolutions",
		},
		[]string{"scope_type", "degraded"},
	)

	// ConfigCacheTotal 配置缓存命中统计
	ConfigCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "datascope",
			Subsystem: "config_cache",
			Name:      "total",
			Help:      "Total number of config cache lookups",
		},
		[]string{"resource", "hit"}, // hit: true, false
	)

	// InvalidationTotal 缓存失效事件处理次数
	InvalidationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "datascope",
			Subsystem: "invalidation",
			Name:      "total",
			Help:      "Total number of cache invalidation events applied",
		},
		[]string{"reason"},
	)
)

// ScopeMetrics 解析埋点实现
type ScopeMetrics struct{}

var _ datascope.Metrics = (*ScopeMetrics)(nil)

// NewScopeMetrics 创建解析埋点
func NewScopeMetrics() *ScopeMetrics {
	return &ScopeMetrics{}
}

// ObserveResolution 记录一次解析结果
func (m *ScopeMetrics) ObserveResolution(permissionCode string, scopeType datascope.ScopeType, degraded bool, elapsed time.Duration) {
	degradedLabel := boolLabel(degraded)
	ResolutionTotal.WithLabelValues(string(scopeType), degradedLabel).Inc()
	ResolutionDuration.WithLabelValues(string(scopeType), degradedLabel).Observe(elapsed.Seconds())
}

// CacheHit 记录缓存命中
func (m *ScopeMetrics) CacheHit(permissionCode string) {
	ConfigCacheTotal.WithLabelValues(permissionCode, "true").Inc()
}

// CacheMiss 记录缓存未命中
func (m *ScopeMetrics) CacheMiss(permissionCode string) {
	ConfigCacheTotal.WithLabelValues(permissionCode, "false").Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// RegisterMetricsEndpoint 注册 /metrics 端点
func RegisterMetricsEndpoint(app *fiber.App) {
	// 使用 fasthttpadaptor 将 promhttp.Handler 适配到 Fiber
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c fiber.Ctx) error {
		handler(c.RequestCtx())
		return nil
	})
}

// NewCounter 创建自定义 Counter
func NewCounter(namespace, subsystem, name, help string, labels []string) *prometheus.CounterVec {
	return promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// NewGauge 创建自定义 Gauge
func NewGauge(namespace, subsystem, name, help string, labels []string) *prometheus.GaugeVec {
	return promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// NewHistogram 创建自定义 Histogram
func NewHistogram(namespace, subsystem, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	return promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labels,
	)
}
