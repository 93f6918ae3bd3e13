// Package metrics 基于Prometheus的指标
//
// 指标在声明时创建，InitMetrics负责注册到默认Registry（只注册一次）。
// 未注册时调用各辅助函数也是安全的，单元测试不需要先初始化。
//
// 命名约定：
//   - Counter以_total结尾
//   - Histogram以单位结尾（_seconds）
//   - 标签只使用有限取值（type、result、method），不使用book_id这类高基数值
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bookstore"

var registerOnce sync.Once

var (
	// HTTPRequestsTotal HTTP请求总数
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP请求耗时（秒）",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_progress",
			Help:      "正在处理的HTTP请求数",
		},
	)

	// TransactionsTotal 库存交易总数
	// result: success/rejected/error/replayed
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_transactions_total",
			Help:      "库存交易总数",
		},
		[]string{"type", "result"},
	)

	// TransactionDuration 库存交易耗时（含事务提交）
	TransactionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inventory_transaction_duration_seconds",
			Help:      "库存交易耗时（秒）",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"type"},
	)

	// StockRejectionsTotal 因库存不足被拒绝的次数
	StockRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_stock_rejections_total",
			Help:      "库存不足拒绝次数",
		},
	)

	// CacheRequestsTotal 图书缓存读取次数
	// result: hit/miss/error/bypass
	CacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "book_cache_requests_total",
			Help:      "图书缓存读取次数",
		},
		[]string{"result"},
	)

	// CacheInvalidationFailures 缓存失效失败次数
	CacheInvalidationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "book_cache_invalidation_failures_total",
			Help:      "图书缓存失效失败次数",
		},
	)

	// CircuitBreakerState 熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）
	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)

	// MessagesPublishedTotal 事件发布次数
	MessagesPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_published_total",
			Help:      "事件发布次数",
		},
		[]string{"routing_key", "result"},
	)

	// RateLimitedTotal 被限流的请求数
	RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "被限流的请求数",
		},
	)
)

// InitMetrics 注册所有指标到默认Registry，重复调用无副作用
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			HTTPRequestsInProgress,
			TransactionsTotal,
			TransactionDuration,
			StockRejectionsTotal,
			CacheRequestsTotal,
			CacheInvalidationFailures,
			CircuitBreakerState,
			MessagesPublishedTotal,
			RateLimitedTotal,
		)
	})
}

// ObserveTransaction 记录一次库存交易的结果与耗时
func ObserveTransaction(txType, result string, start time.Time) {
	TransactionsTotal.WithLabelValues(txType, result).Inc()
	TransactionDuration.WithLabelValues(txType).Observe(time.Since(start).Seconds())
}

// SetBreakerState 记录熔断器状态
func SetBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// GinMiddleware HTTP指标中间件
// path使用路由模板（/books/:id），避免按ID展开成高基数标签
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		HTTPRequestsInProgress.Inc()
		defer HTTPRequestsInProgress.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
