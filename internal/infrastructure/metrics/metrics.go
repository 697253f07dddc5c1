package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resolve 結果標籤
const (
	OutcomeHit      = "hit"
	OutcomeMiss     = "miss"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// Collector 收集 HTTP 與業務指標，nil Collector 的所有方法皆為 no-op
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Business metrics
	recipeResolutions  *prometheus.CounterVec
	bookmarkOperations *prometheus.CounterVec
	aiRequestsTotal    *prometheus.CounterVec
	aiRequestDuration  prometheus.Histogram
	quotaDecisions     *prometheus.CounterVec
	storeRequests      *prometheus.CounterVec
}

// NewCollector 建立獨立 registry 的指標收集器
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		recipeResolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipe_resolutions_total",
				Help: "Recipe resolutions by outcome",
			},
			[]string{"outcome"},
		),
		bookmarkOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookmark_operations_total",
				Help: "Bookmark operations by kind and result",
			},
			[]string{"operation", "result"},
		),
		aiRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ai_requests_total",
				Help: "Total number of AI generation requests",
			},
			[]string{"kind", "status"},
		),
		aiRequestDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ai_request_duration_seconds",
				Help:    "AI generation request duration in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60},
			},
		),
		quotaDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quota_decisions_total",
				Help: "Quota decisions by rule and result",
			},
			[]string{"rule", "result"},
		),
		storeRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "content_store_requests_total",
				Help: "Content store requests by method and status class",
			},
			[]string{"method", "collection", "status"},
		),
	}
}

// Registry 回傳底層 registry
func (m *Collector) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler 回傳 /metrics 處理器
func (m *Collector) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

// HTTPMiddleware 記錄每個請求的次數與耗時
func (m *Collector) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordResolution 記錄食譜解析結果
func (m *Collector) RecordResolution(outcome string) {
	if m == nil {
		return
	}
	m.recipeResolutions.WithLabelValues(outcome).Inc()
}

// RecordBookmark 記錄收藏操作
func (m *Collector) RecordBookmark(operation, result string) {
	if m == nil {
		return
	}
	m.bookmarkOperations.WithLabelValues(operation, result).Inc()
}

// RecordAIRequest 記錄 AI 請求
func (m *Collector) RecordAIRequest(kind string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.aiRequestsTotal.WithLabelValues(kind, status).Inc()
	m.aiRequestDuration.Observe(duration.Seconds())
}

// RecordQuota 記錄配額判定
func (m *Collector) RecordQuota(rule string, allowed bool) {
	if m == nil {
		return
	}
	result := "allowed"
	if !allowed {
		result = "denied"
	}
	m.quotaDecisions.WithLabelValues(rule, result).Inc()
}

// RecordStoreRequest 記錄內容庫請求，status 為 HTTP 狀態碼，0 表示傳輸錯誤
func (m *Collector) RecordStoreRequest(method, collection string, status int) {
	if m == nil {
		return
	}
	class := "transport_error"
	if status > 0 {
		class = strconv.Itoa(status/100) + "xx"
	}
	m.storeRequests.WithLabelValues(method, collection, class).Inc()
}
