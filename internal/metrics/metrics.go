package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gamequest"

// HTTP records request counts and latencies per route.
type HTTP struct {
	summaryVec *prometheus.SummaryVec
	counterVec *prometheus.CounterVec
}

// NewHTTP registers the HTTP collectors on reg. A nil reg leaves them unregistered.
func NewHTTP(reg prometheus.Registerer) *HTTP {
	factory := promauto.With(reg)
	return &HTTP{
		summaryVec: factory.NewSummaryVec(
			prometheus.SummaryOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Objectives: map[float64]float64{
					0.5:  0.05,
					0.9:  0.01,
					0.99: 0.001,
				},
			},
			[]string{"method", "path", "status_code"},
		),
		counterVec: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
	}
}

// Middleware observes every request after the handler chain has run.
func (h *HTTP) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		h.summaryVec.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		h.counterVec.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

// Engine counts aggregate recomputations and rejected fact writes.
type Engine struct {
	recomputes *prometheus.CounterVec
	rejections *prometheus.CounterVec
}

// NewEngine registers the engine collectors on reg. A nil reg leaves them unregistered.
func NewEngine(reg prometheus.Registerer) *Engine {
	factory := promauto.With(reg)
	return &Engine{
		recomputes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "aggregate_recomputes_total",
				Help:      "Aggregate fields rewritten after a fact-table mutation",
			},
			[]string{"aggregate"},
		),
		rejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "aggregate_rejections_total",
				Help:      "Fact-table writes rejected by the engine, by reason",
			},
			[]string{"reason"},
		),
	}
}

// Recomputed is called once per aggregate write.
func (e *Engine) Recomputed(aggregate string) {
	if e == nil {
		return
	}
	e.recomputes.WithLabelValues(aggregate).Inc()
}

// Rejected is called when a write is refused.
func (e *Engine) Rejected(reason string) {
	if e == nil {
		return
	}
	e.rejections.WithLabelValues(reason).Inc()
}
