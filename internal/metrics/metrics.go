// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mediafolio/mediafolio/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mediafolio"

var (
	registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	mediaUploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_uploads_total",
		Help:      "Accepted media uploads by file type.",
	}, []string{"file_type"})

	mediaProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_processed_total",
		Help:      "Finished media processing tasks by resulting status.",
	}, []string{"status"})

	likeToggles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "project_like_toggles_total",
		Help:      "Like toggles by outcome (liked, unliked).",
	}, []string{"action"})

	projectViews = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "project_views_total",
		Help:      "Counted project detail views.",
	})

	jobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduler_job_runs_total",
		Help:      "Scheduled job runs by job and result.",
	}, []string{"job", "result"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequests,
		httpDuration,
		mediaUploads,
		mediaProcessed,
		likeToggles,
		projectViews,
		jobRuns,
	)
}

// Registry returns the registry backing /metrics.
func Registry() *prometheus.Registry {
	return registry
}

// RegisterGauge exposes f as a gauge sampled on every scrape.
func RegisterGauge(name, help string, f func() float64) {
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, f)
	if err := registry.Register(g); err != nil {
		logger.Warn().Err(err).Str("gauge", name).Msg("gauge not registered")
	}
}

// MediaUploaded counts an accepted upload by file type.
func MediaUploaded(fileType string) {
	mediaUploads.WithLabelValues(fileType).Inc()
}

// MediaProcessed counts a finished processing task by final status.
func MediaProcessed(status string) {
	mediaProcessed.WithLabelValues(status).Inc()
}

func ProjectViewed() {
	projectViews.Inc()
}

// JobRun counts a scheduled job execution.
func JobRun(job string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	jobRuns.WithLabelValues(job, result).Inc()
}

// LikeToggled counts a like toggle outcome.
func LikeToggled(liked bool) {
	if liked {
		likeToggles.WithLabelValues("liked").Inc()
		return
	}
	likeToggles.WithLabelValues("unliked").Inc()
}

// Middleware records request count and latency keyed by the matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

type promLogger struct{}

func (promLogger) Println(v ...interface{}) {
	logger.Error().Interface("error", v).Msg("metrics scrape failed")
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorLog:      promLogger{},
		ErrorHandling: promhttp.ContinueOnError,
	})
}
