package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/mediafolio/mediafolio/internal/metrics"
	"github.com/mediafolio/mediafolio/internal/models"
	"github.com/mediafolio/mediafolio/internal/services"
	"gorm.io/gorm"
)

// RegisterGauges exposes database pool and content gauges sampled on each scrape.
func RegisterGauges(db *gorm.DB, queue services.TaskQueue) {
	dbStat := func(pick func(open, inUse, idle int) int) func() float64 {
		return func() float64 {
			sqlDB, err := db.DB()
			if err != nil {
				return 0
			}
			s := sqlDB.Stats()
			return float64(pick(s.OpenConnections, s.InUse, s.Idle))
		}
	}
	metrics.RegisterGauge("db_open_connections", "Number of open DB connections",
		dbStat(func(open, _, _ int) int { return open }))
	metrics.RegisterGauge("db_in_use_connections", "Number of in-use DB connections",
		dbStat(func(_, inUse, _ int) int { return inUse }))
	metrics.RegisterGauge("db_idle_connections", "Number of idle DB connections",
		dbStat(func(_, _, idle int) int { return idle }))

	metrics.RegisterGauge("queue_async_enabled", "Whether async queue (Redis) is enabled (1=yes, 0=no)", func() float64 {
		if queue != nil && queue.IsAsync() {
			return 1
		}
		return 0
	})

	count := func(model interface{}, where string, args ...interface{}) func() float64 {
		return func() float64 {
			var n int64
			db.Model(model).Where(where, args...).Count(&n)
			return float64(n)
		}
	}
	metrics.RegisterGauge("media_processing", "Media assets waiting for processing",
		count(&models.MediaAsset{}, "status = ?", models.MediaStatusProcessing))
	metrics.RegisterGauge("projects_published", "Published projects",
		count(&models.Project{}, "status = ?", models.ProjectStatusPublished))
	metrics.RegisterGauge("users_active", "Number of active users",
		count(&models.User{}, "is_active = ?", true))
}

// Metrics serves the Prometheus registry.
// GET /metrics
func Metrics() gin.HandlerFunc {
	return gin.WrapH(metrics.Handler())
}
