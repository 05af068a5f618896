package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/mediafolio/mediafolio/internal/models"
	"github.com/mediafolio/mediafolio/internal/services"
	"gorm.io/gorm"
)

// HealthHandler reports the state of the database and the media queue.
type HealthHandler struct {
	db    *gorm.DB
	queue services.TaskQueue
}

func NewHealthHandler(db *gorm.DB, queue services.TaskQueue) *HealthHandler {
	return &HealthHandler{db: db, queue: queue}
}

// CheckHealth returns the health status of all subsystems.
// GET /health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	status := 200

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
	}
	if dbStatus != "ok" {
		overall = "unhealthy"
		status = 503
	}

	queueMode := "sync"
	if h.queue != nil && h.queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	var processing int64
	if dbStatus == "ok" {
		h.db.Model(&models.MediaAsset{}).Where("status = ?", models.MediaStatusProcessing).Count(&processing)
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "mediafolio",
		"components": gin.H{
			"database":         dbStatus,
			"queue_mode":       queueMode,
			"processing_media": processing,
		},
	})
}
