package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mediafolio/mediafolio/internal/config"
	"github.com/mediafolio/mediafolio/internal/metrics"
	"github.com/mediafolio/mediafolio/internal/models"
	"github.com/mediafolio/mediafolio/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const (
	JobReconcileCounters = "reconcile_counters"
	JobCleanupSystemLogs = "cleanup_system_logs"
	JobRequeueStaleMedia = "requeue_stale_media"

	requeueBatchSize = 50
	// Assets still processing this long after upload are given up on.
	maxProcessingAge = 24 * time.Hour
	jobLockTTL       = 30 * time.Minute
)

// Scheduler runs periodic maintenance. Every run first claims a row in
// scheduler_locks for its (job, minute) slot so only one instance works it.
type Scheduler struct {
	db       *gorm.DB
	cfg      *config.SchedulerConfig
	queue    TaskQueue
	instance string
	cron     *cron.Cron
	now      func() time.Time
}

func NewScheduler(db *gorm.DB, cfg *config.SchedulerConfig, queue TaskQueue) *Scheduler {
	host, _ := os.Hostname()
	return &Scheduler{
		db:       db,
		cfg:      cfg,
		queue:    queue,
		instance: fmt.Sprintf("%s-%d-%s", host, os.Getpid(), uuid.NewString()[:8]),
		now:      time.Now,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	s.cron = cron.New()

	jobs := []struct {
		name string
		spec string
		run  func(context.Context) (string, error)
	}{
		{JobReconcileCounters, s.cfg.ReconcileCron, s.ReconcileCounters},
		{JobCleanupSystemLogs, s.cfg.LogCleanupCron, s.CleanupSystemLogs},
		{JobRequeueStaleMedia, s.cfg.RequeueCron, s.RequeueStaleMedia},
	}
	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		job := job
		if _, err := s.cron.AddFunc(job.spec, func() {
			s.RunJob(context.Background(), job.name, job.run)
		}); err != nil {
			return fmt.Errorf("schedule %s: %w", job.name, err)
		}
		logger.Infof("[Scheduler] %s scheduled (cron: %s)", job.name, job.spec)
	}

	s.cron.Start()
	logger.Infof("[Scheduler] started as %s", s.instance)
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func slotKey(t time.Time) string {
	return t.UTC().Truncate(time.Minute).Format("200601021504")
}

// tryLock claims the slot. A lock left behind past its expiry by a crashed
// instance is taken over.
func (s *Scheduler) tryLock(job, slot string) (bool, error) {
	now := s.now()
	lock := models.JobLock{
		JobName:   job,
		SlotKey:   slot,
		LockedBy:  s.instance,
		LockedAt:  now,
		ExpiresAt: now.Add(jobLockTTL),
	}
	err := s.db.Create(&lock).Error
	if err == nil {
		return true, nil
	}
	if !isDuplicate(err) {
		return false, err
	}

	result := s.db.Model(&models.JobLock{}).
		Where("job_name = ? AND slot_key = ? AND expires_at < ?", job, slot, now).
		Updates(map[string]interface{}{
			"locked_by":  s.instance,
			"locked_at":  now,
			"expires_at": now.Add(jobLockTTL),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// RunJob runs fn if this instance wins the current slot, and records the
// outcome in metrics and the system log. It reports whether fn ran.
func (s *Scheduler) RunJob(ctx context.Context, name string, fn func(context.Context) (string, error)) bool {
	ok, err := s.tryLock(name, slotKey(s.now()))
	if err != nil {
		logger.Errorf("[Scheduler] %s: failed to acquire lock: %v", name, err)
		return false
	}
	if !ok {
		logger.Debug().Str("job", name).Msg("[Scheduler] slot taken by another instance")
		return false
	}

	start := time.Now()
	summary, err := fn(ctx)
	metrics.JobRun(name, err == nil)
	extra := map[string]interface{}{"instance": s.instance, "duration_ms": time.Since(start).Milliseconds()}
	if err != nil {
		logger.Errorf("[Scheduler] %s failed: %v", name, err)
		LogError("Scheduler", name, err.Error(), nil, "", "", extra)
		return true
	}
	logger.Infof("[Scheduler] %s: %s", name, summary)
	LogInfo("Scheduler", name, summary, nil, "", "", extra)
	return true
}

// ReconcileCounters recomputes counters that are maintained incrementally.
func (s *Scheduler) ReconcileCounters(ctx context.Context) (string, error) {
	db := s.db.WithContext(ctx)

	likes := func() *gorm.DB {
		return db.Model(&models.ProjectLike{}).Select("COUNT(*)").Where("project_likes.project_id = projects.id")
	}
	fixedLikes := db.Model(&models.Project{}).
		Where("like_count <> (?)", likes()).
		UpdateColumn("like_count", likes())
	if fixedLikes.Error != nil {
		return "", fixedLikes.Error
	}

	owned := func() *gorm.DB {
		return db.Model(&models.Project{}).Select("COUNT(*)").Where("projects.creator_id = profiles.user_id")
	}
	fixedProfiles := db.Model(&models.Profile{}).
		Where("total_projects <> (?)", owned()).
		UpdateColumn("total_projects", owned())
	if fixedProfiles.Error != nil {
		return "", fixedProfiles.Error
	}

	return fmt.Sprintf("fixed like_count on %d projects, total_projects on %d profiles",
		fixedLikes.RowsAffected, fixedProfiles.RowsAffected), nil
}

func (s *Scheduler) CleanupSystemLogs(ctx context.Context) (string, error) {
	deleted, err := NewSystemLogService(s.db.WithContext(ctx)).CleanupOldLogs(s.cfg.LogRetentionDays)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("deleted %d logs older than %d days", deleted, s.cfg.LogRetentionDays), nil
}

// RequeueStaleMedia re-enqueues assets whose processing task was lost and
// marks assets that never finished as failed.
func (s *Scheduler) RequeueStaleMedia(ctx context.Context) (string, error) {
	db := s.db.WithContext(ctx)
	now := s.now()

	expired := db.Model(&models.MediaAsset{}).
		Where("status = ? AND created_at < ?", models.MediaStatusProcessing, now.Add(-maxProcessingAge)).
		Updates(map[string]interface{}{
			"status":           models.MediaStatusError,
			"processing_error": "processing timed out",
		})
	if expired.Error != nil {
		return "", expired.Error
	}

	staleAfter := time.Duration(s.cfg.StaleAfterMin) * time.Minute
	var stale []models.MediaAsset
	if err := db.Where("status = ? AND updated_at < ?", models.MediaStatusProcessing, now.Add(-staleAfter)).
		Order("updated_at ASC").
		Limit(requeueBatchSize).
		Find(&stale).Error; err != nil {
		return "", err
	}

	requeued := 0
	for _, asset := range stale {
		if err := s.queue.Enqueue(&MediaTask{MediaID: asset.ID}); err != nil {
			return "", fmt.Errorf("requeue media %d: %w", asset.ID, err)
		}
		if err := db.Model(&models.MediaAsset{}).Where("id = ?", asset.ID).UpdateColumn("updated_at", now).Error; err != nil {
			return "", err
		}
		requeued++
	}

	return fmt.Sprintf("requeued %d assets, expired %d", requeued, expired.RowsAffected), nil
}
