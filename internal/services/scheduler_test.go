package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mediafolio/mediafolio/internal/config"
	"github.com/mediafolio/mediafolio/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T, queue TaskQueue) *Scheduler {
	t.Helper()
	db := newTestDB(t)
	cfg := config.DefaultConfig().Scheduler
	return NewScheduler(db, &cfg, queue)
}

func TestScheduler_OneInstancePerSlot(t *testing.T) {
	first := newTestScheduler(t, &recordingQueue{})
	second := NewScheduler(first.db, first.cfg, &recordingQueue{})
	fixed := time.Date(2026, 3, 1, 10, 0, 30, 0, time.UTC)
	first.now = func() time.Time { return fixed }
	second.now = func() time.Time { return fixed }

	runs := 0
	job := func(context.Context) (string, error) { runs++; return "done", nil }

	assert.True(t, first.RunJob(context.Background(), "test_job", job))
	assert.False(t, second.RunJob(context.Background(), "test_job", job))
	assert.Equal(t, 1, runs)

	// next minute is a new slot
	second.now = func() time.Time { return fixed.Add(time.Minute) }
	assert.True(t, second.RunJob(context.Background(), "test_job", job))
	assert.Equal(t, 2, runs)
}

func TestScheduler_ExpiredLockIsTakenOver(t *testing.T) {
	s := newTestScheduler(t, &recordingQueue{})
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	stale := models.JobLock{
		JobName:   "test_job",
		SlotKey:   slotKey(fixed),
		LockedBy:  "crashed",
		LockedAt:  fixed.Add(-2 * jobLockTTL),
		ExpiresAt: fixed.Add(-jobLockTTL),
	}
	require.NoError(t, s.db.Create(&stale).Error)

	ok, err := s.tryLock("test_job", slotKey(fixed))
	require.NoError(t, err)
	assert.True(t, ok)

	var lock models.JobLock
	require.NoError(t, s.db.First(&lock, stale.ID).Error)
	assert.Equal(t, s.instance, lock.LockedBy)
}

func TestScheduler_FailedJobIsLogged(t *testing.T) {
	s := newTestScheduler(t, &recordingQueue{})
	InitSystemLogger(s.db)
	defer InitSystemLogger(nil)

	ran := s.RunJob(context.Background(), "broken", func(context.Context) (string, error) {
		return "", errors.New("disk full")
	})
	assert.True(t, ran)
	assert.Equal(t, int64(1), count(t, s.db, &models.SystemLog{}, "level = ? AND action = ?", models.LogLevelError, "broken"))
}

func TestScheduler_ReconcileCounters(t *testing.T) {
	s := newTestScheduler(t, &recordingQueue{})
	db := s.db
	projects := newProjectService(t, db)
	interactions := NewInteractionService(db)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	p := publishedProject(t, projects, alice, "Logo")
	_, err := interactions.ToggleLike(actorOf(bob), p.Slug)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Project{}).Where("id = ?", p.ID).Update("like_count", 9).Error)
	require.NoError(t, db.Model(&models.Profile{}).Where("user_id = ?", alice.ID).Update("total_projects", 5).Error)

	summary, err := s.ReconcileCounters(context.Background())
	require.NoError(t, err)
	assert.Contains(t, summary, "1 projects")

	var reloaded models.Project
	require.NoError(t, db.First(&reloaded, p.ID).Error)
	assert.Equal(t, int64(1), reloaded.LikeCount)
	assert.Equal(t, int64(1), totalProjects(t, db, alice))
	assert.Equal(t, int64(0), totalProjects(t, db, bob))
}

func TestScheduler_RequeueStaleMedia(t *testing.T) {
	queue := &recordingQueue{}
	s := newTestScheduler(t, queue)
	db := s.db
	alice := createUser(t, db, "alice")
	now := time.Now()
	s.now = func() time.Time { return now }

	insert := func(title string, created, updated time.Time) *models.MediaAsset {
		a := &models.MediaAsset{
			Title: title, FileKey: "media/" + title, FileType: models.FileTypeOther,
			OwnerID: alice.ID, Status: models.MediaStatusProcessing,
		}
		require.NoError(t, db.Create(a).Error)
		require.NoError(t, db.Model(a).UpdateColumns(map[string]interface{}{"created_at": created, "updated_at": updated}).Error)
		return a
	}
	fresh := insert("fresh", now, now)
	stale := insert("stale", now.Add(-time.Hour), now.Add(-time.Hour))
	ancient := insert("ancient", now.Add(-48*time.Hour), now.Add(-48*time.Hour))

	_, err := s.RequeueStaleMedia(context.Background())
	require.NoError(t, err)

	require.Len(t, queue.tasks, 1)
	assert.Equal(t, stale.ID, queue.tasks[0].MediaID)

	var expired models.MediaAsset
	require.NoError(t, db.First(&expired, ancient.ID).Error)
	assert.Equal(t, models.MediaStatusError, expired.Status)
	var waiting models.MediaAsset
	require.NoError(t, db.First(&waiting, fresh.ID).Error)
	assert.Equal(t, models.MediaStatusProcessing, waiting.Status)

	// the requeued asset is not picked up again right away
	_, err = s.RequeueStaleMedia(context.Background())
	require.NoError(t, err)
	assert.Len(t, queue.tasks, 1)
}

func TestScheduler_StartRejectsBadSpec(t *testing.T) {
	s := newTestScheduler(t, &recordingQueue{})
	s.cfg.ReconcileCron = "not a cron"
	assert.Error(t, s.Start())

	s = newTestScheduler(t, &recordingQueue{})
	require.NoError(t, s.Start())
	s.Stop()
}
