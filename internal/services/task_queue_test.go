package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/mediafolio/mediafolio/internal/config"
)

func TestTaskTypeMediaProcess_Constant(t *testing.T) {
	if TaskTypeMediaProcess != "media:process" {
		t.Errorf("TaskTypeMediaProcess = %q, expected %q", TaskTypeMediaProcess, "media:process")
	}
}

func TestSyncQueue_IsAsync(t *testing.T) {
	queue := NewSyncQueue()
	if queue.IsAsync() {
		t.Error("SyncQueue.IsAsync() should return false")
	}
}

func TestSyncQueue_Close(t *testing.T) {
	queue := NewSyncQueue()
	if err := queue.Close(); err != nil {
		t.Errorf("SyncQueue.Close() should return nil, got %v", err)
	}
}

func TestSyncQueue_EnqueueWithoutProcessor(t *testing.T) {
	queue := NewSyncQueue()
	if err := queue.Enqueue(&MediaTask{MediaID: 1}); err != nil {
		t.Errorf("Enqueue without processor should not error, got %v", err)
	}
}

func TestSyncQueue_RunsProcessor(t *testing.T) {
	queue := NewSyncQueue()
	var seen atomic.Int64
	queue.SetProcessor(func(ctx context.Context, task *MediaTask) error {
		seen.Add(int64(task.MediaID))
		return nil
	})

	for i := uint(1); i <= 3; i++ {
		if err := queue.Enqueue(&MediaTask{MediaID: i}); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}
	queue.Wait()

	if seen.Load() != 6 {
		t.Errorf("processed ids sum = %d, expected 6", seen.Load())
	}
}

func TestAsyncQueue_IsAsync(t *testing.T) {
	queue := &AsyncQueue{}
	if !queue.IsAsync() {
		t.Error("AsyncQueue.IsAsync() should return true")
	}
}

func TestNewWorker_DisabledRedis(t *testing.T) {
	if w := NewWorker(&config.RedisConfig{Enabled: false}); w != nil {
		t.Error("NewWorker should return nil when Redis is disabled")
	}
}

func TestWorker_HandleMediaTask(t *testing.T) {
	w := &Worker{mux: asynq.NewServeMux()}
	var got uint
	w.SetProcessor(func(ctx context.Context, task *MediaTask) error {
		got = task.MediaID
		return nil
	})

	if err := w.handleMediaTask(context.Background(), asynq.NewTask(TaskTypeMediaProcess, []byte(`{"media_id":7}`))); err != nil {
		t.Fatalf("handleMediaTask() error = %v", err)
	}
	if got != 7 {
		t.Errorf("processor got media %d, expected 7", got)
	}

	err := w.handleMediaTask(context.Background(), asynq.NewTask(TaskTypeMediaProcess, []byte(`not json`)))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("malformed payload should skip retry, got %v", err)
	}
}
