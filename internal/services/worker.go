package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/mediafolio/mediafolio/internal/config"
	"github.com/mediafolio/mediafolio/pkg/logger"
)

// Worker runs media tasks pulled from Redis.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor MediaProcessorFunc
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// NewWorker returns nil when Redis is disabled.
func NewWorker(cfg *config.RedisConfig) *Worker {
	if !cfg.Enabled {
		return nil
	}

	server := asynq.NewServer(
		redisOpt(cfg),
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Errorf("[Worker] Error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

func (w *Worker) SetProcessor(processor MediaProcessorFunc) {
	w.processor = processor
}

func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeMediaProcess, w.handleMediaTask)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[Worker] Starting async worker...")
		if err := w.server.Run(w.mux); err != nil {
			logger.Errorf("[Worker] Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Infof("[Worker] Shutting down...")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Infof("[Worker] Shutdown complete")
}

func (w *Worker) handleMediaTask(ctx context.Context, t *asynq.Task) error {
	task, err := decodeMediaTask(t.Payload())
	if err != nil {
		// A malformed payload will never succeed.
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if w.processor == nil {
		logger.Warnf("[Worker] no processor set, media %d skipped", task.MediaID)
		return nil
	}

	return w.processor(ctx, task)
}

func decodeMediaTask(payload []byte) (*MediaTask, error) {
	var task MediaTask
	if err := json.Unmarshal(payload, &task); err != nil {
		return nil, fmt.Errorf("decode media task: %w", err)
	}
	if task.MediaID == 0 {
		return nil, fmt.Errorf("decode media task: missing media_id")
	}
	return &task, nil
}
